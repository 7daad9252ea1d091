package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/invision-app/backend/internal/logger"
	"github.com/invision-app/backend/internal/models"
)

// bcryptCost matches the cost the original deployment hashed with; existing
// hashes keep verifying if this ever changes.
const bcryptCost = 12

// UserStore defines the interface for user persistence.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) (string, error)
}

// Handler holds the registration and login HTTP handlers.
type Handler struct {
	users UserStore
	token *TokenIssuer
	log   *logger.Logger
}

func NewHandler(users UserStore, token *TokenIssuer, log *logger.Logger) *Handler {
	return &Handler{users: users, token: token, log: log}
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Register creates a new user with a bcrypt-hashed password.
//
// Email uniqueness is a lookup-before-insert check, so two concurrent
// registrations for the same email can both pass it. That matches the
// behavior this API has always had; see DESIGN.md before tightening it.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Username, email and password are required!"})
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Username, email and password are required!"})
		return
	}

	_, err := h.users.FindByEmail(r.Context(), req.Email)
	if err == nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "User already exists!"})
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		h.log.Errorf("register: lookup %q: %v", req.Email, err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Server error!"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		h.log.Errorf("register: hash password: %v", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Server error!"})
		return
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
	}
	if _, err := h.users.Insert(r.Context(), user); err != nil {
		h.log.Errorf("register: insert %q: %v", req.Email, err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Server error!"})
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "User created!"})
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password get the same response, so callers can't probe which
// addresses are registered.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Email and password are required!"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Email and password are required!"})
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Invalid email or password"})
			return
		}
		h.log.Errorf("login: lookup %q: %v", req.Email, err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Server error!"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Invalid email or password"})
		return
	}

	token, err := h.token.Issue(user.ID.Hex())
	if err != nil {
		h.log.Errorf("login: sign token: %v", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Server error!"})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", Token: token})
}
