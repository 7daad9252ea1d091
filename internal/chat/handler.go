package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/invision-app/backend/internal/logger"
	"github.com/invision-app/backend/internal/models"
)

// Generator produces a model reply for a single-turn message.
type Generator interface {
	Generate(ctx context.Context, message string) (string, error)
}

// Handler holds the chat HTTP handler.
//
// The route is deliberately unauthenticated: that is the contract clients
// rely on today. Gating it behind the bearer token is a one-line router
// change once that decision is made.
type Handler struct {
	gemini Generator
	log    *logger.Logger
}

func NewHandler(gemini Generator, log *logger.Logger) *Handler {
	return &Handler{gemini: gemini, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Chat answers identity questions from the canned table and relays
// everything else to the model API.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, models.ChatError{Error: "Message is required!"})
		return
	}

	if reply, ok := matchCanned(req.Message); ok {
		writeJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
		return
	}

	text, err := h.gemini.Generate(r.Context(), req.Message)
	if err != nil {
		h.log.Errorf("chat: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ChatError{
			Error:   "Failed to fetch response",
			Details: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Response: text})
}
