package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/invision-app/backend/internal/logger"
	"github.com/invision-app/backend/internal/models"
)

// MockUserStore is a mock implementation of UserStore.
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) Insert(ctx context.Context, user *models.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func newTestHandler(store UserStore) *Handler {
	return NewHandler(store, NewTokenIssuer("test-secret"), logger.NewNop())
}

func doJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegister_Success(t *testing.T) {
	store := new(MockUserStore)
	store.On("FindByEmail", "alice@example.com").Return(nil, mongo.ErrNoDocuments).Once()

	var inserted *models.User
	store.On("Insert", mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) { inserted = args.Get(0).(*models.User) }).
		Return(primitive.NewObjectID().Hex(), nil).Once()

	rec := doJSON(t, newTestHandler(store).Register,
		`{"username":"alice","email":"alice@example.com","password":"hunter22"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"User created!"}`, rec.Body.String())

	require.NotNil(t, inserted)
	assert.Equal(t, "alice", inserted.Username)
	assert.Equal(t, "alice@example.com", inserted.Email)
	// The stored password must be a hash, never the plaintext.
	assert.NotEqual(t, "hunter22", inserted.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(inserted.Password), []byte("hunter22")))

	store.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := new(MockUserStore)
	store.On("FindByEmail", "alice@example.com").
		Return(&models.User{Email: "alice@example.com"}, nil).Once()

	rec := doJSON(t, newTestHandler(store).Register,
		`{"username":"alice","email":"alice@example.com","password":"hunter22"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"User already exists!"}`, rec.Body.String())
	store.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestRegister_MissingFields(t *testing.T) {
	cases := []string{
		`{}`,
		`{"username":"alice"}`,
		`{"username":"alice","email":"alice@example.com"}`,
		`{"email":"alice@example.com","password":"hunter22"}`,
		`{"username":"","email":"alice@example.com","password":"hunter22"}`,
		`not even json`,
	}
	for _, body := range cases {
		store := new(MockUserStore)
		rec := doJSON(t, newTestHandler(store).Register, body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
		store.AssertNotCalled(t, "FindByEmail", mock.Anything)
		store.AssertNotCalled(t, "Insert", mock.Anything)
	}
}

func TestRegister_StoreFailure(t *testing.T) {
	store := new(MockUserStore)
	store.On("FindByEmail", "alice@example.com").
		Return(nil, errors.New("server selection timeout")).Once()

	rec := doJSON(t, newTestHandler(store).Register,
		`{"username":"alice","email":"alice@example.com","password":"hunter22"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Server error!"}`, rec.Body.String())
	// The plaintext password must never leak into the response.
	assert.NotContains(t, rec.Body.String(), "hunter22")
}

func TestRegister_InsertFailure(t *testing.T) {
	store := new(MockUserStore)
	store.On("FindByEmail", "alice@example.com").Return(nil, mongo.ErrNoDocuments).Once()
	store.On("Insert", mock.AnythingOfType("*models.User")).
		Return("", errors.New("write concern error")).Once()

	rec := doJSON(t, newTestHandler(store).Register,
		`{"username":"alice","email":"alice@example.com","password":"hunter22"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Server error!"}`, rec.Body.String())
}

func TestLogin_Success(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	userID := primitive.NewObjectID()
	store := new(MockUserStore)
	store.On("FindByEmail", "alice@example.com").Return(&models.User{
		ID:       userID,
		Username: "alice",
		Email:    "alice@example.com",
		Password: string(hashed),
	}, nil).Once()

	before := time.Now()
	rec := doJSON(t, newTestHandler(store).Login,
		`{"email":"alice@example.com","password":"hunter22"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Login successful", resp.Message)
	require.NotEmpty(t, resp.Token)

	claims, err := NewTokenIssuer("test-secret").Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, userID.Hex(), claims.UserID)
	assert.WithinDuration(t, before.Add(TokenTTL), claims.ExpiresAt.Time, 2*time.Second)
}

func TestLogin_IdenticalResponseForUnknownEmailAndWrongPassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	require.NoError(t, err)

	unknownStore := new(MockUserStore)
	unknownStore.On("FindByEmail", "nobody@example.com").Return(nil, mongo.ErrNoDocuments).Once()
	unknownRec := doJSON(t, newTestHandler(unknownStore).Login,
		`{"email":"nobody@example.com","password":"whatever"}`)

	wrongPwStore := new(MockUserStore)
	wrongPwStore.On("FindByEmail", "alice@example.com").Return(&models.User{
		ID:       primitive.NewObjectID(),
		Email:    "alice@example.com",
		Password: string(hashed),
	}, nil).Once()
	wrongPwRec := doJSON(t, newTestHandler(wrongPwStore).Login,
		`{"email":"alice@example.com","password":"wrong"}`)

	// Nothing may reveal which of the two checks failed.
	assert.Equal(t, http.StatusUnauthorized, unknownRec.Code)
	assert.Equal(t, wrongPwRec.Code, unknownRec.Code)
	assert.Equal(t, wrongPwRec.Body.String(), unknownRec.Body.String())
	assert.JSONEq(t, `{"message":"Invalid email or password"}`, unknownRec.Body.String())
}

func TestLogin_MissingFields(t *testing.T) {
	for _, body := range []string{`{}`, `{"email":"alice@example.com"}`, `{"password":"hunter22"}`} {
		store := new(MockUserStore)
		rec := doJSON(t, newTestHandler(store).Login, body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
		store.AssertNotCalled(t, "FindByEmail", mock.Anything)
	}
}

func TestLogin_StoreFailure(t *testing.T) {
	store := new(MockUserStore)
	store.On("FindByEmail", "alice@example.com").
		Return(nil, errors.New("server selection timeout")).Once()

	rec := doJSON(t, newTestHandler(store).Login,
		`{"email":"alice@example.com","password":"hunter22"}`)

	// Store unreachable is not the same as bad credentials.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Server error!"}`, rec.Body.String())
}
