package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quickbite/backend/user/models"
	"github.com/quickbite/backend/user/repository"
	"github.com/quickbite/backend/user/routes"
	"github.com/quickbite/backend/user/services"
)

type stubUserRepo struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) Debit(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*models.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if u.Balance < amount {
		return nil, repository.ErrInsufficientBalance
	}
	u.Balance -= amount
	return u, nil
}

func (s *stubUserRepo) Credit(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*models.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Balance += amount
	return u, nil
}

func setupRouter(repo repository.UserRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := services.NewBalanceService(repo, zap.NewNop())
	r := gin.New()
	routes.RegisterUserRoutes(r, NewUserController(svc))
	return r
}

func TestGetUser(t *testing.T) {
	userID := uuid.New()
	r := setupRouter(&stubUserRepo{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Username: "alice", Balance: 100000},
	}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/internal/users/"+userID.String(), nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, int64(100000), user.Balance)
}

func TestGetUser_NotFound(t *testing.T) {
	r := setupRouter(&stubUserRepo{users: map[uuid.UUID]*models.User{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/internal/users/"+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUser_InvalidID(t *testing.T) {
	r := setupRouter(&stubUserRepo{users: map[uuid.UUID]*models.User{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/internal/users/not-a-uuid", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateBalance_Debit(t *testing.T) {
	userID := uuid.New()
	r := setupRouter(&stubUserRepo{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Username: "alice", Balance: 100000},
	}})

	body, _ := json.Marshal(map[string]interface{}{
		"type": "debit", "amount": 3198, "reference": "order-1",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/internal/users/"+userID.String()+"/balance", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, int64(96802), user.Balance)
}

func TestUpdateBalance_InsufficientBalance(t *testing.T) {
	userID := uuid.New()
	r := setupRouter(&stubUserRepo{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Username: "bob", Balance: 100},
	}})

	body, _ := json.Marshal(map[string]interface{}{
		"type": "debit", "amount": 3198,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/internal/users/"+userID.String()+"/balance", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient balance")
}

func TestUpdateBalance_RejectsUnknownType(t *testing.T) {
	userID := uuid.New()
	r := setupRouter(&stubUserRepo{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Username: "carol", Balance: 1000},
	}})

	body, _ := json.Marshal(map[string]interface{}{
		"type": "transfer", "amount": 100,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/internal/users/"+userID.String()+"/balance", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateBalance_RejectsNonPositiveAmount(t *testing.T) {
	userID := uuid.New()
	r := setupRouter(&stubUserRepo{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Username: "dave", Balance: 1000},
	}})

	body, _ := json.Marshal(map[string]interface{}{
		"type": "debit", "amount": -50,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/internal/users/"+userID.String()+"/balance", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
