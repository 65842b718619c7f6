package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebuszqo/BudgetManager/internal/auth"
	"github.com/sebuszqo/BudgetManager/internal/config"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	"github.com/sebuszqo/BudgetManager/internal/finance/infrastructure"
	"github.com/sebuszqo/BudgetManager/internal/logger"
	"github.com/sebuszqo/BudgetManager/internal/user"
)

func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]user.User
}

func (m *memoryUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *memoryUsers) FindByID(_ context.Context, userID string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (m *memoryUsers) FindByLoginOrEmail(_ context.Context, loginOrEmail string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == loginOrEmail || strings.EqualFold(u.Email, loginOrEmail) {
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *memoryUsers) FindByUsernameOrEmail(_ context.Context, username, email, excludeID string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID != excludeID && (u.Username == username || strings.EqualFold(u.Email, email)) {
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *memoryUsers) Update(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

type noTwoFactor struct{}

func (noTwoFactor) SaveTwoFactorSecret(context.Context, string, string) error { return nil }
func (noTwoFactor) GetTwoFactorSecret(context.Context, string) (string, error) {
	return "", auth.ErrTwoFactorNotRegistered
}
func (noTwoFactor) EnableTwoFactor(context.Context, string) error  { return nil }
func (noTwoFactor) DisableTwoFactor(context.Context, string) error { return nil }

func fixedNow() time.Time {
	return time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T, healthy bool) http.Handler {
	t.Helper()
	cfg := config.Config{
		AppName:         "BudgetManager",
		Environment:     "development",
		JWTSecret:       "a-long-enough-test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		AllowedOrigins:  []string{"http://localhost:3000"},
	}
	repos := repositories{
		users:        &memoryUsers{users: make(map[string]user.User)},
		twoFactor:    noTwoFactor{},
		transactions: &infrastructure.MockTransactionRepository{},
		budgets:      &infrastructure.MockBudgetRepository{},
		goals:        &infrastructure.MockGoalRepository{},
		categories: &infrastructure.MockCategoryRepository{Categories: []domain.Category{
			{ID: 1, Name: "Salaire", Kind: domain.KindIncome, IsDefault: true},
			{ID: 2, Name: "Nourriture", Kind: domain.KindExpense, IsDefault: true},
		}},
	}
	health := func(context.Context) map[string]string {
		if healthy {
			return map[string]string{"status": "up"}
		}
		return map[string]string{"status": "down", "error": "db down"}
	}
	return NewServer(cfg, logger.Discard(), repos, auth.NewSessionManager(), fixedNow, health).Handler()
}

func call(t *testing.T, handler http.Handler, method, target, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	}
	return w, response
}

func login(t *testing.T, handler http.Handler) string {
	t.Helper()
	w, _ := call(t, handler, http.MethodPost, "/api/auth/register", "",
		`{"email":"marie@example.com","username":"marie","password":"radium-1898"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, response := call(t, handler, http.MethodPost, "/api/auth/token", "", `{"username":"marie","password":"radium-1898"}`)
	require.Equal(t, http.StatusOK, w.Code)
	return response["data"].(map[string]interface{})["access_token"].(string)
}

func TestReady(t *testing.T) {
	w, response := call(t, newTestServer(t, true), http.MethodGet, "/api/ready", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", response["status"])

	w, _ = call(t, newTestServer(t, false), http.MethodGet, "/api/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouting(t *testing.T) {
	handler := newTestServer(t, true)

	w, response := call(t, handler, http.MethodGet, "/api/categories?type=income", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, response["data"], 1)

	w, response = call(t, handler, http.MethodGet, "/api/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Path not found", response["message"])

	w, _ = call(t, handler, http.MethodGet, "/api/protected/transactions", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = call(t, handler, http.MethodPut, "/api/refresh/token", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORS(t *testing.T) {
	handler := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodOptions, "/api/protected/transactions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthenticatedFlow(t *testing.T) {
	handler := newTestServer(t, true)
	token := login(t, handler)

	w, response := call(t, handler, http.MethodGet, "/api/protected/me", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "marie", response["data"].(map[string]interface{})["username"])

	w, _ = call(t, handler, http.MethodPost, "/api/protected/transactions/bulk", token, `{"transactions": [
		{"amount": 2000, "type": "income", "category": "Salaire", "date": "2024-03-01"},
		{"amount": 450.5, "type": "expense", "category": "Nourriture", "date": "2024-03-10"}
	]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = call(t, handler, http.MethodPost, "/api/protected/budgets", token,
		`{"category":"Nourriture","amount":500,"month":"2024-03"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, response = call(t, handler, http.MethodGet, "/api/protected/analytics/summary", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	summary := response["data"].(map[string]interface{})
	assert.Equal(t, "2024-03", summary["month"])
	assert.Equal(t, 1549.5, summary["balance"])

	w, response = call(t, handler, http.MethodGet, "/api/protected/budgets/alerts?month=2024-03", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	alerts := response["data"].([]interface{})
	require.Len(t, alerts, 1)
	assert.Equal(t, "warning", alerts[0].(map[string]interface{})["status"])

	w, response = call(t, handler, http.MethodGet, "/api/protected/transactions/summary/analytics?months=3", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, response["data"].(map[string]interface{})["monthly_trends"], 3)

	w, _ = call(t, handler, http.MethodPost, "/api/auth/logout", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
