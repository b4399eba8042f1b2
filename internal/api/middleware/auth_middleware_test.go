package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/milsabores/storefront-gateway/internal/api/middleware"
	appErrors "github.com/milsabores/storefront-gateway/internal/errors"
	"github.com/milsabores/storefront-gateway/internal/models"
	service "github.com/milsabores/storefront-gateway/internal/services"
	"github.com/milsabores/storefront-gateway/internal/store"
	"github.com/milsabores/storefront-gateway/pkg/bakery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testJWTKey = []byte("test-key")

func loginFixture(t *testing.T, role string, revalidateInterval time.Duration) (*middleware.AuthMiddleware, *bakery.MockClient, string) {
	t.Helper()

	st := store.NewMemoryStore()
	mockClient := bakery.NewMockClient()
	notifier := service.NewNotificationService(st)
	sessions := service.NewSessionService(mockClient, st, notifier, testJWTKey, time.Hour, revalidateInterval)

	mockClient.On("Login", mock.Anything, "ana@example.com", "secret").Return(&bakery.LoginResult{
		Token: "backend-token",
		RUN:   "12345678-9",
		Name:  "Ana",
		Email: "ana@example.com",
		Role:  role,
	}, nil).Once()

	resp, err := sessions.Login(context.Background(), &models.LoginRequest{Email: "ana@example.com", Password: "secret"})
	require.NoError(t, err)
	require.True(t, resp.Success)

	return middleware.NewAuthMiddleware(testJWTKey, sessions), mockClient, resp.Token
}

func nextHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		authMiddleware, _, token := loginFixture(t, "cliente", time.Hour)

		var called bool
		var seen *models.UserSession

		handler := authMiddleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			seen = middleware.SessionFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.True(t, called)
		require.NotNil(t, seen)
		assert.Equal(t, "12345678-9", seen.RUN)
	})

	t.Run("Failure - Missing Header", func(t *testing.T) {
		authMiddleware, _, _ := loginFixture(t, "cliente", time.Hour)

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		rec := httptest.NewRecorder()

		authMiddleware.Authenticate(nextHandler(&called)).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Failure - Malformed Header", func(t *testing.T) {
		authMiddleware, _, token := loginFixture(t, "cliente", time.Hour)

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", token)
		rec := httptest.NewRecorder()

		authMiddleware.Authenticate(nextHandler(&called)).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Failure - Tampered Token", func(t *testing.T) {
		authMiddleware, _, token := loginFixture(t, "cliente", time.Hour)

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Bearer "+token+"x")
		rec := httptest.NewRecorder()

		authMiddleware.Authenticate(nextHandler(&called)).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Failure - Backend Evicted The Session", func(t *testing.T) {
		authMiddleware, mockClient, token := loginFixture(t, "cliente", 0)

		mockClient.On("GetUser", mock.Anything, "12345678-9", "backend-token").
			Return(nil, appErrors.NotFoundError("gone")).Once()

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		authMiddleware.Authenticate(nextHandler(&called)).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Run("Success - Administrator", func(t *testing.T) {
		authMiddleware, _, token := loginFixture(t, "administrador", time.Hour)

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		authMiddleware.RequireAdmin(nextHandler(&called)).ServeHTTP(rec, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Failure - Customer Role", func(t *testing.T) {
		authMiddleware, _, token := loginFixture(t, "cliente", time.Hour)

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		authMiddleware.RequireAdmin(nextHandler(&called)).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestIdentify(t *testing.T) {
	t.Run("Success - Guest Passes Through", func(t *testing.T) {
		authMiddleware, _, _ := loginFixture(t, "cliente", time.Hour)

		var called bool
		var seen *models.UserSession

		handler := authMiddleware.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			seen = middleware.SessionFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.True(t, called)
		assert.Nil(t, seen)
	})

	t.Run("Success - Token Resolves Session", func(t *testing.T) {
		authMiddleware, _, token := loginFixture(t, "cliente", time.Hour)

		var seen *models.UserSession

		handler := authMiddleware.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = middleware.SessionFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.NotNil(t, seen)
		assert.Equal(t, "12345678-9", seen.RUN)
	})

	t.Run("Failure - Invalid Token Is Not Demoted To Guest", func(t *testing.T) {
		authMiddleware, _, _ := loginFixture(t, "cliente", time.Hour)

		var called bool
		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()

		authMiddleware.Identify(nextHandler(&called)).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
