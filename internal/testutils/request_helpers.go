package testutils

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/milsabores/storefront-gateway/internal/api/middleware"
	"github.com/milsabores/storefront-gateway/internal/models"
)

// TestSession returns a logged-in customer session usable as request context.
func TestSession() *models.UserSession {
	return &models.UserSession{
		RUN:       "12345678-9",
		Email:     "test@example.com",
		Name:      "Test",
		Surname:   "User",
		Role:      models.RoleClient,
		Token:     "upstream-token",
		BirthDate: "1990-04-12",
		CreatedAt: time.Now(),
	}
}

func CreateTestRequestWithSession(method, target string, body io.Reader, session *models.UserSession, pathParams map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)

	for key, value := range pathParams {
		req.SetPathValue(key, value)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := middleware.ContextWithSession(req.Context(), session)
	ctx = middleware.ContextWithLogger(ctx, logger)

	return req.WithContext(ctx)
}

func CreateTestRequestWithoutSession(method, target string, body io.Reader, pathParams map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)

	for key, value := range pathParams {
		req.SetPathValue(key, value)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := middleware.ContextWithLogger(req.Context(), logger)

	return req.WithContext(ctx)
}
