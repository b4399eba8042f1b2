package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/milsabores/storefront-gateway/internal/errors"
	"github.com/milsabores/storefront-gateway/internal/models"
	service "github.com/milsabores/storefront-gateway/internal/services"
	"github.com/milsabores/storefront-gateway/internal/utils/response"
)

type contextKey string

const sessionContextKey = contextKey("session")

// AuthMiddleware gates protected and admin-only routes. Every authenticated
// request also runs the interval-gated liveness check, so a session killed
// server-side gets evicted on its next use.
type AuthMiddleware struct {
	jwtKey   []byte
	sessions *service.SessionService
}

func NewAuthMiddleware(jwtKey []byte, sessions *service.SessionService) *AuthMiddleware {
	return &AuthMiddleware{jwtKey: jwtKey, sessions: sessions}
}

func (m *AuthMiddleware) parseToken(r *http.Request) (*models.Claims, error) {
	authHeader := r.Header.Get("Authorization")

	if authHeader == "" {
		return nil, errors.UnauthorizedError("Authorization header is required")
	}

	tokenParts := strings.Split(authHeader, " ")

	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return nil, errors.UnauthorizedError("Invalid authorization format")
	}

	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenParts[1], claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.BadRequestError("unexpected signing method")
		}

		return m.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.UnauthorizedError("Invalid or expired token")
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, errors.UnauthorizedError("Token expired")
	}

	return claims, nil
}

func (m *AuthMiddleware) resolveSession(r *http.Request) (*models.UserSession, error) {
	claims, err := m.parseToken(r)
	if err != nil {
		return nil, err
	}

	session, err := m.sessions.Current(r.Context(), claims.RUN)
	if err != nil {
		return nil, err
	}

	if err := m.sessions.EnsureLive(r.Context(), session); err != nil {
		return nil, err
	}

	return session, nil
}

// Authenticate requires a live session.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := LoggerFromContext(r.Context())

		session, err := m.resolveSession(r)
		if err != nil {
			logger.Warn("Authentication failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		ctx = context.WithValue(ctx, loggerKey, logger.With(slog.String("run", session.RUN)))

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireAdmin additionally checks the administrator role.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.HandlerFunc {
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromContext(r.Context())

		if session == nil || session.Role != models.RoleAdministrator {
			response.Error(w, errors.ForbiddenError("Administrator role required"))

			return
		}

		next.ServeHTTP(w, r)
	}))
}

// Identify resolves a session when credentials are present but lets guests
// through: the cart and checkout surface works for both. An invalid token is
// still rejected rather than silently demoted to guest.
func (m *AuthMiddleware) Identify(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)

			return
		}

		m.Authenticate(next).ServeHTTP(w, r)
	}
}

// ContextWithSession attaches an already resolved session, bypassing token
// verification. Intended for handler tests.
func ContextWithSession(ctx context.Context, session *models.UserSession) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

func SessionFromContext(ctx context.Context) *models.UserSession {
	if session, ok := ctx.Value(sessionContextKey).(*models.UserSession); ok {
		return session
	}

	return nil
}
