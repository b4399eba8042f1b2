package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/milsabores/storefront-gateway/internal/errors"
	"github.com/milsabores/storefront-gateway/internal/metrics"
	"github.com/milsabores/storefront-gateway/internal/models"
	"github.com/milsabores/storefront-gateway/internal/store"
	"github.com/milsabores/storefront-gateway/pkg/bakery"
)

// LifetimePromoCode is the fixed promo literal granting the 10% discount,
// matched case-insensitively after trimming.
const LifetimePromoCode = "FELICES50"

const birthDateLayout = "2006-01-02"

// SessionService is the single source of truth for who is logged in. The
// bakery backend owns credentials; the gateway keeps a durable session record
// plus the cached discount-eligibility flags, and revalidates liveness
// against the backend at most once per interval.
type SessionService struct {
	client             bakery.Client
	store              store.Store
	notifier           *NotificationService
	jwtKey             []byte
	sessionTTL         time.Duration
	revalidateInterval time.Duration
}

func NewSessionService(client bakery.Client, st store.Store, notifier *NotificationService, jwtKey []byte, sessionTTL, revalidateInterval time.Duration) *SessionService {
	return &SessionService{
		client:             client,
		store:              st,
		notifier:           notifier,
		jwtKey:             jwtKey,
		sessionTTL:         sessionTTL,
		revalidateInterval: revalidateInterval,
	}
}

// ComputeEligibility derives the discount flags from the profile fields. It
// runs only when those fields change; cart reads consume the cached result.
func ComputeEligibility(birthDate, promoCode string) models.DiscountEligibility {
	var eligibility models.DiscountEligibility

	if birthDate != "" {
		if born, err := time.Parse(birthDateLayout, birthDate); err == nil {
			now := time.Now()
			age := now.Year() - born.Year()

			if now.YearDay() < born.YearDay() {
				age--
			}

			eligibility.AgeDiscount = age >= 50
		}
	}

	eligibility.PromoDiscount = strings.EqualFold(strings.TrimSpace(promoCode), LifetimePromoCode)

	return eligibility
}

// Login authenticates against the backend. Failures come back as a non-success
// response with a user-facing message; no session is created.
func (s *SessionService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	result, err := s.client.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch appErrStatus(err) {
		case http.StatusUnauthorized, http.StatusNotFound:
			return &models.LoginResponse{Success: false, Message: "Correo o contraseña incorrectos"}, nil
		}

		slog.Error("Login call to backend failed", slog.String("error", err.Error()))

		return &models.LoginResponse{Success: false, Message: "No se pudo iniciar sesión, intenta nuevamente"}, nil
	}

	session := &models.UserSession{
		RUN:           result.RUN,
		Email:         result.Email,
		Name:          result.Name,
		Surname:       result.Surname,
		Role:          models.Role(result.Role),
		Token:         result.Token,
		Region:        result.Region,
		Commune:       result.Commune,
		Address:       result.Address,
		BirthDate:     result.BirthDate,
		PromoCode:     result.PromoCode,
		Eligibility:   ComputeEligibility(result.BirthDate, result.PromoCode),
		CreatedAt:     time.Now(),
		LastValidated: time.Now(),
	}

	if err := s.store.Set(ctx, store.SessionKey(session.RUN), session); err != nil {
		return nil, errors.StorageError("Failed to persist session").WithError(err)
	}

	token, expiresIn, err := s.issueToken(session)
	if err != nil {
		return nil, err
	}

	slog.Info("User logged in", slog.String("run", session.RUN), slog.String("role", string(session.Role)))

	return &models.LoginResponse{
		Success:     true,
		Token:       token,
		ExpiresIn:   expiresIn,
		Role:        session.Role,
		IdentityKey: session.RUN,
	}, nil
}

func appErrStatus(err error) int {
	if appErr, ok := errors.IsAppError(err); ok {
		return appErr.StatusCode
	}

	return 0
}

func (s *SessionService) issueToken(session *models.UserSession) (string, int, error) {
	claims := &models.Claims{
		RUN:   session.RUN,
		Email: session.Email,
		Role:  session.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", 0, errors.InternalError("Failed to generate session token").WithError(err)
	}

	return signed, int(time.Until(claims.ExpiresAt.Time).Seconds()), nil
}

// Logout destroys the session record unconditionally; the eligibility flags
// live on the record, so they go with it.
func (s *SessionService) Logout(ctx context.Context, run string) {
	if err := s.store.Delete(ctx, store.SessionKey(run)); err != nil {
		slog.Error("Failed to delete session", slog.String("run", run), slog.String("error", err.Error()))
	}

	slog.Info("User logged out", slog.String("run", run))
}

// Register delegates to the backend; it never establishes a session.
func (s *SessionService) Register(ctx context.Context, req *models.RegisterRequest) error {
	if err := s.client.Register(ctx, req); err != nil {
		slog.Warn("Registration call to backend failed", slog.String("error", err.Error()))

		return err
	}

	return nil
}

func (s *SessionService) Current(ctx context.Context, run string) (*models.UserSession, error) {
	session := &models.UserSession{}

	found, err := s.store.Get(ctx, store.SessionKey(run), session)
	if err != nil {
		return nil, errors.StorageError("Failed to read session").WithError(err)
	}

	if !found {
		return nil, errors.UnauthorizedError("No active session")
	}

	return session, nil
}

// UpdateProfile merge-patches the session and recomputes eligibility from the
// patched birth date and promo code.
func (s *SessionService) UpdateProfile(ctx context.Context, run string, patch *models.ProfilePatch) (*models.UserSession, error) {
	session, err := s.Current(ctx, run)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		session.Name = *patch.Name
	}

	if patch.Surname != nil {
		session.Surname = *patch.Surname
	}

	if patch.Region != nil {
		session.Region = *patch.Region
	}

	if patch.Commune != nil {
		session.Commune = *patch.Commune
	}

	if patch.Address != nil {
		session.Address = *patch.Address
	}

	if patch.BirthDate != nil {
		session.BirthDate = *patch.BirthDate
	}

	if patch.PromoCode != nil {
		session.PromoCode = *patch.PromoCode
	}

	session.Eligibility = ComputeEligibility(session.BirthDate, session.PromoCode)

	if err := s.store.Set(ctx, store.SessionKey(run), session); err != nil {
		return nil, errors.StorageError("Failed to persist session").WithError(err)
	}

	return session, nil
}

// EnsureLive revalidates the session against the backend at most once per
// revalidation interval. A 401/403/404 probe answer means the account or
// token died server-side: the zombie session is evicted immediately. Any
// other failure is treated as transient and ignored.
func (s *SessionService) EnsureLive(ctx context.Context, session *models.UserSession) error {
	if time.Since(session.LastValidated) < s.revalidateInterval {
		return nil
	}

	_, err := s.client.GetUser(ctx, session.RUN, session.Token)
	if err != nil {
		switch appErrStatus(err) {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			slog.Warn("Session invalidated by backend, evicting", slog.String("run", session.RUN))
			metrics.SessionEvictions.Inc()
			s.Logout(ctx, session.RUN)
			s.notifier.Push(ctx, store.UserScope(session.RUN), models.NotificationWarning, "Tu sesión ha expirado, inicia sesión nuevamente")

			return errors.UnauthorizedError("Session is no longer valid")
		default:
			slog.Warn("Session liveness probe failed, treating as transient", slog.String("run", session.RUN), slog.String("error", err.Error()))

			return nil
		}
	}

	session.LastValidated = time.Now()

	if err := s.store.Set(ctx, store.SessionKey(session.RUN), session); err != nil {
		slog.Warn("Failed to persist session validation time", slog.String("run", session.RUN), slog.String("error", err.Error()))
	}

	return nil
}
