package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/milsabores/storefront-gateway/internal/api/middleware"
	"github.com/milsabores/storefront-gateway/internal/models"
	service "github.com/milsabores/storefront-gateway/internal/services"
	"github.com/milsabores/storefront-gateway/internal/utils/response"
)

type SessionHandler struct {
	sessionService *service.SessionService
	validator      *validator.Validate
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		validator:      validator.New(),
	}
}

func (h *SessionHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}

		if !validateStruct(w, h.validator, req) {
			return
		}

		result, err := h.sessionService.Login(r.Context(), &req)
		if err != nil {
			logger.Error("Login failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		if !result.Success {
			response.WriteJson(w, http.StatusUnauthorized, response.APIResponse{Success: false, Data: result})

			return
		}

		response.Success(w, http.StatusOK, result)
	}
}

func (h *SessionHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.SessionFromContext(r.Context())

		h.sessionService.Logout(r.Context(), session.RUN)

		response.Success(w, http.StatusOK, map[string]string{"message": "Sesión cerrada"})
	}
}

func (h *SessionHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var req models.RegisterRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}

		if !validateStruct(w, h.validator, req) {
			return
		}

		if err := h.sessionService.Register(r.Context(), &req); err != nil {
			logger.Warn("Registration failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		// Registration never establishes a session; the client logs in next.
		response.Success(w, http.StatusCreated, map[string]string{"message": "Cuenta creada"})
	}
}

func (h *SessionHandler) Profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.SessionFromContext(r.Context())

		// The upstream token stays server-side.
		view := *session
		view.Token = ""

		response.Success(w, http.StatusOK, view)
	}
}

func (h *SessionHandler) UpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.SessionFromContext(r.Context())

		var patch models.ProfilePatch
		if !decodeJSONBody(w, r, &patch) {
			return
		}

		updated, err := h.sessionService.UpdateProfile(r.Context(), session.RUN, &patch)
		if err != nil {
			response.Error(w, err)

			return
		}

		view := *updated
		view.Token = ""

		response.Success(w, http.StatusOK, view)
	}
}
