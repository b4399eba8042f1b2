package handlers

import (
	"net/http"

	service "github.com/milsabores/storefront-gateway/internal/services"
	"github.com/milsabores/storefront-gateway/internal/utils/response"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, _ := resolveScope(w, r)

		notifications := h.notificationService.List(r.Context(), scope)

		response.Success(w, http.StatusOK, notifications)
	}
}

func (h *NotificationHandler) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, _ := resolveScope(w, r)

		h.notificationService.Clear(r.Context(), scope)

		response.Success(w, http.StatusOK, map[string]string{"message": "Notificaciones eliminadas"})
	}
}
