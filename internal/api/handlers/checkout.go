package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/milsabores/storefront-gateway/internal/api/middleware"
	"github.com/milsabores/storefront-gateway/internal/errors"
	"github.com/milsabores/storefront-gateway/internal/models"
	service "github.com/milsabores/storefront-gateway/internal/services"
	"github.com/milsabores/storefront-gateway/internal/utils/response"
)

type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

func (h *CheckoutHandler) Commit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())
		scope, eligibility := resolveScope(w, r)

		var form models.CheckoutForm
		if !decodeJSONBody(w, r, &form) {
			return
		}

		order, fieldErrors, err := h.checkoutService.Commit(r.Context(), scope, &form, eligibility)
		if err != nil {
			if len(fieldErrors) > 0 {
				response.FieldErrors(w, err, fieldErrors)

				return
			}

			logger.Warn("Checkout commit failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusCreated, order)
	}
}

// Sync mirrors the confirmation view's one-shot backend save. Guests sync
// without a token; the backend's rejection then simply leaves the order
// local, which is the designed fallback.
func (h *CheckoutHandler) Sync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, _ := resolveScope(w, r)

		orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid order ID"))

			return
		}

		token := ""
		if session := middleware.SessionFromContext(r.Context()); session != nil {
			token = session.Token
		}

		order, err := h.checkoutService.SyncOrder(r.Context(), scope, token, orderID)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, order)
	}
}
