package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/milsabores/storefront-gateway/internal/models"
	service "github.com/milsabores/storefront-gateway/internal/services"
	"github.com/milsabores/storefront-gateway/internal/utils/response"
)

type OrderHandler struct {
	orderService *service.OrderService
	validator    *validator.Validate
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validator:    validator.New(),
	}
}

func (h *OrderHandler) LastOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, _ := resolveScope(w, r)

		order, err := h.orderService.LastOrder(r.Context(), scope)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

func (h *OrderHandler) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, _ := resolveScope(w, r)

		orders, err := h.orderService.History(r.Context(), scope)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, orders)
	}
}

// Track is the public order lookup: possession of the order's email acts as
// authorization.
func (h *OrderHandler) Track() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.TrackOrderRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}

		if !validateStruct(w, h.validator, req) {
			return
		}

		order, err := h.orderService.Track(r.Context(), req.OrderID, req.Email)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

func (h *OrderHandler) ListAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := h.orderService.ListAll(r.Context())
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, orders)
	}
}
