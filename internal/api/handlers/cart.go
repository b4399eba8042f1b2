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

type CartHandler struct {
	cartService    *service.CartService
	productService *service.ProductService
	validator      *validator.Validate
}

func NewCartHandler(cartService *service.CartService, productService *service.ProductService) *CartHandler {
	return &CartHandler{
		cartService:    cartService,
		productService: productService,
		validator:      validator.New(),
	}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, eligibility := resolveScope(w, r)

		response.Success(w, http.StatusOK, h.cartService.View(r.Context(), scope, eligibility))
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())
		scope, eligibility := resolveScope(w, r)

		var req models.AddItemRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}

		if !validateStruct(w, h.validator, req) {
			return
		}

		product, err := h.productService.GetProduct(r.Context(), req.ProductCode)
		if err != nil {
			logger.Warn("Product lookup failed", slog.String("code", req.ProductCode), slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		if _, err := h.cartService.AddItem(r.Context(), scope, product, req.Quantity, req.Message); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, h.cartService.View(r.Context(), scope, eligibility))
	}
}

func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, eligibility := resolveScope(w, r)

		lineID := r.PathValue("id")
		if lineID == "" {
			response.WriteJson(w, http.StatusBadRequest, "Line item ID is required")

			return
		}

		var req models.UpdateQuantityRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}

		if !validateStruct(w, h.validator, req) {
			return
		}

		if _, err := h.cartService.UpdateQuantity(r.Context(), scope, lineID, req.Quantity); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, h.cartService.View(r.Context(), scope, eligibility))
	}
}

func (h *CartHandler) UpdateMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, eligibility := resolveScope(w, r)

		lineID := r.PathValue("id")
		if lineID == "" {
			response.WriteJson(w, http.StatusBadRequest, "Line item ID is required")

			return
		}

		var req models.UpdateMessageRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}

		if !validateStruct(w, h.validator, req) {
			return
		}

		if _, err := h.cartService.UpdateMessage(r.Context(), scope, lineID, req.Message); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, h.cartService.View(r.Context(), scope, eligibility))
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, eligibility := resolveScope(w, r)

		lineID := r.PathValue("id")
		if lineID == "" {
			response.WriteJson(w, http.StatusBadRequest, "Line item ID is required")

			return
		}

		h.cartService.RemoveItem(r.Context(), scope, lineID)

		response.Success(w, http.StatusOK, h.cartService.View(r.Context(), scope, eligibility))
	}
}

func (h *CartHandler) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, eligibility := resolveScope(w, r)

		h.cartService.Clear(r.Context(), scope)

		response.Success(w, http.StatusOK, h.cartService.View(r.Context(), scope, eligibility))
	}
}
