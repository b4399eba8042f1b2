package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/milsabores/storefront-gateway/internal/api/middleware"
	"github.com/milsabores/storefront-gateway/internal/errors"
	"github.com/milsabores/storefront-gateway/internal/models"
	"github.com/milsabores/storefront-gateway/internal/store"
	"github.com/milsabores/storefront-gateway/internal/utils"
	"github.com/milsabores/storefront-gateway/internal/utils/response"
)

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := utils.DecodeJSONBody(r, dest); err != nil {
		response.Error(w, errors.BadRequestError("Invalid request body").WithError(err))

		return false
	}

	return true
}

func validateStruct(w http.ResponseWriter, validate *validator.Validate, data any) bool {
	if err := validate.Struct(data); err != nil {
		if validationErrs, ok := err.(validator.ValidationErrors); ok {
			response.ValidationError(w, validationErrs)

			return false
		}

		response.Error(w, errors.InternalError("Unexpected validation error").WithError(err))

		return false
	}

	return true
}

// resolveScope picks the storage partition for the request: the authenticated
// identity when a session is present, otherwise a guest id taken from (or
// issued into) the X-Guest-ID header. Guest and user carts never merge.
func resolveScope(w http.ResponseWriter, r *http.Request) (string, models.DiscountEligibility) {
	if session := middleware.SessionFromContext(r.Context()); session != nil {
		return store.UserScope(session.RUN), session.Eligibility
	}

	guestID := r.Header.Get("X-Guest-ID")
	if guestID == "" {
		guestID = uuid.NewString()
	}

	w.Header().Set("X-Guest-ID", guestID)

	return store.GuestScope(guestID), models.DiscountEligibility{}
}
