package transport

import (
	"context"
	"errors"
	"net/http"

	"stylemart/internal/domain"
	"stylemart/internal/middleware"
	"stylemart/internal/repository"
	"stylemart/internal/service"

	"github.com/google/uuid"
)

// respondWithServiceError maps service errors to HTTP status codes. Handlers
// check their own expected errors first; this covers the shared tail.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var stockErr *domain.InsufficientStockError
	var notFoundErr *service.ProductNotFoundError
	var transitionErr *service.InvalidTransitionError
	var sizeErr *service.InvalidSizeError

	switch {
	case errors.As(err, &stockErr):
		middleware.RespondWithErrorDetails(w, http.StatusConflict, stockErr.Error(), map[string]interface{}{
			"product":   stockErr.ProductName,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.As(err, &notFoundErr):
		middleware.RespondWithError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &transitionErr):
		middleware.RespondWithError(w, http.StatusConflict, transitionErr.Error())
	case errors.As(err, &sizeErr):
		middleware.RespondWithError(w, http.StatusBadRequest, sizeErr.Error())
	case errors.Is(err, service.ErrNoOrderItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrPriceMismatch),
		errors.Is(err, service.ErrInvalidOrderStatus),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidStock):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotAuthorized):
		middleware.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrUserNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrStoreTimeout):
		middleware.RespondWithError(w, http.StatusGatewayTimeout, "store operation timed out")
	default:
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requesterFromContext reads the authenticated user's ID and role placed in
// the context by AuthMiddleware.
func requesterFromContext(ctx context.Context) (uuid.UUID, string, bool) {
	userIDStr, ok := middleware.GetUserID(ctx)
	if !ok {
		return uuid.Nil, "", false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, "", false
	}

	role, ok := middleware.GetUserRole(ctx)
	if !ok {
		return uuid.Nil, "", false
	}

	return userID, role, true
}
