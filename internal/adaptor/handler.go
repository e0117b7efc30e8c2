package adaptor

import (
	"errors"
	"net/http"

	"venue-booking/internal/data/entity"
	"venue-booking/internal/usecase"
	"venue-booking/pkg/apperror"
	"venue-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Booking      *BookingHandler
	Confirmation *ConfirmationHandler
	Review       *ReviewHandler
	Payout       *PayoutHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking:      NewBookingHandler(service.Booking, log),
		Confirmation: NewConfirmationHandler(service.Confirmation, log),
		Review:       NewReviewHandler(service.Review, log),
		Payout:       NewPayoutHandler(service.Payout, log),
	}
}

// actorFromRequest reads the identity AuthSession put on the context.
func actorFromRequest(w http.ResponseWriter, r *http.Request) (usecase.Actor, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return usecase.Actor{}, false
	}
	role, _ := utils.GetRoleFromContext(r.Context())
	return usecase.Actor{ID: userID, Role: entity.UserRole(role)}, true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps a service error to the response for its kind.
// Unclassified errors are logged and hidden behind a 500.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	status := apperror.HTTPStatus(appErr.Kind)
	if status >= http.StatusInternalServerError {
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	log.Warn(operation+" failed",
		zap.Error(err),
		zap.String("kind", string(appErr.Kind)),
		zap.String("operation", operation))

	utils.ResponseJSON(w, status, false, appErr.Error(), nil, map[string]string{"kind": string(appErr.Kind)})
}
