package adaptor

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"venue-booking/internal/dto/request"
	"venue-booking/internal/dto/response"
	"venue-booking/internal/usecase"
	"venue-booking/pkg/apperror"
	"venue-booking/pkg/utils"

	"go.uber.org/zap"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

type ConfirmationHandler struct {
	service usecase.ConfirmationService
	log     *zap.Logger
}

func NewConfirmationHandler(service usecase.ConfirmationService, log *zap.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{
		service: service,
		log:     log.With(zap.String("handler", "confirmation")),
	}
}

// IssueToken handles POST /api/bookings/{id}/qr?size=
// Each call rotates the token. The image in the response encodes the token
// returned alongside it, so only the latest response scans.
func (h *ConfirmationHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	size := utils.ParseInt(r.URL.Query().Get("size"), defaultQRSize)
	if size <= 0 || size > maxQRSize {
		utils.ResponseBadRequest(w, fmt.Sprintf("size must be between 1 and %d", maxQRSize), nil)
		return
	}

	issued, err := h.service.IssueToken(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.log, err, "issue confirmation token")
		return
	}

	png, err := issued.PNG(size)
	if err != nil {
		handleServiceError(w, h.log, err, "render confirmation QR")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	utils.ResponseCreated(w, "success", response.ConfirmationTokenResponse{
		BookingID: issued.Booking.ID.String(),
		Token:     issued.Token,
		IssuedAt:  issued.IssuedAt,
		QRImage:   base64.StdEncoding.EncodeToString(png),
	})
}

// Redeem handles POST /api/qr/redeem
func (h *ConfirmationHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req request.RedeemTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.Redeem(r.Context(), actor, req.Token)
	if errors.Is(err, apperror.ErrAlreadyRedeemed) && booking != nil {
		utils.ResponseConflict(w, "Booking already ended", response.BookingToResponse(booking, time.Now()))
		return
	}
	if err != nil {
		handleServiceError(w, h.log, err, "redeem confirmation token")
		return
	}

	utils.ResponseSuccess(w, "success", response.BookingToResponse(booking, time.Now()))
}
