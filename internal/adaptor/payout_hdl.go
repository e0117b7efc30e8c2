package adaptor

import (
	"encoding/json"
	"net/http"

	"venue-booking/internal/dto/request"
	"venue-booking/internal/dto/response"
	"venue-booking/internal/usecase"
	"venue-booking/pkg/utils"

	"go.uber.org/zap"
)

type PayoutHandler struct {
	service usecase.PayoutService
	log     *zap.Logger
}

func NewPayoutHandler(service usecase.PayoutService, log *zap.Logger) *PayoutHandler {
	return &PayoutHandler{
		service: service,
		log:     log.With(zap.String("handler", "payout")),
	}
}

// GetAccount handles GET /api/user/payout-account
func (h *PayoutHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	account, err := h.service.GetPayoutAccount(r.Context(), actor)
	if err != nil {
		handleServiceError(w, h.log, err, "get payout account")
		return
	}

	utils.ResponseSuccess(w, "success", response.PayoutAccountToResponse(account))
}

// UpsertAccount handles PUT /api/user/payout-account
func (h *PayoutHandler) UpsertAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req request.UpsertPayoutAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	account, err := h.service.UpsertPayoutAccount(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "save payout account")
		return
	}

	utils.ResponseSuccess(w, "success", response.PayoutAccountToResponse(account))
}
