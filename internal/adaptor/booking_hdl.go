package adaptor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"venue-booking/internal/data/entity"
	"venue-booking/internal/data/repository"
	"venue-booking/internal/dto/request"
	"venue-booking/internal/dto/response"
	"venue-booking/internal/usecase"
	"venue-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// RequestBooking handles POST /api/bookings
func (h *BookingHandler) RequestBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.RequestBooking(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "request booking")
		return
	}

	utils.ResponseCreated(w, "success", response.BookingToResponse(booking, time.Now()))
}

type bookingFunc func(ctx context.Context, actor usecase.Actor, id uuid.UUID) (*entity.Booking, error)

// bookingAction serves the routes that act on one booking and answer with it.
func (h *BookingHandler) bookingAction(fn bookingFunc, operation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(w, r)
		if !ok {
			return
		}
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		booking, err := fn(r.Context(), actor, id)
		if err != nil {
			handleServiceError(w, h.log, err, operation)
			return
		}

		utils.ResponseSuccess(w, "success", response.BookingToResponse(booking, time.Now()))
	}
}

// MarkPaid handles POST /api/bookings/{id}/pay
func (h *BookingHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(h.service.MarkPaid, "mark paid")(w, r)
}

// Confirm handles POST /api/bookings/{id}/confirm
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(h.service.Confirm, "confirm booking")(w, r)
}

// Reject handles POST /api/bookings/{id}/reject
func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(h.service.Reject, "reject booking")(w, r)
}

// Cancel handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(h.service.Cancel, "cancel booking")(w, r)
}

// MarkArrived handles POST /api/bookings/{id}/arrive
func (h *BookingHandler) MarkArrived(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(h.service.MarkArrived, "mark arrived")(w, r)
}

// EndBooking handles POST /api/bookings/{id}/end
func (h *BookingHandler) EndBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(h.service.EndBooking, "end booking")(w, r)
}

// CompleteTransaction handles POST /api/bookings/{id}/complete
func (h *BookingHandler) CompleteTransaction(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(h.service.CompleteTransaction, "complete transaction")(w, r)
}

// GetByID handles GET /api/bookings/{id}
func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(h.service.GetByID, "get booking")(w, r)
}

// History handles GET /api/bookings/{id}/history
func (h *BookingHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	changes, err := h.service.History(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.log, err, "get booking history")
		return
	}

	utils.ResponseSuccess(w, "success", response.HistoryToResponse(changes))
}

// ListByReceiver handles GET /api/receivers/{receiverId}/bookings
func (h *BookingHandler) ListByReceiver(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	receiverID, ok := uuidParam(w, r, "receiverId")
	if !ok {
		return
	}

	query := r.URL.Query()
	from, err := utils.ParseDate(query.Get("from"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid from date, use YYYY-MM-DD", nil)
		return
	}
	to, err := utils.ParseDate(query.Get("to"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid to date, use YYYY-MM-DD", nil)
		return
	}

	filter := repository.BookingFilter{From: from, To: to}
	if raw := query.Get("status"); raw != "" {
		if filter.Status, err = entity.ParseScheduleStatus(raw); err != nil {
			utils.ResponseBadRequest(w, "Invalid status filter", nil)
			return
		}
	}

	page := paginationFromQuery(r)
	bookings, total, err := h.service.ListByReceiver(r.Context(), actor, receiverID, filter, page)
	if err != nil {
		handleServiceError(w, h.log, err, "list receiver bookings")
		return
	}

	utils.ResponseSuccess(w, "success",
		response.NewPaginatedResponse(response.BookingsToResponse(bookings, time.Now()), page.Page, page.Limit(), total))
}

// ListByBooker handles GET /api/bookers/{bookerId}/bookings
func (h *BookingHandler) ListByBooker(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	bookerID, ok := uuidParam(w, r, "bookerId")
	if !ok {
		return
	}

	page := paginationFromQuery(r)
	bookings, total, err := h.service.ListByBooker(r.Context(), actor, bookerID, page)
	if err != nil {
		handleServiceError(w, h.log, err, "list booker bookings")
		return
	}

	utils.ResponseSuccess(w, "success",
		response.NewPaginatedResponse(response.BookingsToResponse(bookings, time.Now()), page.Page, page.Limit(), total))
}

func paginationFromQuery(r *http.Request) *request.PaginatedRequest {
	query := r.URL.Query()
	return &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}
}
