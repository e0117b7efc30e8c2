package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"venue-booking/internal/data/entity"
	"venue-booking/internal/data/repository"
	"venue-booking/internal/dto/request"
	"venue-booking/pkg/apperror"
	"venue-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	RequestBooking(ctx context.Context, actor Actor, req *request.CreateBookingRequest) (*entity.Booking, error)

	// State changes
	MarkPaid(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error)
	Confirm(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error)
	Reject(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error)
	MarkArrived(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error)
	EndBooking(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error)
	CompleteTransaction(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error)

	// Reads
	GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error)
	ListByReceiver(ctx context.Context, actor Actor, receiverID uuid.UUID, filter repository.BookingFilter, page *request.PaginatedRequest) ([]*entity.Booking, int64, error)
	ListByBooker(ctx context.Context, actor Actor, bookerID uuid.UUID, page *request.PaginatedRequest) ([]*entity.Booking, int64, error)
	History(ctx context.Context, actor Actor, id uuid.UUID) ([]*entity.StatusChange, error)
}

type bookingService struct {
	*engine
	log *zap.Logger
}

func NewBookingService(e *engine, log *zap.Logger) BookingService {
	return &bookingService{
		engine: e,
		log:    log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) RequestBooking(ctx context.Context, actor Actor, req *request.CreateBookingRequest) (*entity.Booking, error) {
	if actor.Role != entity.RoleCustomer {
		return nil, apperror.New(apperror.KindForbidden, "only customers can request bookings")
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Request booking validation failed", zap.Any("errors", errs))
		return nil, apperror.Newf(apperror.KindInvalidInput, "validation failed: %s", utils.FormatValidationErrors(errs))
	}

	kind, err := entity.ParseBookingKind(req.Kind)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidInput, "invalid booking kind", err)
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidInput, "invalid receiver ID", err)
	}
	if receiverID == actor.ID {
		return nil, apperror.New(apperror.KindInvalidInput, "cannot book yourself")
	}

	serviceDate, err := time.Parse(time.DateOnly, req.ServiceDate)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidInput, "invalid service date", err)
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if serviceDate.Before(today) {
		return nil, apperror.Newf(apperror.KindInvalidInput, "service date %s is in the past", req.ServiceDate)
	}

	items := entity.LineItems{
		TableRefs:    trimAll(req.TableRefs),
		SlotIndices:  req.SlotIndices,
		Location:     req.Location,
		ContactPhone: req.ContactPhone,
	}
	if err := items.Validate(kind); err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidInput, "invalid line items", err)
	}

	receiver, err := s.repo.User.FindByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("load receiver %s: %w", receiverID.String(), err)
	}
	if receiver == nil || !receiver.IsActive || !receiver.CanReceive(kind) {
		return nil, apperror.Newf(apperror.KindInvalidInput, "receiver %s cannot take %s bookings", receiverID.String(), kind)
	}

	var quotedPrice int64
	if kind == entity.KindPerformer {
		if receiver.QuotedPrice == nil {
			return nil, apperror.New(apperror.KindPreconditionFailed, "performer has not published a price yet")
		}
		quotedPrice = *receiver.QuotedPrice
	}

	amounts, err := entity.CalculateAmounts(kind, items.Count(kind), quotedPrice)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidInput, "cannot price booking", err)
	}

	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Kind:           kind,
		BookerID:       actor.ID,
		ReceiverID:     receiverID,
		ServiceDate:    serviceDate,
		LineItems:      items,
		ScheduleStatus: entity.SchedulePending,
		PaymentStatus:  entity.PaymentUnpaid,
		ReviewStatus:   entity.ReviewNotReviewed,
		QuotedPrice:    quotedPrice,
		Deposit:        amounts.Deposit,
		Total:          amounts.Total,
		Note:           req.Note,
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking requested",
		zap.String("booking_id", booking.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("booker_id", actor.ID.String()),
		zap.String("receiver_id", receiverID.String()),
		zap.Int64("deposit", booking.Deposit),
		zap.Int64("total", booking.Total),
	)

	s.events.publish(ctx, EventBookingRequested, newBookingEvent(booking, actor, now))

	return booking, nil
}

func (s *bookingService) MarkPaid(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error) {
	return s.apply(ctx, actor, id, payRule)
}

func (s *bookingService) Confirm(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error) {
	return s.apply(ctx, actor, id, confirmRule)
}

func (s *bookingService) Reject(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error) {
	return s.apply(ctx, actor, id, rejectRule)
}

func (s *bookingService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error) {
	return s.apply(ctx, actor, id, cancelRule)
}

func (s *bookingService) MarkArrived(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error) {
	return s.apply(ctx, actor, id, arriveRule)
}

func (s *bookingService) EndBooking(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error) {
	return s.apply(ctx, actor, id, endRule)
}

// CompleteTransaction closes a performer booking and asks for the remainder
// of the fee to be paid out to the performer.
func (s *bookingService) CompleteTransaction(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error) {
	booking, err := s.apply(ctx, actor, id, completeRule)
	if err != nil {
		return nil, err
	}

	amounts, err := booking.Amounts()
	if err != nil {
		s.log.Error("Cannot derive payout for completed booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return booking, nil
	}

	if amounts.DueOnCompletion > 0 {
		s.events.publish(ctx, EventPayoutRequested, PayoutEvent{
			BookingID:  booking.ID,
			ReceiverID: booking.ReceiverID,
			Amount:     amounts.DueOnCompletion,
			OccurredAt: s.now(),
		})
	}

	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeViewer(actor, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ListByReceiver(ctx context.Context, actor Actor, receiverID uuid.UUID, filter repository.BookingFilter, page *request.PaginatedRequest) ([]*entity.Booking, int64, error) {
	if actor.ID != receiverID && !actor.IsAdmin() {
		return nil, 0, apperror.New(apperror.KindForbidden, "cannot list another receiver's bookings")
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, apperror.New(apperror.KindInvalidInput, "from must not be after to")
	}

	bookings, err := s.repo.Booking.FindByReceiverID(ctx, receiverID, filter, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list receiver bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByReceiverID(ctx, receiverID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count receiver bookings: %w", err)
	}

	return bookings, total, nil
}

func (s *bookingService) ListByBooker(ctx context.Context, actor Actor, bookerID uuid.UUID, page *request.PaginatedRequest) ([]*entity.Booking, int64, error) {
	if actor.ID != bookerID && !actor.IsAdmin() {
		return nil, 0, apperror.New(apperror.KindForbidden, "cannot list another user's bookings")
	}

	bookings, err := s.repo.Booking.FindByBookerID(ctx, bookerID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list booker bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByBookerID(ctx, bookerID)
	if err != nil {
		return nil, 0, fmt.Errorf("count booker bookings: %w", err)
	}

	return bookings, total, nil
}

func (s *bookingService) History(ctx context.Context, actor Actor, id uuid.UUID) ([]*entity.StatusChange, error) {
	if _, err := s.GetByID(ctx, actor, id); err != nil {
		return nil, err
	}

	changes, err := s.repo.Booking.FindHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("booking history: %w", err)
	}
	return changes, nil
}

func trimAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
