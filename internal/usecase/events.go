package usecase

import (
	"context"
	"time"

	"venue-booking/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Routing keys on the booking events exchange.
const (
	EventBookingRequested = "booking.requested"
	EventBookingPaid      = "booking.paid"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingRejected  = "booking.rejected"
	EventBookingCanceled  = "booking.canceled"
	EventBookingArrived   = "booking.arrived"
	EventBookingEnded     = "booking.ended"
	EventBookingCompleted = "booking.completed"
	EventPayoutRequested  = "payout.requested"
	EventReviewSubmitted  = "review.submitted"
	EventRefundRequested  = "refund.requested"
)

// EventPublisher is satisfied by mq.Publisher and mq.NopPublisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type BookingEvent struct {
	BookingID      uuid.UUID             `json:"booking_id"`
	Kind           entity.BookingKind    `json:"kind"`
	BookerID       uuid.UUID             `json:"booker_id"`
	ReceiverID     uuid.UUID             `json:"receiver_id"`
	ServiceDate    string                `json:"service_date"`
	ScheduleStatus entity.ScheduleStatus `json:"schedule_status"`
	PaymentStatus  entity.PaymentStatus  `json:"payment_status"`
	ActorID        uuid.UUID             `json:"actor_id"`
	OccurredAt     time.Time             `json:"occurred_at"`
}

type PayoutEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ReviewEvent struct {
	ReviewID   uuid.UUID `json:"review_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Rating     int       `json:"rating"`
	OccurredAt time.Time `json:"occurred_at"`
}

type RefundEvent struct {
	RefundID   uuid.UUID `json:"refund_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	BookerID   uuid.UUID `json:"booker_id"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newBookingEvent(b *entity.Booking, actor Actor, at time.Time) BookingEvent {
	return BookingEvent{
		BookingID:      b.ID,
		Kind:           b.Kind,
		BookerID:       b.BookerID,
		ReceiverID:     b.ReceiverID,
		ServiceDate:    b.ServiceDate.Format(time.DateOnly),
		ScheduleStatus: b.ScheduleStatus,
		PaymentStatus:  b.PaymentStatus,
		ActorID:        actor.ID,
		OccurredAt:     at,
	}
}

// notifier publishes after the state change has committed. A failed publish
// is logged and never undoes the change.
type notifier struct {
	pub     EventPublisher
	timeout time.Duration
	log     *zap.Logger
}

func (n *notifier) publish(ctx context.Context, key string, v any) {
	if n == nil || n.pub == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	if err := n.pub.PublishJSON(ctx, key, v); err != nil {
		n.log.Error("Failed to publish event",
			zap.Error(err),
			zap.String("key", key),
		)
	}
}
