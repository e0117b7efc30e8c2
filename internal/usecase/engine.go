package usecase

import (
	"context"
	"fmt"
	"time"

	"venue-booking/internal/data/entity"
	"venue-booking/internal/data/repository"
	"venue-booking/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// transitionRule describes one booking state change.
type transitionRule struct {
	op        string
	event     string
	authorize func(Actor, *entity.Booking) error
	// done reports that the booking is already where the caller wants it.
	// Such calls return the current record without writing.
	done   func(*entity.Booking) bool
	check  func(*entity.Booking) error
	update repository.Transition
}

// engine applies transition rules. It is shared by every service that moves
// a booking between states.
type engine struct {
	repo   *repository.Repository
	events *notifier
	now    func() time.Time
	log    *zap.Logger
}

func (e *engine) load(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	b, err := e.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", id.String(), err)
	}
	if b == nil {
		return nil, apperror.Newf(apperror.KindNotFound, "booking %s not found", id.String())
	}
	return b, nil
}

// apply loads the booking, checks the rule, and writes the change with a
// conditional update. When the update loses a race the rule is re-evaluated
// against the fresh record so the caller gets the error the new state implies.
func (e *engine) apply(ctx context.Context, actor Actor, id uuid.UUID, rule transitionRule) (*entity.Booking, error) {
	b, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := rule.authorize(actor, b); err != nil {
		e.log.Warn(rule.op+" rejected",
			zap.String("booking_id", id.String()),
			zap.String("actor_id", actor.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if rule.done != nil && rule.done(b) {
		return b, nil
	}
	if err := rule.check(b); err != nil {
		return nil, err
	}

	update := rule.update
	if update.SetSchedule != "" && !entity.CanTransition(b.Kind, b.ScheduleStatus, update.SetSchedule) {
		e.log.Error("Rule leaves the schedule graph",
			zap.String("op", rule.op),
			zap.String("booking_id", id.String()),
			zap.String("from", b.ScheduleStatus.String()),
			zap.String("to", update.SetSchedule.String()),
		)
		return nil, apperror.Newf(apperror.KindInvalidTransition, "cannot move a %s %s booking to %s", b.ScheduleStatus, b.Kind, update.SetSchedule)
	}
	update.BookingID = id
	update.ActorID = actor.ID

	updated, err := e.repo.Booking.ApplyTransition(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("%s booking %s: %w", rule.op, id.String(), err)
	}

	if updated == nil {
		current, err := e.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if rule.done != nil && rule.done(current) {
			return current, nil
		}
		if err := rule.check(current); err != nil {
			return nil, err
		}
		return nil, apperror.Newf(apperror.KindInvalidTransition, "booking %s changed while processing %s", id.String(), rule.op)
	}

	e.log.Info("Booking transitioned",
		zap.String("op", rule.op),
		zap.String("booking_id", id.String()),
		zap.String("actor_id", actor.ID.String()),
		zap.String("schedule_status", updated.ScheduleStatus.String()),
		zap.String("payment_status", updated.PaymentStatus.String()),
	)

	if rule.event != "" {
		e.events.publish(ctx, rule.event, newBookingEvent(updated, actor, e.now()))
	}

	return updated, nil
}

var (
	payRule = transitionRule{
		op:        "pay",
		event:     EventBookingPaid,
		authorize: authorizeBooker,
		done:      func(b *entity.Booking) bool { return b.PaymentStatus == entity.PaymentPaid },
		check:     (*entity.Booking).CheckPay,
		update: repository.Transition{
			RequireSchedule: []entity.ScheduleStatus{entity.SchedulePending},
			RequirePayment:  entity.PaymentUnpaid,
			SetPayment:      entity.PaymentPaid,
		},
	}

	confirmRule = transitionRule{
		op:        "confirm",
		event:     EventBookingConfirmed,
		authorize: authorizeReceiver,
		check:     (*entity.Booking).CheckConfirm,
		update: repository.Transition{
			RequireSchedule: []entity.ScheduleStatus{entity.SchedulePending},
			RequirePayment:  entity.PaymentPaid,
			SetSchedule:     entity.ScheduleConfirmed,
		},
	}

	rejectRule = transitionRule{
		op:        "reject",
		event:     EventBookingRejected,
		authorize: authorizeReceiver,
		check:     (*entity.Booking).CheckReject,
		update: repository.Transition{
			RequireSchedule: []entity.ScheduleStatus{entity.SchedulePending},
			SetSchedule:     entity.ScheduleRejected,
		},
	}

	cancelRule = transitionRule{
		op:        "cancel",
		event:     EventBookingCanceled,
		authorize: authorizeBooker,
		check:     (*entity.Booking).CheckCancel,
		update: repository.Transition{
			RequireSchedule: []entity.ScheduleStatus{entity.SchedulePending, entity.ScheduleConfirmed},
			SetSchedule:     entity.ScheduleCanceled,
		},
	}

	arriveRule = transitionRule{
		op:        "mark arrived",
		event:     EventBookingArrived,
		authorize: authorizeReceiver,
		check:     (*entity.Booking).CheckMarkArrived,
		update: repository.Transition{
			RequireSchedule: []entity.ScheduleStatus{entity.ScheduleConfirmed},
			RequireKind:     entity.KindTable,
			SetSchedule:     entity.ScheduleArrived,
		},
	}

	endRule = transitionRule{
		op:        "end",
		event:     EventBookingEnded,
		authorize: authorizeReceiver,
		check:     (*entity.Booking).CheckEnd,
		update: repository.Transition{
			RequireSchedule: []entity.ScheduleStatus{entity.ScheduleConfirmed, entity.ScheduleArrived},
			RequireKind:     entity.KindTable,
			SetSchedule:     entity.ScheduleEnded,
		},
	}

	completeRule = transitionRule{
		op:        "complete",
		event:     EventBookingCompleted,
		authorize: authorizeReceiver,
		check:     (*entity.Booking).CheckComplete,
		update: repository.Transition{
			RequireSchedule: []entity.ScheduleStatus{entity.ScheduleConfirmed},
			RequirePayment:  entity.PaymentPaid,
			RequireKind:     entity.KindPerformer,
			SetSchedule:     entity.ScheduleCompleted,
		},
	}
)
