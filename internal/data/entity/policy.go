package entity

import (
	"time"

	"venue-booking/pkg/apperror"
)

// Every "may this happen now" question about a booking is answered here.
// The Check* functions return the typed error a caller should surface; the
// Can* wrappers are for read-only views.

func (b *Booking) CheckPay() error {
	if b.ScheduleStatus != SchedulePending {
		return apperror.Newf(apperror.KindInvalidTransition, "cannot pay a %s booking", b.ScheduleStatus)
	}
	if b.PaymentStatus != PaymentUnpaid {
		return apperror.New(apperror.KindInvalidTransition, "booking is already paid")
	}
	return nil
}

func (b *Booking) CheckConfirm() error {
	if b.ScheduleStatus != SchedulePending {
		return apperror.Newf(apperror.KindInvalidTransition, "cannot confirm a %s booking", b.ScheduleStatus)
	}
	if b.PaymentStatus != PaymentPaid {
		return apperror.New(apperror.KindPreconditionFailed, "booking must be paid before it can be confirmed")
	}
	return nil
}

func (b *Booking) CheckReject() error {
	if b.ScheduleStatus != SchedulePending {
		return apperror.Newf(apperror.KindInvalidTransition, "cannot reject a %s booking", b.ScheduleStatus)
	}
	return nil
}

func (b *Booking) CheckCancel() error {
	if b.ScheduleStatus != SchedulePending && b.ScheduleStatus != ScheduleConfirmed {
		return apperror.Newf(apperror.KindInvalidTransition, "cannot cancel a %s booking", b.ScheduleStatus)
	}
	return nil
}

func (b *Booking) CheckMarkArrived() error {
	if b.Kind != KindTable {
		return apperror.New(apperror.KindInvalidTransition, "only table bookings can be marked arrived")
	}
	if b.ScheduleStatus != ScheduleConfirmed {
		return apperror.Newf(apperror.KindInvalidTransition, "cannot mark a %s booking as arrived", b.ScheduleStatus)
	}
	return nil
}

func (b *Booking) CheckEnd() error {
	if b.Kind != KindTable {
		return apperror.New(apperror.KindInvalidTransition, "only table bookings can be ended")
	}
	if b.ScheduleStatus != ScheduleConfirmed && b.ScheduleStatus != ScheduleArrived {
		return apperror.Newf(apperror.KindInvalidTransition, "cannot end a %s booking", b.ScheduleStatus)
	}
	return nil
}

func (b *Booking) CheckComplete() error {
	if b.Kind != KindPerformer {
		return apperror.New(apperror.KindInvalidTransition, "only performer bookings can be completed")
	}
	if b.ScheduleStatus != ScheduleConfirmed {
		return apperror.Newf(apperror.KindInvalidTransition, "cannot complete a %s booking", b.ScheduleStatus)
	}
	if b.PaymentStatus != PaymentPaid {
		return apperror.New(apperror.KindPreconditionFailed, "booking must be paid before it can be completed")
	}
	return nil
}

// CheckIssueToken guards handing out a confirmation QR code.
func (b *Booking) CheckIssueToken() error {
	if b.Kind != KindTable {
		return apperror.New(apperror.KindInvalidTransition, "confirmation codes are only issued for table bookings")
	}
	if b.ScheduleStatus != ScheduleConfirmed {
		return apperror.Newf(apperror.KindInvalidTransition, "cannot issue a confirmation code for a %s booking", b.ScheduleStatus)
	}
	return nil
}

// CheckReview reports why a booking cannot be reviewed at now, or nil.
func (b *Booking) CheckReview(now time.Time) error {
	if b.ReviewStatus != ReviewNotReviewed {
		return apperror.New(apperror.KindInvalidTransition, "booking has already been reviewed")
	}
	switch b.ScheduleStatus {
	case ScheduleEnded, ScheduleCompleted:
		return nil
	case ScheduleConfirmed:
		if b.ServiceDate.Before(now) {
			return nil
		}
	}
	return apperror.Newf(apperror.KindInvalidTransition, "a %s booking cannot be reviewed yet", b.ScheduleStatus)
}

func (b *Booking) CanPay() bool         { return b.CheckPay() == nil }
func (b *Booking) CanConfirm() bool     { return b.CheckConfirm() == nil }
func (b *Booking) CanReject() bool      { return b.CheckReject() == nil }
func (b *Booking) CanCancel() bool      { return b.CheckCancel() == nil }
func (b *Booking) CanMarkArrived() bool { return b.CheckMarkArrived() == nil }
func (b *Booking) CanEnd() bool         { return b.CheckEnd() == nil }
func (b *Booking) CanComplete() bool    { return b.CheckComplete() == nil }

func (b *Booking) CanReview(now time.Time) bool {
	return b.CheckReview(now) == nil
}
