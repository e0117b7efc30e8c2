package response

import (
	"time"

	"venue-booking/internal/data/entity"
)

type SlotResponse struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// BookingActions tells clients which operations the current state allows.
// Role checks still happen server-side on each call.
type BookingActions struct {
	CanPay         bool `json:"can_pay"`
	CanConfirm     bool `json:"can_confirm"`
	CanReject      bool `json:"can_reject"`
	CanCancel      bool `json:"can_cancel"`
	CanMarkArrived bool `json:"can_mark_arrived"`
	CanEnd         bool `json:"can_end"`
	CanComplete    bool `json:"can_complete"`
	CanReview      bool `json:"can_review"`
	CanIssueToken  bool `json:"can_issue_token"`
}

type BookingResponse struct {
	ID                     string                `json:"id"`
	Kind                   entity.BookingKind    `json:"kind"`
	BookerID               string                `json:"booker_id"`
	ReceiverID             string                `json:"receiver_id"`
	ServiceDate            string                `json:"service_date"`
	TableRefs              []string              `json:"table_refs,omitempty"`
	Slots                  []SlotResponse        `json:"slots,omitempty"`
	Location               *string               `json:"location,omitempty"`
	ContactPhone           *string               `json:"contact_phone,omitempty"`
	ScheduleStatus         entity.ScheduleStatus `json:"schedule_status"`
	PaymentStatus          entity.PaymentStatus  `json:"payment_status"`
	ReviewStatus           entity.ReviewStatus   `json:"review_status"`
	Closed                 bool                  `json:"closed"`
	QuotedPrice            int64                 `json:"quoted_price,omitempty"`
	Deposit                int64                 `json:"deposit"`
	Total                  int64                 `json:"total"`
	AmountDueOnCompletion  int64                 `json:"amount_due_on_completion"`
	ConfirmationIssuedAt   *time.Time            `json:"confirmation_issued_at,omitempty"`
	ConfirmationRedeemedAt *time.Time            `json:"confirmation_redeemed_at,omitempty"`
	Note                   *string               `json:"note,omitempty"`
	Actions                BookingActions        `json:"actions"`
	CreatedAt              time.Time             `json:"created_at"`
	UpdatedAt              time.Time             `json:"updated_at"`
}

type StatusChangeResponse struct {
	Dimension string    `json:"dimension"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorID   string    `json:"actor_id"`
	At        time.Time `json:"at"`
}

// ConfirmationTokenResponse carries the raw token once, with the same token
// rendered as a base64 PNG.
type ConfirmationTokenResponse struct {
	BookingID string    `json:"booking_id"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	QRImage   string    `json:"qr_image"`
}

// Helper converters
func BookingToResponse(b *entity.Booking, now time.Time) BookingResponse {
	res := BookingResponse{
		ID:                     b.ID.String(),
		Kind:                   b.Kind,
		BookerID:               b.BookerID.String(),
		ReceiverID:             b.ReceiverID.String(),
		ServiceDate:            b.ServiceDate.Format(time.DateOnly),
		TableRefs:              b.TableRefs,
		Location:               b.Location,
		ContactPhone:           b.ContactPhone,
		ScheduleStatus:         b.ScheduleStatus,
		PaymentStatus:          b.PaymentStatus,
		ReviewStatus:           b.ReviewStatus,
		Closed:                 b.ScheduleStatus.IsTerminal(),
		QuotedPrice:            b.QuotedPrice,
		Deposit:                b.Deposit,
		Total:                  b.Total,
		ConfirmationIssuedAt:   b.ConfirmationIssuedAt,
		ConfirmationRedeemedAt: b.ConfirmationRedeemedAt,
		Note:                   b.Note,
		Actions: BookingActions{
			CanPay:         b.CanPay(),
			CanConfirm:     b.CanConfirm(),
			CanReject:      b.CanReject(),
			CanCancel:      b.CanCancel(),
			CanMarkArrived: b.CanMarkArrived(),
			CanEnd:         b.CanEnd(),
			CanComplete:    b.CanComplete(),
			CanReview:      b.CanReview(now),
			CanIssueToken:  b.CheckIssueToken() == nil,
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}

	if amounts, err := b.Amounts(); err == nil {
		res.AmountDueOnCompletion = amounts.DueOnCompletion
	}

	for _, idx := range b.SlotIndices {
		start, end := entity.SlotWindow(b.ServiceDate, idx)
		endLabel := end.Format("15:04")
		if idx == entity.SlotsPerDay-1 {
			endLabel = "24:00"
		}
		res.Slots = append(res.Slots, SlotResponse{
			Index: idx,
			Start: start.Format("15:04"),
			End:   endLabel,
		})
	}

	return res
}

func BookingsToResponse(bookings []*entity.Booking, now time.Time) []BookingResponse {
	res := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		res = append(res, BookingToResponse(b, now))
	}
	return res
}

func HistoryToResponse(changes []*entity.StatusChange) []StatusChangeResponse {
	res := make([]StatusChangeResponse, 0, len(changes))
	for _, c := range changes {
		res = append(res, StatusChangeResponse{
			Dimension: c.Dimension,
			From:      c.FromState,
			To:        c.ToState,
			ActorID:   c.ActorID.String(),
			At:        c.CreatedAt,
		})
	}
	return res
}
