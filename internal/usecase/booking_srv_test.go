package usecase

import (
	"context"
	"testing"
	"time"

	"venue-booking/internal/data/entity"
	"venue-booking/internal/data/repository"
	"venue-booking/internal/dto/request"
	"venue-booking/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func (f *fixture) tableBooking(t *testing.T, tables ...string) *entity.Booking {
	t.Helper()
	if len(tables) == 0 {
		tables = []string{"T1", "T2"}
	}
	b, err := f.svc.Booking.RequestBooking(context.Background(), f.customer, &request.CreateBookingRequest{
		Kind:        "table",
		ReceiverID:  f.venue.ID.String(),
		ServiceDate: "2026-11-20",
		TableRefs:   tables,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) performerBooking(t *testing.T, slots ...int) *entity.Booking {
	t.Helper()
	b, err := f.svc.Booking.RequestBooking(context.Background(), f.customer, &request.CreateBookingRequest{
		Kind:         "performer",
		ReceiverID:   f.performer.ID.String(),
		ServiceDate:  "2026-11-20",
		SlotIndices:  slots,
		Location:     ptr("Rooftop, 12 Harbour St"),
		ContactPhone: ptr("+84 900 111 222"),
	})
	require.NoError(t, err)
	return b
}

// confirmed returns a paid and confirmed table booking.
func (f *fixture) confirmed(t *testing.T) *entity.Booking {
	t.Helper()
	ctx := context.Background()
	b := f.tableBooking(t)
	_, err := f.svc.Booking.MarkPaid(ctx, f.customer, b.ID)
	require.NoError(t, err)
	b, err = f.svc.Booking.Confirm(ctx, f.venue, b.ID)
	require.NoError(t, err)
	return b
}

func TestTableBookingLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b := f.tableBooking(t)
	assert.Equal(t, entity.SchedulePending, b.ScheduleStatus)
	assert.Equal(t, entity.PaymentUnpaid, b.PaymentStatus)
	assert.Equal(t, int64(200_000), b.Deposit)
	assert.Equal(t, int64(200_000), b.Total)

	_, err := f.svc.Booking.Confirm(ctx, f.venue, b.ID)
	assert.ErrorIs(t, err, apperror.ErrPreconditionFailed)

	paid, err := f.svc.Booking.MarkPaid(ctx, f.customer, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, paid.PaymentStatus)

	confirmed, err := f.svc.Booking.Confirm(ctx, f.venue, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ScheduleConfirmed, confirmed.ScheduleStatus)

	issued, err := f.svc.Confirmation.IssueToken(ctx, f.customer, b.ID)
	require.NoError(t, err)

	arrived, err := f.svc.Confirmation.Redeem(ctx, f.venue, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, entity.ScheduleArrived, arrived.ScheduleStatus)
	assert.NotNil(t, arrived.ConfirmationRedeemedAt)

	ended, err := f.svc.Booking.EndBooking(ctx, f.venue, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ScheduleEnded, ended.ScheduleStatus)

	res, err := f.svc.Review.SubmitReview(ctx, f.customer, &request.CreateReviewRequest{
		BookingID: b.ID.String(),
		Rating:    5,
		Comment:   ptr("Great night"),
	})
	require.NoError(t, err)
	assert.Nil(t, res.Refund)

	final, err := f.svc.Booking.GetByID(ctx, f.customer, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReviewReviewed, final.ReviewStatus)

	history, err := f.svc.Booking.History(ctx, f.venue, b.ID)
	require.NoError(t, err)
	var steps []string
	for _, h := range history {
		steps = append(steps, h.Dimension+":"+h.ToState)
	}
	assert.Equal(t, []string{
		"schedule:pending",
		"payment:paid",
		"schedule:confirmed",
		"schedule:arrived",
		"schedule:ended",
		"review:reviewed",
	}, steps)

	assert.Len(t, f.events.byKey(EventBookingRequested), 1)
	assert.Len(t, f.events.byKey(EventBookingArrived), 1)
	assert.Len(t, f.events.byKey(EventReviewSubmitted), 1)
}

func TestPerformerBookingLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b := f.performerBooking(t, 9, 10, 11)
	assert.Equal(t, int64(50_000), b.Deposit)
	assert.Equal(t, int64(500_000), b.Total)
	assert.Equal(t, int64(500_000), b.QuotedPrice)

	_, err := f.svc.Booking.MarkPaid(ctx, f.customer, b.ID)
	require.NoError(t, err)
	_, err = f.svc.Booking.Confirm(ctx, f.performer, b.ID)
	require.NoError(t, err)

	_, err = f.svc.Booking.MarkArrived(ctx, f.performer, b.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	_, err = f.svc.Confirmation.IssueToken(ctx, f.customer, b.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	done, err := f.svc.Booking.CompleteTransaction(ctx, f.performer, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ScheduleCompleted, done.ScheduleStatus)

	payouts := f.events.byKey(EventPayoutRequested)
	require.Len(t, payouts, 1)
	payout := payouts[0].(PayoutEvent)
	assert.Equal(t, int64(450_000), payout.Amount)
	assert.Equal(t, f.performer.ID, payout.ReceiverID)

	assert.True(t, done.CanReview(testNow))
}

func TestCanceledBookingIsFrozen(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	b := f.tableBooking(t)
	canceled, err := f.svc.Booking.Cancel(ctx, f.customer, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ScheduleCanceled, canceled.ScheduleStatus)

	_, err = f.svc.Booking.Confirm(ctx, f.venue, b.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	_, err = f.svc.Booking.MarkPaid(ctx, f.customer, b.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	_, err = f.svc.Review.SubmitReview(ctx, f.customer, &request.CreateReviewRequest{
		BookingID: b.ID.String(),
		Rating:    3,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestTerminalStatesRejectEveryTransition(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rejected := f.tableBooking(t)
	_, err := f.svc.Booking.Reject(ctx, f.venue, rejected.ID)
	require.NoError(t, err)

	ended := f.confirmed(t)
	_, err = f.svc.Booking.EndBooking(ctx, f.venue, ended.ID)
	require.NoError(t, err)

	for _, id := range []uuid.UUID{rejected.ID, ended.ID} {
		before, err := f.svc.Booking.GetByID(ctx, f.admin, id)
		require.NoError(t, err)

		_, err = f.svc.Booking.Confirm(ctx, f.venue, id)
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
		_, err = f.svc.Booking.Reject(ctx, f.venue, id)
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
		_, err = f.svc.Booking.Cancel(ctx, f.customer, id)
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
		_, err = f.svc.Booking.MarkArrived(ctx, f.venue, id)
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
		_, err = f.svc.Booking.EndBooking(ctx, f.venue, id)
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

		after, err := f.svc.Booking.GetByID(ctx, f.admin, id)
		require.NoError(t, err)
		assert.Equal(t, before.ScheduleStatus, after.ScheduleStatus)
	}
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.tableBooking(t)

	for range 3 {
		paid, err := f.svc.Booking.MarkPaid(ctx, f.customer, b.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.PaymentPaid, paid.PaymentStatus)
	}

	assert.Len(t, f.store.historyFor(b.ID, entity.DimensionPayment), 1)
	assert.Len(t, f.events.byKey(EventBookingPaid), 1)
}

func TestActorRolesAreEnforced(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.tableBooking(t)

	_, err := f.svc.Booking.MarkPaid(ctx, f.venue, b.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.Booking.Confirm(ctx, f.customer, b.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.Booking.Cancel(ctx, f.stranger, b.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.Booking.GetByID(ctx, f.stranger, b.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.Booking.GetByID(ctx, f.admin, b.ID)
	assert.NoError(t, err)

	_, err = f.svc.Booking.RequestBooking(ctx, f.venue, &request.CreateBookingRequest{
		Kind:        "table",
		ReceiverID:  f.venue.ID.String(),
		ServiceDate: "2026-11-20",
		TableRefs:   []string{"A1"},
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.Booking.GetByID(ctx, f.customer, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRequestBookingValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	noQuote := f.addUser(entity.RolePerformer, nil)

	tests := []struct {
		name string
		req  request.CreateBookingRequest
		want error
	}{
		{
			name: "past date",
			req:  request.CreateBookingRequest{Kind: "table", ReceiverID: f.venue.ID.String(), ServiceDate: "2026-10-31", TableRefs: []string{"A1"}},
			want: apperror.ErrInvalidInput,
		},
		{
			name: "no tables",
			req:  request.CreateBookingRequest{Kind: "table", ReceiverID: f.venue.ID.String(), ServiceDate: "2026-11-20"},
			want: apperror.ErrInvalidInput,
		},
		{
			name: "duplicate tables after trimming",
			req:  request.CreateBookingRequest{Kind: "table", ReceiverID: f.venue.ID.String(), ServiceDate: "2026-11-20", TableRefs: []string{"A1", " A1"}},
			want: apperror.ErrInvalidInput,
		},
		{
			name: "receiver with wrong role",
			req:  request.CreateBookingRequest{Kind: "table", ReceiverID: f.performer.ID.String(), ServiceDate: "2026-11-20", TableRefs: []string{"A1"}},
			want: apperror.ErrInvalidInput,
		},
		{
			name: "unknown receiver",
			req:  request.CreateBookingRequest{Kind: "table", ReceiverID: uuid.NewString(), ServiceDate: "2026-11-20", TableRefs: []string{"A1"}},
			want: apperror.ErrInvalidInput,
		},
		{
			name: "unknown kind",
			req:  request.CreateBookingRequest{Kind: "boat", ReceiverID: f.venue.ID.String(), ServiceDate: "2026-11-20", TableRefs: []string{"A1"}},
			want: apperror.ErrInvalidInput,
		},
		{
			name: "performer without location",
			req:  request.CreateBookingRequest{Kind: "dj", ReceiverID: f.performer.ID.String(), ServiceDate: "2026-11-20", SlotIndices: []int{1}, ContactPhone: ptr("1")},
			want: apperror.ErrInvalidInput,
		},
		{
			name: "performer without a published price",
			req:  request.CreateBookingRequest{Kind: "performer", ReceiverID: noQuote.ID.String(), ServiceDate: "2026-11-20", SlotIndices: []int{1}, Location: ptr("x"), ContactPhone: ptr("1")},
			want: apperror.ErrPreconditionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Booking.RequestBooking(ctx, f.customer, &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Empty(t, f.store.bookings)
}

func TestRequestBookingAcceptsKindAliasAndToday(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Booking.RequestBooking(context.Background(), f.customer, &request.CreateBookingRequest{
		Kind:         "DJ",
		ReceiverID:   f.performer.ID.String(),
		ServiceDate:  testNow.Format(time.DateOnly),
		SlotIndices:  []int{4},
		Location:     ptr("Club"),
		ContactPhone: ptr("+1 555 0100"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.KindPerformer, b.Kind)
}

func TestConcurrentCancelBeatsConfirm(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.tableBooking(t)
	_, err := f.svc.Booking.MarkPaid(ctx, f.customer, b.ID)
	require.NoError(t, err)

	// the booker cancels between the receiver's read and write
	f.store.beforeApply = func(b *entity.Booking) { b.ScheduleStatus = entity.ScheduleCanceled }

	_, err = f.svc.Booking.Confirm(ctx, f.venue, b.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	current, err := f.svc.Booking.GetByID(ctx, f.customer, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ScheduleCanceled, current.ScheduleStatus)
	assert.Empty(t, f.events.byKey(EventBookingConfirmed))
}

func TestConcurrentPayReturnsCurrentState(t *testing.T) {
	f := newFixture()
	b := f.tableBooking(t)

	f.store.beforeApply = func(b *entity.Booking) { b.PaymentStatus = entity.PaymentPaid }

	paid, err := f.svc.Booking.MarkPaid(context.Background(), f.customer, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, paid.PaymentStatus)
}

func TestEndBookingFromConfirmedSkipsArrival(t *testing.T) {
	f := newFixture()
	b := f.confirmed(t)

	ended, err := f.svc.Booking.EndBooking(context.Background(), f.venue, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ScheduleEnded, ended.ScheduleStatus)
}

func TestListings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for range 3 {
		f.tableBooking(t)
	}
	f.performerBooking(t, 0)

	page := &request.PaginatedRequest{Page: 1, PerPage: 2}
	bookings, total, err := f.svc.Booking.ListByReceiver(ctx, f.venue, f.venue.ID, repository.BookingFilter{}, page)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
	assert.Equal(t, int64(3), total)

	from := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	bookings, total, err = f.svc.Booking.ListByReceiver(ctx, f.venue, f.venue.ID, repository.BookingFilter{From: &from}, page)
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.Zero(t, total)

	confirmed := f.confirmed(t)
	bookings, total, err = f.svc.Booking.ListByReceiver(ctx, f.venue, f.venue.ID, repository.BookingFilter{Status: entity.ScheduleConfirmed}, page)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, confirmed.ID, bookings[0].ID)
	assert.Equal(t, int64(1), total)

	_, _, err = f.svc.Booking.ListByReceiver(ctx, f.customer, f.venue.ID, repository.BookingFilter{}, page)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	bookings, total, err = f.svc.Booking.ListByBooker(ctx, f.customer, f.customer.ID, &request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Len(t, bookings, 5)
	assert.Equal(t, int64(5), total)

	_, _, err = f.svc.Booking.ListByBooker(ctx, f.stranger, f.customer.ID, page)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}
