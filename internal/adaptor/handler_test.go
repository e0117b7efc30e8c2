package adaptor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"venue-booking/internal/data/entity"
	"venue-booking/internal/data/repository"
	"venue-booking/internal/dto/request"
	"venue-booking/internal/usecase"
	"venue-booking/pkg/apperror"
	"venue-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubBookingService struct {
	usecase.BookingService
	confirm        func(ctx context.Context, actor usecase.Actor, id uuid.UUID) (*entity.Booking, error)
	listByReceiver func(ctx context.Context, actor usecase.Actor, receiverID uuid.UUID, filter repository.BookingFilter, page *request.PaginatedRequest) ([]*entity.Booking, int64, error)
}

func (s *stubBookingService) ListByReceiver(ctx context.Context, actor usecase.Actor, receiverID uuid.UUID, filter repository.BookingFilter, page *request.PaginatedRequest) ([]*entity.Booking, int64, error) {
	return s.listByReceiver(ctx, actor, receiverID, filter, page)
}

func (s *stubBookingService) Confirm(ctx context.Context, actor usecase.Actor, id uuid.UUID) (*entity.Booking, error) {
	return s.confirm(ctx, actor, id)
}

type stubConfirmationService struct {
	usecase.ConfirmationService
	issue  func(ctx context.Context, actor usecase.Actor, id uuid.UUID) (*usecase.IssuedToken, error)
	redeem func(ctx context.Context, actor usecase.Actor, raw string) (*entity.Booking, error)
}

func (s *stubConfirmationService) IssueToken(ctx context.Context, actor usecase.Actor, id uuid.UUID) (*usecase.IssuedToken, error) {
	return s.issue(ctx, actor, id)
}

func (s *stubConfirmationService) Redeem(ctx context.Context, actor usecase.Actor, raw string) (*entity.Booking, error) {
	return s.redeem(ctx, actor, raw)
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func sampleBooking(schedule entity.ScheduleStatus) *entity.Booking {
	return &entity.Booking{
		Base:           entity.Base{ID: uuid.New()},
		Kind:           entity.KindTable,
		BookerID:       uuid.New(),
		ReceiverID:     uuid.New(),
		ServiceDate:    time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC),
		LineItems:      entity.LineItems{TableRefs: []string{"A1"}},
		ScheduleStatus: schedule,
		PaymentStatus:  entity.PaymentPaid,
		ReviewStatus:   entity.ReviewNotReviewed,
		Deposit:        50000,
		Total:          50000,
	}
}

func withActor(r *http.Request, id uuid.UUID, role entity.UserRole) *http.Request {
	return r.WithContext(utils.SetUserContext(r.Context(), id, string(role)))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func bookingRouter(svc usecase.BookingService) http.Handler {
	h := NewBookingHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Post("/api/bookings/{id}/confirm", h.Confirm)
	r.Get("/api/receivers/{receiverId}/bookings", h.ListByReceiver)
	return r
}

func TestHandleServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid input", apperror.New(apperror.KindInvalidInput, "bad"), http.StatusBadRequest},
		{"not found", apperror.New(apperror.KindNotFound, "missing"), http.StatusNotFound},
		{"forbidden", apperror.New(apperror.KindForbidden, "nope"), http.StatusForbidden},
		{"invalid transition", apperror.New(apperror.KindInvalidTransition, "no"), http.StatusConflict},
		{"precondition", apperror.New(apperror.KindPreconditionFailed, "unpaid"), http.StatusPreconditionFailed},
		{"refund prerequisite", apperror.New(apperror.KindRefundPrerequisiteMissing, "payout"), http.StatusPreconditionRequired},
		{"wrapped", errors.Join(errors.New("ctx"), apperror.New(apperror.KindNotFound, "x")), http.StatusNotFound},
		{"unclassified", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, zap.NewNop(), tc.err, "test")

			assert.Equal(t, tc.code, rec.Code)
			body := decode(t, rec)
			assert.False(t, body.Status)
		})
	}
}

func TestHandleServiceErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, zap.NewNop(), errors.New("pq: password authentication failed"), "test")

	body := decode(t, rec)
	assert.Equal(t, "Internal server error", body.Message)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestConfirmRequiresAuthentication(t *testing.T) {
	svc := &stubBookingService{}
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/"+uuid.NewString()+"/confirm", nil)
	rec := httptest.NewRecorder()

	bookingRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConfirmRejectsMalformedID(t *testing.T) {
	svc := &stubBookingService{}
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/bookings/not-a-uuid/confirm", nil), uuid.New(), entity.RoleVenue)
	rec := httptest.NewRecorder()

	bookingRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmPassesActorAndReturnsBooking(t *testing.T) {
	actorID := uuid.New()
	booking := sampleBooking(entity.ScheduleConfirmed)

	var got usecase.Actor
	svc := &stubBookingService{
		confirm: func(_ context.Context, actor usecase.Actor, id uuid.UUID) (*entity.Booking, error) {
			got = actor
			assert.Equal(t, booking.ID, id)
			return booking, nil
		},
	}

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/bookings/"+booking.ID.String()+"/confirm", nil), actorID, entity.RoleVenue)
	rec := httptest.NewRecorder()
	bookingRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, actorID, got.ID)
	assert.Equal(t, entity.RoleVenue, got.Role)

	var data map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, booking.ID.String(), data["id"])
	assert.Equal(t, string(entity.ScheduleConfirmed), data["schedule_status"])
}

func TestConfirmMapsPreconditionFailed(t *testing.T) {
	svc := &stubBookingService{
		confirm: func(context.Context, usecase.Actor, uuid.UUID) (*entity.Booking, error) {
			return nil, apperror.New(apperror.KindPreconditionFailed, "deposit has not been paid")
		},
	}

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/bookings/"+uuid.NewString()+"/confirm", nil), uuid.New(), entity.RoleVenue)
	rec := httptest.NewRecorder()
	bookingRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Contains(t, decode(t, rec).Message, "deposit has not been paid")
}

func TestRedeemAlreadyRedeemedReturnsCurrentBooking(t *testing.T) {
	ended := sampleBooking(entity.ScheduleEnded)
	svc := &stubConfirmationService{
		redeem: func(context.Context, usecase.Actor, string) (*entity.Booking, error) {
			return ended, apperror.New(apperror.KindAlreadyRedeemed, "confirmation code was already used")
		},
	}
	h := NewConfirmationHandler(svc, zap.NewNop())

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/qr/redeem", strings.NewReader(`{"token":"abc"}`)), uuid.New(), entity.RoleVenue)
	rec := httptest.NewRecorder()
	h.Redeem(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var data map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, ended.ID.String(), data["id"])
	assert.Equal(t, string(entity.ScheduleEnded), data["schedule_status"])
}

func TestRedeemValidatesBody(t *testing.T) {
	h := NewConfirmationHandler(&stubConfirmationService{}, zap.NewNop())

	for _, body := range []string{`not json`, `{"token":""}`} {
		req := withActor(httptest.NewRequest(http.MethodPost, "/api/qr/redeem", strings.NewReader(body)), uuid.New(), entity.RoleVenue)
		rec := httptest.NewRecorder()
		h.Redeem(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestRedeemInvalidToken(t *testing.T) {
	svc := &stubConfirmationService{
		redeem: func(context.Context, usecase.Actor, string) (*entity.Booking, error) {
			return nil, apperror.New(apperror.KindInvalidToken, "confirmation code does not match")
		},
	}
	h := NewConfirmationHandler(svc, zap.NewNop())

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/qr/redeem", strings.NewReader(`{"token":"abc"}`)), uuid.New(), entity.RoleVenue)
	rec := httptest.NewRecorder()
	h.Redeem(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListByReceiverStatusFilter(t *testing.T) {
	venueID := uuid.New()
	var got repository.BookingFilter
	svc := &stubBookingService{
		listByReceiver: func(_ context.Context, _ usecase.Actor, _ uuid.UUID, filter repository.BookingFilter, _ *request.PaginatedRequest) ([]*entity.Booking, int64, error) {
			got = filter
			return []*entity.Booking{sampleBooking(entity.ScheduleConfirmed)}, 1, nil
		},
	}
	router := bookingRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/receivers/"+venueID.String()+"/bookings?status=Accepted", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withActor(req, venueID, entity.RoleVenue))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.ScheduleConfirmed, got.Status)

	req = httptest.NewRequest(http.MethodGet, "/api/receivers/"+venueID.String()+"/bookings?status=teleported", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withActor(req, venueID, entity.RoleVenue))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueTokenReturnsImageOfTheSameToken(t *testing.T) {
	b := sampleBooking(entity.ScheduleConfirmed)
	calls := 0
	svc := &stubConfirmationService{
		issue: func(context.Context, usecase.Actor, uuid.UUID) (*usecase.IssuedToken, error) {
			calls++
			return &usecase.IssuedToken{Booking: b, Token: `{"type":"booking_confirmation"}`, IssuedAt: time.Now()}, nil
		},
	}
	h := NewConfirmationHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Post("/api/bookings/{id}/qr", h.IssueToken)

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/bookings/"+b.ID.String()+"/qr?size=128", nil), b.BookerID, entity.RoleCustomer)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, calls)

	var data struct {
		Token   string `json:"token"`
		QRImage string `json:"qr_image"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	png, err := base64.StdEncoding.DecodeString(data.QRImage)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(png), "\x89PNG"))
	assert.Equal(t, `{"type":"booking_confirmation"}`, data.Token)

	// a bad size is refused before anything is rotated
	req = withActor(httptest.NewRequest(http.MethodPost, "/api/bookings/"+b.ID.String()+"/qr?size=5000", nil), b.BookerID, entity.RoleCustomer)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestQRImageIsNotServedOnGet(t *testing.T) {
	h := NewConfirmationHandler(&stubConfirmationService{}, zap.NewNop())
	r := chi.NewRouter()
	r.Post("/api/bookings/{id}/qr", h.IssueToken)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/"+uuid.NewString()+"/qr", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
