package usecase

import (
	"context"
	"slices"
	"sync"
	"time"

	"venue-booking/internal/data/entity"
	"venue-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// store backs every fake repository so cross-table writes stay consistent.
type store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	bookings map[uuid.UUID]entity.Booking
	history  []entity.StatusChange
	reviews  map[uuid.UUID]entity.Review
	refunds  []entity.RefundRequest
	payouts  map[uuid.UUID]entity.PayoutAccount

	// beforeApply runs inside ApplyTransition before the condition is checked.
	beforeApply func(b *entity.Booking)
}

func newStore() *store {
	return &store{
		users:    map[uuid.UUID]*entity.User{},
		bookings: map[uuid.UUID]entity.Booking{},
		reviews:  map[uuid.UUID]entity.Review{},
		payouts:  map[uuid.UUID]entity.PayoutAccount{},
	}
}

func (s *store) record(bookingID, actorID uuid.UUID, dimension, from, to string) {
	s.history = append(s.history, entity.StatusChange{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		BookingID:  bookingID,
		Dimension:  dimension,
		FromState:  from,
		ToState:    to,
		ActorID:    actorID,
	})
}

func (s *store) historyFor(bookingID uuid.UUID, dimension string) []entity.StatusChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.StatusChange
	for _, h := range s.history {
		if h.BookingID == bookingID && h.Dimension == dimension {
			out = append(out, h)
		}
	}
	return out
}

func (s *store) repository() *repository.Repository {
	return &repository.Repository{
		User:    &fakeUserRepo{s},
		Booking: &fakeBookingRepo{s},
		Review:  &fakeReviewRepo{s},
		Refund:  &fakeRefundRepo{s},
		Payout:  &fakePayoutRepo{s},
	}
}

type fakeUserRepo struct{ s *store }

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

type fakeBookingRepo struct{ s *store }

func (r *fakeBookingRepo) Create(_ context.Context, b *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.bookings[b.ID] = *b
	r.s.record(b.ID, b.BookerID, entity.DimensionSchedule, "", string(b.ScheduleStatus))
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *fakeBookingRepo) filter(match func(entity.Booking) bool, limit, offset int) []*entity.Booking {
	var out []*entity.Booking
	for _, b := range r.s.bookings {
		if match(b) {
			c := b
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *entity.Booking) int { return a.ServiceDate.Compare(b.ServiceDate) })
	if offset >= len(out) {
		return nil
	}
	return out[offset:min(len(out), offset+limit)]
}

func (r *fakeBookingRepo) FindByBookerID(_ context.Context, bookerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(b entity.Booking) bool { return b.BookerID == bookerID }, limit, offset), nil
}

func (r *fakeBookingRepo) CountByBookerID(ctx context.Context, bookerID uuid.UUID) (int64, error) {
	all, _ := r.FindByBookerID(ctx, bookerID, 1<<30, 0)
	return int64(len(all)), nil
}

func inRange(b entity.Booking, f repository.BookingFilter) bool {
	if f.From != nil && b.ServiceDate.Before(*f.From) {
		return false
	}
	if f.To != nil && b.ServiceDate.After(*f.To) {
		return false
	}
	if f.Status != "" && b.ScheduleStatus != f.Status {
		return false
	}
	return true
}

func (r *fakeBookingRepo) FindByReceiverID(_ context.Context, receiverID uuid.UUID, f repository.BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(b entity.Booking) bool { return b.ReceiverID == receiverID && inRange(b, f) }, limit, offset), nil
}

func (r *fakeBookingRepo) CountByReceiverID(ctx context.Context, receiverID uuid.UUID, f repository.BookingFilter) (int64, error) {
	all, _ := r.FindByReceiverID(ctx, receiverID, f, 1<<30, 0)
	return int64(len(all)), nil
}

func (r *fakeBookingRepo) ApplyTransition(_ context.Context, t repository.Transition) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[t.BookingID]
	if !ok {
		return nil, nil
	}
	if r.s.beforeApply != nil {
		r.s.beforeApply(&b)
		r.s.bookings[b.ID] = b
		r.s.beforeApply = nil
	}

	if len(t.RequireSchedule) > 0 && !slices.Contains(t.RequireSchedule, b.ScheduleStatus) {
		return nil, nil
	}
	if t.RequirePayment != "" && b.PaymentStatus != t.RequirePayment {
		return nil, nil
	}
	if t.RequireKind != "" && b.Kind != t.RequireKind {
		return nil, nil
	}

	if t.SetSchedule != "" && t.SetSchedule != b.ScheduleStatus {
		r.s.record(b.ID, t.ActorID, entity.DimensionSchedule, string(b.ScheduleStatus), string(t.SetSchedule))
		b.ScheduleStatus = t.SetSchedule
	}
	if t.SetPayment != "" && t.SetPayment != b.PaymentStatus {
		r.s.record(b.ID, t.ActorID, entity.DimensionPayment, string(b.PaymentStatus), string(t.SetPayment))
		b.PaymentStatus = t.SetPayment
	}
	if t.MarkRedeemed {
		now := time.Now()
		b.ConfirmationRedeemedAt = &now
	}
	b.UpdatedAt = time.Now()
	r.s.bookings[b.ID] = b

	return &b, nil
}

func (r *fakeBookingRepo) SetConfirmationToken(_ context.Context, id uuid.UUID, hash string, issuedAt time.Time) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok || b.ScheduleStatus != entity.ScheduleConfirmed {
		return nil, nil
	}
	b.ConfirmationTokenHash = &hash
	b.ConfirmationIssuedAt = &issuedAt
	r.s.bookings[id] = b
	return &b, nil
}

func (r *fakeBookingRepo) FindHistory(_ context.Context, id uuid.UUID) ([]*entity.StatusChange, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StatusChange
	for _, h := range r.s.history {
		if h.BookingID == id {
			c := h
			out = append(out, &c)
		}
	}
	return out, nil
}

type fakeReviewRepo struct{ s *store }

func (r *fakeReviewRepo) CreateForBooking(_ context.Context, review *entity.Review, refund *entity.RefundRequest) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[review.BookingID]
	if !ok || b.CheckReview(review.CreatedAt) != nil {
		return false, nil
	}
	b.ReviewStatus = entity.ReviewReviewed
	r.s.bookings[b.ID] = b
	r.s.record(b.ID, review.BookerID, entity.DimensionReview, string(entity.ReviewNotReviewed), string(entity.ReviewReviewed))
	r.s.reviews[review.ID] = *review
	if refund != nil {
		r.s.refunds = append(r.s.refunds, *refund)
	}
	return true, nil
}

func (r *fakeReviewRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, nil
	}
	return &rv, nil
}

func (r *fakeReviewRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rv := range r.s.reviews {
		if rv.BookingID == bookingID {
			return &rv, nil
		}
	}
	return nil, nil
}

func (r *fakeReviewRepo) Update(_ context.Context, review *entity.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.reviews[review.ID] = *review
	return nil
}

// interleavedReviewRepo runs before once, outside the store lock, ahead of
// the next CreateForBooking. It stands in for a write that commits between
// the service's read and its own write.
type interleavedReviewRepo struct {
	repository.ReviewRepository
	before func()
}

func (r *interleavedReviewRepo) CreateForBooking(ctx context.Context, review *entity.Review, refund *entity.RefundRequest) (bool, error) {
	if r.before != nil {
		before := r.before
		r.before = nil
		before()
	}
	return r.ReviewRepository.CreateForBooking(ctx, review, refund)
}

type fakeRefundRepo struct{ s *store }

func (r *fakeRefundRepo) CreateIfNoneOutstanding(_ context.Context, refund *entity.RefundRequest) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.refunds {
		if existing.BookingID == refund.BookingID && existing.Status == entity.RefundPending {
			return false, nil
		}
	}
	r.s.refunds = append(r.s.refunds, *refund)
	return true, nil
}

func (r *fakeRefundRepo) FindOutstandingByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.RefundRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.refunds {
		if existing.BookingID == bookingID && existing.Status == entity.RefundPending {
			return &existing, nil
		}
	}
	return nil, nil
}

type fakePayoutRepo struct{ s *store }

func (r *fakePayoutRepo) Upsert(_ context.Context, account *entity.PayoutAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.payouts[account.UserID] = *account
	return nil
}

func (r *fakePayoutRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.PayoutAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.payouts[userID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

type published struct {
	key     string
	payload any
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []published
}

func (p *fakePublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{key: key, payload: v})
	return nil
}

func (p *fakePublisher) byKey(key string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for _, m := range p.messages {
		if m.key == key {
			out = append(out, m.payload)
		}
	}
	return out
}

// fixture wires every service against one in-memory store.
type fixture struct {
	store  *store
	events *fakePublisher
	clock  time.Time
	repo   *repository.Repository
	svc    *Service

	customer  Actor
	venue     Actor
	performer Actor
	stranger  Actor
	admin     Actor
}

var testNow = time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		store:  newStore(),
		events: &fakePublisher{},
		clock:  testNow,
	}

	quote := int64(500_000)
	f.customer = f.addUser(entity.RoleCustomer, nil)
	f.venue = f.addUser(entity.RoleVenue, nil)
	f.performer = f.addUser(entity.RolePerformer, &quote)
	f.stranger = f.addUser(entity.RoleCustomer, nil)
	f.admin = f.addUser(entity.RoleAdmin, nil)

	log := zap.NewNop()
	f.repo = f.store.repository()
	e := &engine{
		repo:   f.repo,
		events: &notifier{pub: f.events, timeout: time.Second, log: log},
		now:    func() time.Time { return f.clock },
		log:    log,
	}
	f.svc = &Service{
		Booking:      NewBookingService(e, log),
		Confirmation: NewConfirmationService(e, bcrypt.MinCost, log),
		Review:       NewReviewService(e, log),
		Payout:       NewPayoutService(e, log),
	}
	return f
}

func (f *fixture) addUser(role entity.UserRole, quote *int64) Actor {
	id := uuid.New()
	f.store.users[id] = &entity.User{
		Base:        entity.Base{ID: id},
		Username:    string(role) + "-" + id.String()[:8],
		Role:        role,
		IsActive:    true,
		QuotedPrice: quote,
	}
	return Actor{ID: id, Role: role}
}
