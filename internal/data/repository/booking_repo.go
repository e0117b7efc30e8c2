package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"venue-booking/internal/data/entity"
	"venue-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Transition describes one conditional update of a booking. The update only
// applies when every Require* condition still holds at write time; otherwise
// nothing is written and ApplyTransition returns (nil, nil).
type Transition struct {
	BookingID uuid.UUID
	ActorID   uuid.UUID

	RequireSchedule []entity.ScheduleStatus
	RequirePayment  entity.PaymentStatus
	RequireKind     entity.BookingKind

	SetSchedule  entity.ScheduleStatus
	SetPayment   entity.PaymentStatus
	MarkRedeemed bool
}

// BookingFilter narrows receiver listings to a service date range and,
// optionally, one schedule state.
type BookingFilter struct {
	From   *time.Time
	To     *time.Time
	Status entity.ScheduleStatus
}

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByBookerID(ctx context.Context, bookerID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByBookerID(ctx context.Context, bookerID uuid.UUID) (int64, error)
	FindByReceiverID(ctx context.Context, receiverID uuid.UUID, filter BookingFilter, limit, offset int) ([]*entity.Booking, error)
	CountByReceiverID(ctx context.Context, receiverID uuid.UUID, filter BookingFilter) (int64, error)

	// Business queries
	ApplyTransition(ctx context.Context, t Transition) (*entity.Booking, error)
	SetConfirmationToken(ctx context.Context, bookingID uuid.UUID, tokenHash string, issuedAt time.Time) (*entity.Booking, error)
	FindHistory(ctx context.Context, bookingID uuid.UUID) ([]*entity.StatusChange, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

var bookingColumns = []string{
	"id", "kind", "booker_id", "receiver_id", "service_date",
	"table_refs", "slot_indices", "location", "contact_phone",
	"schedule_status", "payment_status", "review_status",
	"quoted_price", "deposit", "total",
	"confirmation_token_hash", "confirmation_issued_at", "confirmation_redeemed_at",
	"note", "created_at", "updated_at",
}

func bookingSelect(prefix string) string {
	cols := make([]string, len(bookingColumns))
	for i, c := range bookingColumns {
		cols[i] = prefix + c
	}
	return strings.Join(cols, ", ")
}

// bookingRow holds a scanned booking whose status columns are still raw text.
type bookingRow struct {
	entity.Booking
	schedule, payment, review string
}

func (row *bookingRow) targets() []any {
	b := &row.Booking
	return []any{
		&b.ID, &b.Kind, &b.BookerID, &b.ReceiverID, &b.ServiceDate,
		&b.TableRefs, &b.SlotIndices, &b.Location, &b.ContactPhone,
		&row.schedule, &row.payment, &row.review,
		&b.QuotedPrice, &b.Deposit, &b.Total,
		&b.ConfirmationTokenHash, &b.ConfirmationIssuedAt, &b.ConfirmationRedeemedAt,
		&b.Note, &b.CreatedAt, &b.UpdatedAt,
	}
}

// booking folds the stored status spellings into canonical values.
func (row *bookingRow) booking() (*entity.Booking, error) {
	var err error
	b := row.Booking
	if b.ScheduleStatus, err = entity.ParseScheduleStatus(row.schedule); err != nil {
		return nil, fmt.Errorf("booking %s: %w", b.ID.String(), err)
	}
	if b.PaymentStatus, err = entity.ParsePaymentStatus(row.payment); err != nil {
		return nil, fmt.Errorf("booking %s: %w", b.ID.String(), err)
	}
	if b.ReviewStatus, err = entity.ParseReviewStatus(row.review); err != nil {
		return nil, fmt.Errorf("booking %s: %w", b.ID.String(), err)
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create booking: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO bookings (id, kind, booker_id, receiver_id, service_date,
		                      table_refs, slot_indices, location, contact_phone,
		                      schedule_status, payment_status, review_status,
		                      quoted_price, deposit, total, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = tx.Exec(ctx, query,
		booking.ID,
		booking.Kind,
		booking.BookerID,
		booking.ReceiverID,
		booking.ServiceDate,
		booking.TableRefs,
		booking.SlotIndices,
		booking.Location,
		booking.ContactPhone,
		booking.ScheduleStatus,
		booking.PaymentStatus,
		booking.ReviewStatus,
		booking.QuotedPrice,
		booking.Deposit,
		booking.Total,
		booking.Note,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("booker_id", booking.BookerID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.ID.String(), err)
	}

	if err := insertStatusChange(ctx, tx, booking.ID, booking.BookerID,
		entity.DimensionSchedule, "", string(booking.ScheduleStatus)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create booking %s: %w", booking.ID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingSelect("") + ` FROM bookings WHERE id = $1`

	var row bookingRow
	err := r.db.QueryRow(ctx, query, id).Scan(row.targets()...)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return row.booking()
}

func (r *bookingRepository) FindByBookerID(ctx context.Context, bookerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingSelect("") + `
		FROM bookings
		WHERE booker_id = $1
		ORDER BY service_date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, bookerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by booker ID",
			zap.Error(err),
			zap.String("booker_id", bookerID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by booker ID %s: %w", bookerID.String(), err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountByBookerID(ctx context.Context, bookerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE booker_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, bookerID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by booker ID",
			zap.Error(err),
			zap.String("booker_id", bookerID.String()),
		)
		return 0, fmt.Errorf("count bookings by booker ID %s: %w", bookerID.String(), err)
	}

	return count, nil
}

func receiverWhere(receiverID uuid.UUID, filter BookingFilter) (string, []any) {
	where := []string{"receiver_id = $1"}
	args := []any{receiverID}

	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("service_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("service_date <= $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("schedule_status = $%d", len(args)))
	}

	return strings.Join(where, " AND "), args
}

func (r *bookingRepository) FindByReceiverID(ctx context.Context, receiverID uuid.UUID, filter BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	where, args := receiverWhere(receiverID, filter)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE %s
		ORDER BY service_date, created_at
		LIMIT $%d OFFSET $%d
	`, bookingSelect(""), where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find bookings by receiver ID",
			zap.Error(err),
			zap.String("receiver_id", receiverID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by receiver ID %s: %w", receiverID.String(), err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountByReceiverID(ctx context.Context, receiverID uuid.UUID, filter BookingFilter) (int64, error) {
	where, args := receiverWhere(receiverID, filter)
	query := `SELECT COUNT(*) FROM bookings WHERE ` + where

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by receiver ID",
			zap.Error(err),
			zap.String("receiver_id", receiverID.String()),
		)
		return 0, fmt.Errorf("count bookings by receiver ID %s: %w", receiverID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) collect(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		var row bookingRow
		if err := rows.Scan(row.targets()...); err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		booking, err := row.booking()
		if err != nil {
			r.log.Error("Failed to read booking row", zap.Error(err))
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

// ApplyTransition runs the conditional update and the history insert in one
// transaction. The previous state is read under FOR UPDATE in the same
// statement so concurrent callers serialize on the row.
func (r *bookingRepository) ApplyTransition(ctx context.Context, t Transition) (*entity.Booking, error) {
	set := []string{"updated_at = NOW()"}
	where := []string{"b.id = p.id"}
	args := []any{t.BookingID}

	if t.SetSchedule != "" {
		args = append(args, t.SetSchedule)
		set = append(set, fmt.Sprintf("schedule_status = $%d", len(args)))
	}
	if t.SetPayment != "" {
		args = append(args, t.SetPayment)
		set = append(set, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if t.MarkRedeemed {
		set = append(set, "confirmation_redeemed_at = NOW()")
	}
	if len(t.RequireSchedule) > 0 {
		states := make([]string, len(t.RequireSchedule))
		for i, s := range t.RequireSchedule {
			states[i] = string(s)
		}
		args = append(args, states)
		where = append(where, fmt.Sprintf("b.schedule_status = ANY($%d)", len(args)))
	}
	if t.RequirePayment != "" {
		args = append(args, t.RequirePayment)
		where = append(where, fmt.Sprintf("b.payment_status = $%d", len(args)))
	}
	if t.RequireKind != "" {
		args = append(args, t.RequireKind)
		where = append(where, fmt.Sprintf("b.kind = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		UPDATE bookings b
		SET %s
		FROM (
			SELECT id, schedule_status AS prev_schedule, payment_status AS prev_payment
			FROM bookings
			WHERE id = $1
			FOR UPDATE
		) p
		WHERE %s
		RETURNING p.prev_schedule, p.prev_payment, %s
	`, strings.Join(set, ", "), strings.Join(where, " AND "), bookingSelect("b."))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin booking transition: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		row                   bookingRow
		prevSchedule, prevPay string
	)
	targets := append([]any{&prevSchedule, &prevPay}, row.targets()...)

	err = tx.QueryRow(ctx, query, args...).Scan(targets...)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to apply booking transition",
			zap.Error(err),
			zap.String("booking_id", t.BookingID.String()),
			zap.String("to_schedule", string(t.SetSchedule)),
			zap.String("to_payment", string(t.SetPayment)),
		)
		return nil, fmt.Errorf("apply transition to booking %s: %w", t.BookingID.String(), err)
	}

	booking, err := row.booking()
	if err != nil {
		return nil, err
	}
	fromSchedule, err := entity.ParseScheduleStatus(prevSchedule)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", booking.ID.String(), err)
	}
	fromPayment, err := entity.ParsePaymentStatus(prevPay)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", booking.ID.String(), err)
	}

	if t.SetSchedule != "" && t.SetSchedule != fromSchedule {
		if err := insertStatusChange(ctx, tx, booking.ID, t.ActorID,
			entity.DimensionSchedule, string(fromSchedule), string(t.SetSchedule)); err != nil {
			return nil, err
		}
	}
	if t.SetPayment != "" && t.SetPayment != fromPayment {
		if err := insertStatusChange(ctx, tx, booking.ID, t.ActorID,
			entity.DimensionPayment, string(fromPayment), string(t.SetPayment)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition for booking %s: %w", t.BookingID.String(), err)
	}

	return booking, nil
}

// SetConfirmationToken replaces the stored token hash. Only confirmed bookings
// accept a token; (nil, nil) means the booking is no longer confirmed.
func (r *bookingRepository) SetConfirmationToken(ctx context.Context, bookingID uuid.UUID, tokenHash string, issuedAt time.Time) (*entity.Booking, error) {
	query := `
		UPDATE bookings
		SET confirmation_token_hash = $2, confirmation_issued_at = $3, updated_at = NOW()
		WHERE id = $1 AND schedule_status = $4
		RETURNING ` + bookingSelect("")

	var row bookingRow
	err := r.db.QueryRow(ctx, query, bookingID, tokenHash, issuedAt, entity.ScheduleConfirmed).
		Scan(row.targets()...)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to set confirmation token",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("set confirmation token for booking %s: %w", bookingID.String(), err)
	}

	return row.booking()
}

func (r *bookingRepository) FindHistory(ctx context.Context, bookingID uuid.UUID) ([]*entity.StatusChange, error) {
	query := `
		SELECT id, booking_id, dimension, from_state, to_state, actor_id, created_at
		FROM booking_status_history
		WHERE booking_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find booking history",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find history for booking %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var changes []*entity.StatusChange
	for rows.Next() {
		var c entity.StatusChange
		if err := rows.Scan(&c.ID, &c.BookingID, &c.Dimension, &c.FromState, &c.ToState, &c.ActorID, &c.CreatedAt); err != nil {
			r.log.Error("Failed to scan history row", zap.Error(err))
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		changes = append(changes, &c)
	}

	return changes, rows.Err()
}

// insertStatusChange appends an audit row inside the caller's transaction.
func insertStatusChange(ctx context.Context, tx pgx.Tx, bookingID, actorID uuid.UUID, dimension, from, to string) error {
	query := `
		INSERT INTO booking_status_history (id, booking_id, dimension, from_state, to_state, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	if _, err := tx.Exec(ctx, query, uuid.New(), bookingID, dimension, from, to, actorID); err != nil {
		return fmt.Errorf("record %s change %s -> %s for booking %s: %w", dimension, from, to, bookingID.String(), err)
	}
	return nil
}
