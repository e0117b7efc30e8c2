package repository

import (
	"context"
	"fmt"

	"venue-booking/internal/data/entity"
	"venue-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RefundRepository interface {
	// CreateIfNoneOutstanding inserts the request unless the booking already
	// has a pending one. It returns false when nothing was inserted.
	CreateIfNoneOutstanding(ctx context.Context, refund *entity.RefundRequest) (bool, error)
	FindOutstandingByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.RefundRequest, error)
}

type refundRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRefundRepository(db database.PgxIface, log *zap.Logger) RefundRepository {
	return &refundRepository{
		db:  db,
		log: log.With(zap.String("repository", "refund")),
	}
}

func (r *refundRepository) CreateIfNoneOutstanding(ctx context.Context, refund *entity.RefundRequest) (bool, error) {
	query := `
		INSERT INTO refund_requests (id, booking_id, review_id, booker_id, amount, status, created_at, updated_at)
		SELECT $1::uuid, $2::uuid, $3::uuid, $4::uuid, $5::bigint, $6::text, $7::timestamptz, $8::timestamptz
		WHERE NOT EXISTS (
			SELECT 1 FROM refund_requests WHERE booking_id = $2::uuid AND status = $6::text
		)
		ON CONFLICT DO NOTHING
	`

	result, err := r.db.Exec(ctx, query,
		refund.ID,
		refund.BookingID,
		refund.ReviewID,
		refund.BookerID,
		refund.Amount,
		entity.RefundPending,
		refund.CreatedAt,
		refund.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create refund request",
			zap.Error(err),
			zap.String("booking_id", refund.BookingID.String()),
		)
		return false, fmt.Errorf("create refund request for booking %s: %w", refund.BookingID.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *refundRepository) FindOutstandingByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.RefundRequest, error) {
	query := `
		SELECT id, booking_id, review_id, booker_id, amount, status, created_at, updated_at
		FROM refund_requests
		WHERE booking_id = $1 AND status = $2
	`

	var refund entity.RefundRequest
	err := r.db.QueryRow(ctx, query, bookingID, entity.RefundPending).Scan(
		&refund.ID,
		&refund.BookingID,
		&refund.ReviewID,
		&refund.BookerID,
		&refund.Amount,
		&refund.Status,
		&refund.CreatedAt,
		&refund.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find outstanding refund",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find outstanding refund for booking %s: %w", bookingID.String(), err)
	}

	return &refund, nil
}

func insertRefund(ctx context.Context, tx pgx.Tx, refund *entity.RefundRequest) error {
	query := `
		INSERT INTO refund_requests (id, booking_id, review_id, booker_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(ctx, query,
		refund.ID,
		refund.BookingID,
		refund.ReviewID,
		refund.BookerID,
		refund.Amount,
		refund.Status,
		refund.CreatedAt,
		refund.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create refund request for booking %s: %w", refund.BookingID.String(), err)
	}
	return nil
}
