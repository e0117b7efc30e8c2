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

type ReviewRepository interface {
	// CreateForBooking flips the booking to reviewed, stores the review and,
	// when refund is non-nil, the refund request, all in one transaction.
	// It returns false without writing anything unless the booking is still
	// reviewable at review.CreatedAt.
	CreateForBooking(ctx context.Context, review *entity.Review, refund *entity.RefundRequest) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Review, error)
	Update(ctx context.Context, review *entity.Review) error
}

type reviewRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReviewRepository(db database.PgxIface, log *zap.Logger) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: log.With(zap.String("repository", "review")),
	}
}

func (r *reviewRepository) CreateForBooking(ctx context.Context, review *entity.Review, refund *entity.RefundRequest) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin create review: %w", err)
	}
	defer tx.Rollback(ctx)

	// Same rule as Booking.CheckReview, re-evaluated at write time.
	flip := `
		UPDATE bookings
		SET review_status = $2, updated_at = NOW()
		WHERE id = $1
		  AND review_status = $3
		  AND (schedule_status = ANY($4)
		       OR (schedule_status = $5 AND (service_date::timestamp AT TIME ZONE 'UTC') < $6))
	`
	result, err := tx.Exec(ctx, flip,
		review.BookingID,
		entity.ReviewReviewed,
		entity.ReviewNotReviewed,
		[]string{string(entity.ScheduleEnded), string(entity.ScheduleCompleted)},
		entity.ScheduleConfirmed,
		review.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to mark booking reviewed",
			zap.Error(err),
			zap.String("booking_id", review.BookingID.String()),
		)
		return false, fmt.Errorf("mark booking %s reviewed: %w", review.BookingID.String(), err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	if err := insertStatusChange(ctx, tx, review.BookingID, review.BookerID, entity.DimensionReview,
		string(entity.ReviewNotReviewed), string(entity.ReviewReviewed)); err != nil {
		return false, err
	}

	insert := `
		INSERT INTO reviews (id, booking_id, booker_id, receiver_id, rating, comment, evidence_images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, insert,
		review.ID,
		review.BookingID,
		review.BookerID,
		review.ReceiverID,
		review.Rating,
		review.Comment,
		review.EvidenceImages,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("booking_id", review.BookingID.String()),
			zap.String("booker_id", review.BookerID.String()),
		)
		return false, fmt.Errorf("create review for booking %s: %w", review.BookingID.String(), err)
	}

	if refund != nil {
		if err := insertRefund(ctx, tx, refund); err != nil {
			r.log.Error("Failed to create refund request",
				zap.Error(err),
				zap.String("booking_id", refund.BookingID.String()),
			)
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit review for booking %s: %w", review.BookingID.String(), err)
	}

	return true, nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	query := `
		SELECT id, booking_id, booker_id, receiver_id, rating, comment, evidence_images, created_at, updated_at
		FROM reviews
		WHERE id = $1
	`

	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review by ID",
			zap.Error(err),
			zap.String("review_id", id.String()),
		)
		return nil, fmt.Errorf("find review by ID %s: %w", id.String(), err)
	}

	return review, nil
}

func (r *reviewRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Review, error) {
	query := `
		SELECT id, booking_id, booker_id, receiver_id, rating, comment, evidence_images, created_at, updated_at
		FROM reviews
		WHERE booking_id = $1
	`

	review, err := scanReview(r.db.QueryRow(ctx, query, bookingID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find review by booking ID %s: %w", bookingID.String(), err)
	}

	return review, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	query := `
		UPDATE reviews
		SET rating = $2, comment = $3, evidence_images = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		review.ID,
		review.Rating,
		review.Comment,
		review.EvidenceImages,
		review.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update review",
			zap.Error(err),
			zap.String("review_id", review.ID.String()),
		)
		return fmt.Errorf("update review %s: %w", review.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %s not found", review.ID.String())
	}

	return nil
}

func scanReview(row pgx.Row) (*entity.Review, error) {
	var review entity.Review
	err := row.Scan(
		&review.ID,
		&review.BookingID,
		&review.BookerID,
		&review.ReceiverID,
		&review.Rating,
		&review.Comment,
		&review.EvidenceImages,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}
