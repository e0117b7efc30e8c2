package usecase

import (
	"context"
	"fmt"
	"time"

	"venue-booking/internal/data/entity"
	"venue-booking/internal/dto/request"
	"venue-booking/pkg/apperror"
	"venue-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewResult is a stored review and the refund request filed with it, if any.
type ReviewResult struct {
	Review *entity.Review
	Refund *entity.RefundRequest
}

type ReviewService interface {
	SubmitReview(ctx context.Context, actor Actor, req *request.CreateReviewRequest) (*ReviewResult, error)
	UpdateReview(ctx context.Context, actor Actor, reviewID uuid.UUID, req *request.UpdateReviewRequest) (*ReviewResult, error)
	// RequestRefund files a refund for an already reviewed booking, typically
	// after the booker added payout details.
	RequestRefund(ctx context.Context, actor Actor, bookingID uuid.UUID) (*entity.RefundRequest, error)
}

type reviewService struct {
	*engine
	log *zap.Logger
}

func NewReviewService(e *engine, log *zap.Logger) ReviewService {
	return &reviewService{
		engine: e,
		log:    log.With(zap.String("service", "review")),
	}
}

func (s *reviewService) SubmitReview(ctx context.Context, actor Actor, req *request.CreateReviewRequest) (*ReviewResult, error) {
	if req.Rating < entity.MinRating || req.Rating > entity.MaxRating {
		return nil, apperror.Newf(apperror.KindInvalidInput, "rating must be between %d and %d", entity.MinRating, entity.MaxRating)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Submit review validation failed", zap.Any("errors", errs))
		return nil, apperror.Newf(apperror.KindInvalidInput, "validation failed: %s", utils.FormatValidationErrors(errs))
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidInput, "invalid booking ID", err)
	}

	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeBooker(actor, booking); err != nil {
		return nil, err
	}

	now := s.now()
	if err := booking.CheckReview(now); err != nil {
		return nil, err
	}

	// payout details come first so a refund never waits on a missing destination
	if req.RequestRefund {
		if err := s.requirePayoutAccount(ctx, actor.ID); err != nil {
			return nil, err
		}
	}

	review := &entity.Review{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingID:      booking.ID,
		BookerID:       booking.BookerID,
		ReceiverID:     booking.ReceiverID,
		Rating:         req.Rating,
		Comment:        req.Comment,
		EvidenceImages: req.EvidenceImages,
	}

	var refund *entity.RefundRequest
	if req.RequestRefund {
		refund = newRefund(booking, review.ID, now)
	}

	created, err := s.repo.Review.CreateForBooking(ctx, review, refund)
	if err != nil {
		return nil, fmt.Errorf("submit review: %w", err)
	}
	if !created {
		current, err := s.load(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		if err := current.CheckReview(now); err != nil {
			return nil, err
		}
		return nil, apperror.Newf(apperror.KindInvalidTransition, "booking %s changed while submitting a review", booking.ID.String())
	}

	s.log.Info("Review submitted",
		zap.String("review_id", review.ID.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.Int("rating", review.Rating),
		zap.Bool("refund_requested", refund != nil),
	)

	s.events.publish(ctx, EventReviewSubmitted, ReviewEvent{
		ReviewID:   review.ID,
		BookingID:  booking.ID,
		ReceiverID: booking.ReceiverID,
		Rating:     review.Rating,
		OccurredAt: now,
	})
	if refund != nil {
		s.events.publish(ctx, EventRefundRequested, newRefundEvent(refund))
	}

	return &ReviewResult{Review: review, Refund: refund}, nil
}

// UpdateReview edits the review text and rating. The result carries the
// booking's pending refund, if any, so clients see it next to the edit.
func (s *reviewService) UpdateReview(ctx context.Context, actor Actor, reviewID uuid.UUID, req *request.UpdateReviewRequest) (*ReviewResult, error) {
	if req.Rating != nil && (*req.Rating < entity.MinRating || *req.Rating > entity.MaxRating) {
		return nil, apperror.Newf(apperror.KindInvalidInput, "rating must be between %d and %d", entity.MinRating, entity.MaxRating)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update review validation failed", zap.Any("errors", errs))
		return nil, apperror.Newf(apperror.KindInvalidInput, "validation failed: %s", utils.FormatValidationErrors(errs))
	}

	review, err := s.repo.Review.FindByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("load review %s: %w", reviewID.String(), err)
	}
	if review == nil {
		return nil, apperror.Newf(apperror.KindNotFound, "review %s not found", reviewID.String())
	}
	if review.BookerID != actor.ID {
		return nil, apperror.New(apperror.KindForbidden, "only the author can edit a review")
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = req.Comment
	}
	if req.EvidenceImages != nil {
		review.EvidenceImages = req.EvidenceImages
	}
	review.UpdatedAt = s.now()

	if err := s.repo.Review.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	refund, err := s.repo.Refund.FindOutstandingByBookingID(ctx, review.BookingID)
	if err != nil {
		return nil, fmt.Errorf("load refund for booking %s: %w", review.BookingID.String(), err)
	}

	return &ReviewResult{Review: review, Refund: refund}, nil
}

func (s *reviewService) RequestRefund(ctx context.Context, actor Actor, bookingID uuid.UUID) (*entity.RefundRequest, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeBooker(actor, booking); err != nil {
		return nil, err
	}
	if booking.ReviewStatus != entity.ReviewReviewed {
		return nil, apperror.New(apperror.KindInvalidTransition, "a refund is requested with or after a review")
	}
	if err := s.requirePayoutAccount(ctx, actor.ID); err != nil {
		return nil, err
	}

	review, err := s.repo.Review.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load review for booking %s: %w", bookingID.String(), err)
	}
	if review == nil {
		return nil, apperror.Newf(apperror.KindNotFound, "review for booking %s not found", bookingID.String())
	}

	refund := newRefund(booking, review.ID, s.now())
	created, err := s.repo.Refund.CreateIfNoneOutstanding(ctx, refund)
	if err != nil {
		return nil, fmt.Errorf("request refund: %w", err)
	}
	if !created {
		return nil, apperror.New(apperror.KindInvalidTransition, "a refund request for this booking is already outstanding")
	}

	s.log.Info("Refund requested",
		zap.String("refund_id", refund.ID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.Int64("amount", refund.Amount),
	)
	s.events.publish(ctx, EventRefundRequested, newRefundEvent(refund))

	return refund, nil
}

func (s *reviewService) requirePayoutAccount(ctx context.Context, userID uuid.UUID) error {
	account, err := s.repo.Payout.FindByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load payout account: %w", err)
	}
	if account == nil {
		return apperror.New(apperror.KindRefundPrerequisiteMissing, "add payout account details before requesting a refund")
	}
	return nil
}

// newRefund returns the deposit, the only money collected before service.
func newRefund(b *entity.Booking, reviewID uuid.UUID, now time.Time) *entity.RefundRequest {
	return &entity.RefundRequest{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingID: b.ID,
		ReviewID:  reviewID,
		BookerID:  b.BookerID,
		Amount:    b.Deposit,
		Status:    entity.RefundPending,
	}
}

func newRefundEvent(r *entity.RefundRequest) RefundEvent {
	return RefundEvent{
		RefundID:   r.ID,
		BookingID:  r.BookingID,
		BookerID:   r.BookerID,
		Amount:     r.Amount,
		OccurredAt: r.CreatedAt,
	}
}
