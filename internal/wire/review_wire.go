package wire

import (
	"venue-booking/internal/adaptor"
	"venue-booking/internal/data/repository"
	"venue-booking/pkg/middleware"
	"venue-booking/pkg/ratelimit"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReview(
	r chi.Router,
	reviewHandler *adaptor.ReviewHandler,
	repo *repository.Repository,
	limiter *ratelimit.RateLimiter,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(ratelimit.Middleware(limiter, ratelimit.LimitTypeDefault, log))

		// POST /api/reviews - Review a finished booking, optionally asking for a refund
		r.Post("/api/reviews", reviewHandler.SubmitReview)

		// PUT /api/reviews/{id} - Edit rating, comment or evidence (author only)
		r.Put("/api/reviews/{id}", reviewHandler.UpdateReview)

		// POST /api/bookings/{id}/refund - Deferred refund once payout details exist
		r.Post("/api/bookings/{id}/refund", reviewHandler.RequestRefund)
	})
}
