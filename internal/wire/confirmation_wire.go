package wire

import (
	"venue-booking/internal/adaptor"
	"venue-booking/internal/data/entity"
	"venue-booking/internal/data/repository"
	"venue-booking/pkg/middleware"
	"venue-booking/pkg/ratelimit"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireConfirmation(
	r chi.Router,
	confirmationHandler *adaptor.ConfirmationHandler,
	repo *repository.Repository,
	limiter *ratelimit.RateLimiter,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// Booker side: mint the arrival code
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(limiter, ratelimit.LimitTypeDefault, log))

			// POST /api/bookings/{id}/qr?size= - Issue (or rotate) the token, with its PNG
			r.Post("/api/bookings/{id}/qr", confirmationHandler.IssueToken)
		})

		// Venue side: scan at the door
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(log, string(entity.RoleVenue)))
			r.Use(ratelimit.Middleware(limiter, ratelimit.LimitTypeRedeem, log))

			// POST /api/qr/redeem - Mark the booking arrived
			r.Post("/api/qr/redeem", confirmationHandler.Redeem)
		})
	})
}
