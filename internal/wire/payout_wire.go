package wire

import (
	"venue-booking/internal/adaptor"
	"venue-booking/internal/data/repository"
	"venue-booking/pkg/middleware"
	"venue-booking/pkg/ratelimit"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayout(
	r chi.Router,
	payoutHandler *adaptor.PayoutHandler,
	repo *repository.Repository,
	limiter *ratelimit.RateLimiter,
	log *zap.Logger,
) {
	r.Route("/api/user/payout-account", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		r.Get("/", payoutHandler.GetAccount)
		r.With(ratelimit.Middleware(limiter, ratelimit.LimitTypeDefault, log)).Put("/", payoutHandler.UpsertAccount)
	})
}
