// internal/wire/wire.go
package wire

import (
	"net/http"

	"venue-booking/internal/adaptor"
	"venue-booking/internal/data/repository"
	"venue-booking/internal/usecase"
	"venue-booking/pkg/middleware"
	"venue-booking/pkg/ratelimit"
	"venue-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the wired HTTP surface
type App struct {
	Router *chi.Mux
}

// Wiring builds services, handlers and routes. limiter may be nil when
// Redis is not configured.
func Wiring(
	repo *repository.Repository,
	config *utils.Config,
	events usecase.EventPublisher,
	limiter *ratelimit.RateLimiter,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, config, events, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, limiter, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	limiter *ratelimit.RateLimiter,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	wireBooking(r, handler.Booking, repo, limiter, logger)
	wireConfirmation(r, handler.Confirmation, repo, limiter, logger)
	wireReview(r, handler.Review, repo, limiter, logger)
	wirePayout(r, handler.Payout, repo, limiter, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
