package wire

import (
	"venue-booking/internal/adaptor"
	"venue-booking/internal/data/repository"
	"venue-booking/pkg/middleware"
	"venue-booking/pkg/ratelimit"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	limiter *ratelimit.RateLimiter,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// ==================== READS ====================
		// GET /api/bookings/{id} - Booking detail (either party or admin)
		r.Get("/api/bookings/{id}", bookingHandler.GetByID)

		// GET /api/bookings/{id}/history - Status audit trail
		r.Get("/api/bookings/{id}/history", bookingHandler.History)

		// GET /api/receivers/{receiverId}/bookings?from=&to=&status= - Receiver calendar
		r.Get("/api/receivers/{receiverId}/bookings", bookingHandler.ListByReceiver)

		// GET /api/bookers/{bookerId}/bookings - Booker's own bookings
		r.Get("/api/bookers/{bookerId}/bookings", bookingHandler.ListByBooker)

		// ==================== STATE CHANGES ====================
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(limiter, ratelimit.LimitTypeDefault, log))

			// POST /api/bookings - Request a table or performer booking (customer)
			r.Post("/api/bookings", bookingHandler.RequestBooking)

			// Booker actions
			r.Post("/api/bookings/{id}/pay", bookingHandler.MarkPaid)
			r.Post("/api/bookings/{id}/cancel", bookingHandler.Cancel)

			// Receiver actions
			r.Post("/api/bookings/{id}/confirm", bookingHandler.Confirm)
			r.Post("/api/bookings/{id}/reject", bookingHandler.Reject)
			r.Post("/api/bookings/{id}/arrive", bookingHandler.MarkArrived)
			r.Post("/api/bookings/{id}/end", bookingHandler.EndBooking)
			r.Post("/api/bookings/{id}/complete", bookingHandler.CompleteTransaction)
		})
	})
}
