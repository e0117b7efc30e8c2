package usecase

import (
	"time"

	"venue-booking/internal/data/repository"
	"venue-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Booking      BookingService
	Confirmation ConfirmationService
	Review       ReviewService
	Payout       PayoutService
}

func NewService(repo *repository.Repository, config *utils.Config, events EventPublisher, log *zap.Logger) *Service {
	timeout := config.Broker.PublishTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	e := &engine{
		repo: repo,
		events: &notifier{
			pub:     events,
			timeout: timeout,
			log:     log.With(zap.String("component", "events")),
		},
		now: time.Now,
		log: log.With(zap.String("component", "transition")),
	}

	return &Service{
		Booking:      NewBookingService(e, log),
		Confirmation: NewConfirmationService(e, config.App.QRCostFactor, log),
		Review:       NewReviewService(e, log),
		Payout:       NewPayoutService(e, log),
	}
}
