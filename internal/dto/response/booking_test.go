package response

import (
	"testing"
	"time"

	"venue-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBookingToResponseClosedFlag(t *testing.T) {
	now := time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC)
	cases := map[entity.ScheduleStatus]bool{
		entity.SchedulePending:   false,
		entity.ScheduleConfirmed: false,
		entity.ScheduleArrived:   false,
		entity.ScheduleEnded:     true,
		entity.ScheduleCompleted: true,
		entity.ScheduleCanceled:  true,
		entity.ScheduleRejected:  true,
	}

	for status, closed := range cases {
		b := &entity.Booking{
			Base:           entity.Base{ID: uuid.New()},
			Kind:           entity.KindTable,
			ServiceDate:    time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC),
			LineItems:      entity.LineItems{TableRefs: []string{"A1"}},
			ScheduleStatus: status,
			PaymentStatus:  entity.PaymentPaid,
			ReviewStatus:   entity.ReviewNotReviewed,
		}
		assert.Equal(t, closed, BookingToResponse(b, now).Closed, status)
	}
}
