package usecase

import (
	"venue-booking/internal/data/entity"
	"venue-booking/pkg/apperror"

	"github.com/google/uuid"
)

// Actor is the authenticated caller. Every operation receives it explicitly.
type Actor struct {
	ID   uuid.UUID
	Role entity.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == entity.RoleAdmin
}

func authorizeBooker(actor Actor, b *entity.Booking) error {
	if actor.ID != b.BookerID {
		return apperror.New(apperror.KindForbidden, "only the booker can do this")
	}
	return nil
}

func authorizeReceiver(actor Actor, b *entity.Booking) error {
	if actor.ID != b.ReceiverID {
		return apperror.New(apperror.KindForbidden, "only the receiver can do this")
	}
	return nil
}

// authorizeViewer lets either party or an admin read a booking.
func authorizeViewer(actor Actor, b *entity.Booking) error {
	if actor.ID == b.BookerID || actor.ID == b.ReceiverID || actor.IsAdmin() {
		return nil
	}
	return apperror.New(apperror.KindForbidden, "booking belongs to someone else")
}
