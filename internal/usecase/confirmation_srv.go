package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"venue-booking/internal/data/entity"
	"venue-booking/internal/data/repository"
	"venue-booking/pkg/apperror"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// IssuedToken is a freshly minted arrival code for a booking.
type IssuedToken struct {
	Booking  *entity.Booking
	Token    string
	IssuedAt time.Time
}

// PNG renders the token as a QR image. It does not touch the stored hash.
func (t *IssuedToken) PNG(size int) ([]byte, error) {
	png, err := qrcode.Encode(t.Token, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("render confirmation code: %w", err)
	}
	return png, nil
}

type ConfirmationService interface {
	// IssueToken mints a new nonce. Any earlier code for the booking stops working.
	IssueToken(ctx context.Context, actor Actor, bookingID uuid.UUID) (*IssuedToken, error)
	// Redeem applies a scanned or pasted code. On AlreadyRedeemed the current
	// booking is returned together with the error.
	Redeem(ctx context.Context, actor Actor, rawToken string) (*entity.Booking, error)
}

type confirmationService struct {
	*engine
	hashCost int
	log      *zap.Logger
}

func NewConfirmationService(e *engine, hashCost int, log *zap.Logger) ConfirmationService {
	if hashCost < bcrypt.MinCost || hashCost > bcrypt.MaxCost {
		hashCost = bcrypt.DefaultCost
	}
	return &confirmationService{
		engine:   e,
		hashCost: hashCost,
		log:      log.With(zap.String("service", "confirmation")),
	}
}

func (s *confirmationService) IssueToken(ctx context.Context, actor Actor, bookingID uuid.UUID) (*IssuedToken, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeBooker(actor, booking); err != nil {
		return nil, err
	}
	if err := booking.CheckIssueToken(); err != nil {
		return nil, err
	}

	token := NewConfirmationToken(booking.ID, uuid.NewString())
	encoded, err := token.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode confirmation token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token.Nonce), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash confirmation nonce: %w", err)
	}

	issuedAt := s.now()
	updated, err := s.repo.Booking.SetConfirmationToken(ctx, booking.ID, string(hash), issuedAt)
	if err != nil {
		return nil, fmt.Errorf("store confirmation token: %w", err)
	}
	if updated == nil {
		current, err := s.load(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if err := current.CheckIssueToken(); err != nil {
			return nil, err
		}
		return nil, apperror.Newf(apperror.KindInvalidTransition, "booking %s changed while issuing a code", bookingID.String())
	}

	s.log.Info("Confirmation code issued",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booker_id", actor.ID.String()),
	)

	return &IssuedToken{
		Booking:  updated,
		Token:    encoded,
		IssuedAt: issuedAt,
	}, nil
}

func (s *confirmationService) Redeem(ctx context.Context, actor Actor, rawToken string) (*entity.Booking, error) {
	token, err := DecodeConfirmationToken(rawToken)
	if err != nil {
		return nil, err
	}

	rule := transitionRule{
		op:    "redeem",
		event: EventBookingArrived,
		authorize: func(actor Actor, b *entity.Booking) error {
			if err := authorizeReceiver(actor, b); err != nil {
				return err
			}
			return verifyNonce(b, token.Nonce)
		},
		done: func(b *entity.Booking) bool { return b.ScheduleStatus == entity.ScheduleArrived },
		check: func(b *entity.Booking) error {
			if b.ScheduleStatus == entity.ScheduleEnded {
				return apperror.New(apperror.KindAlreadyRedeemed, "confirmation code was already used")
			}
			return b.CheckMarkArrived()
		},
		update: repository.Transition{
			RequireSchedule: []entity.ScheduleStatus{entity.ScheduleConfirmed},
			RequireKind:     entity.KindTable,
			SetSchedule:     entity.ScheduleArrived,
			MarkRedeemed:    true,
		},
	}

	booking, err := s.apply(ctx, actor, token.BookingID, rule)
	if errors.Is(err, apperror.ErrAlreadyRedeemed) {
		current, loadErr := s.load(ctx, token.BookingID)
		if loadErr != nil {
			return nil, err
		}
		return current, err
	}
	if err != nil {
		return nil, err
	}

	return booking, nil
}

func verifyNonce(b *entity.Booking, nonce string) error {
	if b.ConfirmationTokenHash == nil {
		return apperror.New(apperror.KindInvalidToken, "no confirmation code was issued for this booking")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*b.ConfirmationTokenHash), []byte(nonce)); err != nil {
		return apperror.New(apperror.KindInvalidToken, "confirmation code is not current")
	}
	return nil
}
