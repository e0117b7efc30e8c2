package usecase

import (
	"encoding/json"
	"strings"

	"venue-booking/pkg/apperror"

	"github.com/google/uuid"
)

// ConfirmationTokenType marks a payload as a booking arrival code.
const ConfirmationTokenType = "booking_confirmation"

// ConfirmationToken is the payload rendered into the QR code. The same JSON
// can be pasted by hand when a scanner is unavailable.
type ConfirmationToken struct {
	Type      string    `json:"type"`
	BookingID uuid.UUID `json:"bookingId"`
	Nonce     string    `json:"nonce"`
}

func NewConfirmationToken(bookingID uuid.UUID, nonce string) ConfirmationToken {
	return ConfirmationToken{
		Type:      ConfirmationTokenType,
		BookingID: bookingID,
		Nonce:     nonce,
	}
}

func (t ConfirmationToken) Encode() (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeConfirmationToken checks shape only. Whether the nonce is current is
// decided against the stored hash.
func DecodeConfirmationToken(raw string) (ConfirmationToken, error) {
	var payload struct {
		Type      string `json:"type"`
		BookingID string `json:"bookingId"`
		Nonce     string `json:"nonce"`
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ConfirmationToken{}, apperror.New(apperror.KindInvalidToken, "confirmation code is empty")
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return ConfirmationToken{}, apperror.Wrap(apperror.KindInvalidToken, "confirmation code is not readable", err)
	}
	if payload.Type != ConfirmationTokenType {
		return ConfirmationToken{}, apperror.Newf(apperror.KindInvalidToken, "unexpected code type %q", payload.Type)
	}

	bookingID, err := uuid.Parse(payload.BookingID)
	if err != nil {
		return ConfirmationToken{}, apperror.Wrap(apperror.KindInvalidToken, "confirmation code has a bad booking id", err)
	}
	if strings.TrimSpace(payload.Nonce) == "" {
		return ConfirmationToken{}, apperror.New(apperror.KindInvalidToken, "confirmation code has no nonce")
	}

	return ConfirmationToken{
		Type:      payload.Type,
		BookingID: bookingID,
		Nonce:     payload.Nonce,
	}, nil
}
