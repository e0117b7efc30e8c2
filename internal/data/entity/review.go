package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	Base
	BookingID      uuid.UUID `db:"booking_id"`
	BookerID       uuid.UUID `db:"booker_id"`
	ReceiverID     uuid.UUID `db:"receiver_id"`
	Rating         int       `db:"rating"` // 1-5
	Comment        *string   `db:"comment"`
	EvidenceImages []string  `db:"evidence_images"`
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
	RefundRejected  RefundStatus = "rejected"
)

type RefundRequest struct {
	Base
	BookingID uuid.UUID    `db:"booking_id"`
	ReviewID  uuid.UUID    `db:"review_id"`
	BookerID  uuid.UUID    `db:"booker_id"`
	Amount    int64        `db:"amount"`
	Status    RefundStatus `db:"status"`
}

// PayoutAccount is where refunds and performer payouts are sent.
type PayoutAccount struct {
	UserID        uuid.UUID `db:"user_id"`
	BankName      string    `db:"bank_name"`
	AccountNumber string    `db:"account_number"`
	AccountHolder string    `db:"account_holder"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// MaskedAccountNumber keeps only the last four digits.
func (p *PayoutAccount) MaskedAccountNumber() string {
	n := len(p.AccountNumber)
	if n <= 4 {
		return p.AccountNumber
	}
	return strings.Repeat("*", n-4) + p.AccountNumber[n-4:]
}
