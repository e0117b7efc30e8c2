package response

import (
	"time"

	"venue-booking/internal/data/entity"
)

type ReviewResponse struct {
	ID             string          `json:"id"`
	BookingID      string          `json:"booking_id"`
	BookerID       string          `json:"booker_id"`
	ReceiverID     string          `json:"receiver_id"`
	Rating         int             `json:"rating"`
	Comment        *string         `json:"comment,omitempty"`
	EvidenceImages []string        `json:"evidence_images,omitempty"`
	Refund         *RefundResponse `json:"refund,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type RefundResponse struct {
	ID        string              `json:"id"`
	BookingID string              `json:"booking_id"`
	Amount    int64               `json:"amount"`
	Status    entity.RefundStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

type PayoutAccountResponse struct {
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	AccountHolder string    `json:"account_holder"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Helper converters
func ReviewToResponse(review *entity.Review, refund *entity.RefundRequest) ReviewResponse {
	res := ReviewResponse{
		ID:             review.ID.String(),
		BookingID:      review.BookingID.String(),
		BookerID:       review.BookerID.String(),
		ReceiverID:     review.ReceiverID.String(),
		Rating:         review.Rating,
		Comment:        review.Comment,
		EvidenceImages: review.EvidenceImages,
		CreatedAt:      review.CreatedAt,
		UpdatedAt:      review.UpdatedAt,
	}
	if refund != nil {
		r := RefundToResponse(refund)
		res.Refund = &r
	}
	return res
}

func RefundToResponse(refund *entity.RefundRequest) RefundResponse {
	return RefundResponse{
		ID:        refund.ID.String(),
		BookingID: refund.BookingID.String(),
		Amount:    refund.Amount,
		Status:    refund.Status,
		CreatedAt: refund.CreatedAt,
	}
}

// PayoutAccountToResponse never exposes the full account number.
func PayoutAccountToResponse(account *entity.PayoutAccount) PayoutAccountResponse {
	return PayoutAccountResponse{
		BankName:      account.BankName,
		AccountNumber: account.MaskedAccountNumber(),
		AccountHolder: account.AccountHolder,
		UpdatedAt:     account.UpdatedAt,
	}
}
