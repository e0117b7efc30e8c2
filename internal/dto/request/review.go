package request

type CreateReviewRequest struct {
	BookingID      string   `json:"booking_id" validate:"required,uuid"`
	Rating         int      `json:"rating" validate:"required,min=1,max=5"`
	Comment        *string  `json:"comment,omitempty" validate:"omitempty,max=1000"`
	EvidenceImages []string `json:"evidence_images,omitempty" validate:"omitempty,max=10,dive,url"`
	RequestRefund  bool     `json:"request_refund"`
}

// UpdateReviewRequest changes only the fields that are present.
type UpdateReviewRequest struct {
	Rating         *int     `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment        *string  `json:"comment,omitempty" validate:"omitempty,max=1000"`
	EvidenceImages []string `json:"evidence_images,omitempty" validate:"omitempty,max=10,dive,url"`
}
