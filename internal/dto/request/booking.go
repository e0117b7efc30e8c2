package request

// CreateBookingRequest carries no amounts: money is always derived server-side.
type CreateBookingRequest struct {
	Kind         string   `json:"kind" validate:"required"`
	ReceiverID   string   `json:"receiver_id" validate:"required,uuid"`
	ServiceDate  string   `json:"service_date" validate:"required,datetime=2006-01-02"`
	TableRefs    []string `json:"table_refs,omitempty" validate:"omitempty,max=50,dive,required,max=32"`
	SlotIndices  []int    `json:"slot_indices,omitempty" validate:"omitempty,max=12,dive,gte=0,lte=11"`
	Location     *string  `json:"location,omitempty" validate:"omitempty,max=255"`
	ContactPhone *string  `json:"contact_phone,omitempty" validate:"omitempty,max=32"`
	Note         *string  `json:"note,omitempty" validate:"omitempty,max=500"`
}

type RedeemTokenRequest struct {
	Token string `json:"token" validate:"required,max=512"`
}
