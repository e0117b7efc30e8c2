package request

type UpsertPayoutAccountRequest struct {
	BankName      string `json:"bank_name" validate:"required,max=100"`
	AccountNumber string `json:"account_number" validate:"required,numeric,min=6,max=34"`
	AccountHolder string `json:"account_holder" validate:"required,max=100"`
}
