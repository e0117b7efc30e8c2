package entity

import "fmt"

// Business constants for deposits, in whole currency units.
const (
	TableUnitPrice   int64 = 100_000
	PerformerDeposit int64 = 50_000
)

type Amounts struct {
	Deposit int64 `json:"deposit"`
	Total   int64 `json:"total"`
	// DueOnCompletion is released to the receiver once the service is rendered.
	DueOnCompletion int64 `json:"amount_due_on_completion"`
}

// CalculateAmounts is the only place booking money is derived. It is pure:
// the same kind, quantity and quote always give the same result.
func CalculateAmounts(kind BookingKind, lineItemCount int, quotedPrice int64) (Amounts, error) {
	if lineItemCount < 1 {
		return Amounts{}, fmt.Errorf("line item count must be at least 1, got %d", lineItemCount)
	}

	switch kind {
	case KindTable:
		deposit := int64(lineItemCount) * TableUnitPrice
		return Amounts{Deposit: deposit, Total: deposit}, nil

	case KindPerformer:
		if quotedPrice < PerformerDeposit {
			return Amounts{}, fmt.Errorf("performer quote %d is below the deposit %d", quotedPrice, PerformerDeposit)
		}
		return Amounts{
			Deposit:         PerformerDeposit,
			Total:           quotedPrice,
			DueOnCompletion: max(0, quotedPrice-PerformerDeposit),
		}, nil
	}

	return Amounts{}, fmt.Errorf("unknown booking kind %q", kind)
}
