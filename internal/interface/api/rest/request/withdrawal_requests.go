package request

import "github.com/shopspring/decimal"

// CreateWithdrawal defines the body of POST /withdrawals.
type CreateWithdrawal struct {
	Amount      decimal.Decimal `json:"amount"`
	Destination string          `json:"destination"`
}
