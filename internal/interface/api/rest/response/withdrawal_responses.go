package response

import (
	"time"

	"github.com/vaultpay/withdrawal-service/internal/domain/entities"
)

// Withdrawal is the wire representation of a record. CreatedAt marshals
// as an ISO-8601 timestamp, Amount as a plain number.
type Withdrawal struct {
	ID          string                    `json:"id"`
	Amount      float64                   `json:"amount"`
	Destination string                    `json:"destination"`
	Status      entities.WithdrawalStatus `json:"status"`
	CreatedAt   time.Time                 `json:"createdAt"`
}

func NewWithdrawalFromEntity(e *entities.Withdrawal) *Withdrawal {
	return &Withdrawal{
		ID:          string(e.ID),
		Amount:      e.Amount.InexactFloat64(),
		Destination: string(e.Destination),
		Status:      e.Status,
		CreatedAt:   e.CreatedAt,
	}
}

// WithdrawalEnvelope wraps a record for both creation and lookup responses.
type WithdrawalEnvelope struct {
	Withdrawal *Withdrawal `json:"withdrawal"`
}

func NewWithdrawalEnvelope(e *entities.Withdrawal) *WithdrawalEnvelope {
	return &WithdrawalEnvelope{Withdrawal: NewWithdrawalFromEntity(e)}
}
