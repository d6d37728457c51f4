package params

import (
	"github.com/shopspring/decimal"
	"github.com/vaultpay/withdrawal-service/internal/domain/entities"
)

type CreateWithdrawal struct {
	IdempotencyKey string
	Amount         decimal.Decimal
	Destination    entities.Destination
}

func NewCreateWithdrawal(key string, amount decimal.Decimal, destination entities.Destination) *CreateWithdrawal {
	return &CreateWithdrawal{IdempotencyKey: key, Amount: amount, Destination: destination}
}
