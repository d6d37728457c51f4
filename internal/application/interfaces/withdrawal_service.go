package interfaces

import (
	"context"

	"github.com/vaultpay/withdrawal-service/internal/application/params"
	"github.com/vaultpay/withdrawal-service/internal/domain/entities"
)

// WithdrawalService represents all service actions.
type WithdrawalService interface {
	// Create performs an idempotent creation: at most one record is ever
	// produced for a given idempotency key.
	Create(context.Context, *params.CreateWithdrawal) (*entities.Withdrawal, error)
	// Get fetches a record by its identifier. Pure read.
	Get(context.Context, entities.WithdrawalID) (*entities.Withdrawal, error)
}
