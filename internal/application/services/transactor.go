package services

import (
	"context"

	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
)

// Transactor runs a function within a single transaction boundary.
// In database mode this is the trm manager; the in-memory backend
// needs no transactions and uses the passthrough.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ Transactor = (*manager.Manager)(nil)

type NopTransactor struct{}

func (NopTransactor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
