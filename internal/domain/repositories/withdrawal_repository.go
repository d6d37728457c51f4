package repositories

import (
	"context"

	"github.com/vaultpay/withdrawal-service/internal/domain/entities"
)

// WithdrawalRepository stores withdrawal records by their identifier.
// No deletion is exposed: records are immutable once written.
type WithdrawalRepository interface {
	Put(context.Context, *entities.Withdrawal) error
	// Get returns errs.ErrNotFound when no record exists for the id.
	Get(context.Context, entities.WithdrawalID) (*entities.Withdrawal, error)
}

// IdempotencyIndex maps a caller-supplied idempotency key to the
// identifier of the record it produced. A key binds at most once and
// is never removed; Rebind is the single sanctioned exception, used to
// repair a binding whose record has gone missing.
type IdempotencyIndex interface {
	// Lookup returns errs.ErrNotFound when the key is unbound.
	Lookup(context.Context, string) (entities.WithdrawalID, error)
	// Bind returns errs.ErrDuplicateRequest when the key is already bound.
	Bind(context.Context, string, entities.WithdrawalID) error
	// Rebind points the key at a new record, overwriting an existing
	// binding. Callers must hold the record-missing evidence before
	// invoking it.
	Rebind(context.Context, string, entities.WithdrawalID) error
}
