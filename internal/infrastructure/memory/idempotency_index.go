package memory

import (
	"context"
	"sync"

	"github.com/vaultpay/withdrawal-service/internal/application/errs"
	"github.com/vaultpay/withdrawal-service/internal/domain/entities"
	"github.com/vaultpay/withdrawal-service/internal/domain/repositories"
)

// IdempotencyIndex is a volatile in-memory key index. Bindings live for
// the process lifetime: there is no eviction, since releasing a key
// would re-open the duplicate window the index exists to close.
type IdempotencyIndex struct {
	mu       sync.RWMutex
	bindings map[string]entities.WithdrawalID
}

func NewIdempotencyIndex() *IdempotencyIndex {
	return &IdempotencyIndex{
		bindings: make(map[string]entities.WithdrawalID),
	}
}

var _ repositories.IdempotencyIndex = (*IdempotencyIndex)(nil)

func (i *IdempotencyIndex) Lookup(_ context.Context, key string) (entities.WithdrawalID, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	id, ok := i.bindings[key]
	if !ok {
		return "", errs.ErrNotFound
	}

	return id, nil
}

func (i *IdempotencyIndex) Bind(_ context.Context, key string, id entities.WithdrawalID) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.bindings[key]; ok {
		return errs.ErrDuplicateRequest
	}
	i.bindings[key] = id

	return nil
}

func (i *IdempotencyIndex) Rebind(_ context.Context, key string, id entities.WithdrawalID) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.bindings[key] = id

	return nil
}
