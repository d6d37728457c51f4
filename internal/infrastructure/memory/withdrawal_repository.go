package memory

import (
	"context"
	"sync"

	"github.com/vaultpay/withdrawal-service/internal/application/errs"
	"github.com/vaultpay/withdrawal-service/internal/domain/entities"
	"github.com/vaultpay/withdrawal-service/internal/domain/repositories"
)

// WithdrawalRepository is a volatile in-memory record store. Its lifetime
// matches the process; the postgres implementation replaces it behind
// the same contract for durable deployments.
type WithdrawalRepository struct {
	mu      sync.RWMutex
	records map[entities.WithdrawalID]entities.Withdrawal
}

func NewWithdrawalRepository() *WithdrawalRepository {
	return &WithdrawalRepository{
		records: make(map[entities.WithdrawalID]entities.Withdrawal),
	}
}

var _ repositories.WithdrawalRepository = (*WithdrawalRepository)(nil)

func (r *WithdrawalRepository) Put(_ context.Context, w *entities.Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Stored by value so later mutations of the caller's copy
	// cannot reach the store.
	r.records[w.ID] = *w

	return nil
}

func (r *WithdrawalRepository) Get(_ context.Context, id entities.WithdrawalID) (*entities.Withdrawal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.records[id]
	if !ok {
		return nil, errs.ErrNotFound
	}

	return &w, nil
}

// Len reports the number of stored records.
func (r *WithdrawalRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.records)
}
