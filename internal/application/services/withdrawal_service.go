package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vaultpay/withdrawal-service/internal/application/errs"
	"github.com/vaultpay/withdrawal-service/internal/application/interfaces"
	"github.com/vaultpay/withdrawal-service/internal/application/params"
	"github.com/vaultpay/withdrawal-service/internal/domain/entities"
	"github.com/vaultpay/withdrawal-service/internal/domain/repositories"
	"github.com/vaultpay/withdrawal-service/pkg/logger"
)

type WithdrawalService struct {
	recordRepo repositories.WithdrawalRepository
	index      repositories.IdempotencyIndex
	trm        Transactor
	keys       *keyLock
	logger     logger.Logger
}

func NewWithdrawalService(
	recordRepository repositories.WithdrawalRepository,
	index repositories.IdempotencyIndex,
	trm Transactor,
	logger logger.Logger,
) (*WithdrawalService, error) {
	if recordRepository == nil {
		return nil, errors.New("nil dependency: withdrawal repository")
	}
	if index == nil {
		return nil, errors.New("nil dependency: idempotency index")
	}
	if trm == nil {
		return nil, errors.New("nil dependency: transaction manager")
	}
	if logger == nil {
		return nil, errors.New("nil dependency: logger")
	}
	return &WithdrawalService{
		recordRepo: recordRepository,
		index:      index,
		trm:        trm,
		keys:       newKeyLock(),
		logger:     logger,
	}, nil
}

var _ interfaces.WithdrawalService = (*WithdrawalService)(nil)

// Create validates the params, then creates a record and binds the
// idempotency key to it as a single unit. Concurrent creations under the
// same key serialize on a per-key lock: exactly one wins, the rest
// observe the bound key and fail with errs.ErrDuplicateRequest.
func (s *WithdrawalService) Create(ctx context.Context, p *params.CreateWithdrawal) (*entities.Withdrawal, error) {
	if p.IdempotencyKey == "" {
		return nil, errs.ErrMissingIdempotencyKey
	}
	if p.Amount.LessThanOrEqual(decimal.NewFromInt(0)) {
		return nil, fmt.Errorf("%w: must be greater than zero", errs.ErrInvalidAmount)
	}
	if strings.TrimSpace(string(p.Destination)) == "" {
		return nil, fmt.Errorf("%w: must not be empty", errs.ErrInvalidDestination)
	}

	unlock := s.keys.Lock(p.IdempotencyKey)
	defer unlock()

	// Consult the index before creating anything.
	var rebind bool

	boundID, err := s.index.Lookup(ctx, p.IdempotencyKey)
	switch {
	case err == nil:
		if _, err = s.recordRepo.Get(ctx, boundID); err == nil {
			return nil, fmt.Errorf("%w: idempotency key already used", errs.ErrDuplicateRequest)
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("get record %q: %w", boundID, err)
		}
		// The key is bound but its record is gone. A store inconsistency:
		// treat the key as unbound and recreate, but do not hide it. The
		// stale binding is repaired below, inside the same transaction
		// that writes the replacement record.
		s.logger.Errorf("idempotency key bound to missing record %q, recreating", boundID)
		rebind = true
	case !errors.Is(err, errs.ErrNotFound):
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	}

	withdrawal := entities.NewWithdrawal(p.Amount, p.Destination)

	// Record write and key bind commit or fail together.
	err = s.trm.Do(ctx, func(ctx context.Context) error {
		if err := s.recordRepo.Put(ctx, withdrawal); err != nil {
			return fmt.Errorf("put record: %w", err)
		}
		if rebind {
			if err := s.index.Rebind(ctx, p.IdempotencyKey, withdrawal.ID); err != nil {
				return fmt.Errorf("rebind idempotency key: %w", err)
			}
			return nil
		}
		if err := s.index.Bind(ctx, p.IdempotencyKey, withdrawal.ID); err != nil {
			return fmt.Errorf("bind idempotency key: %w", err)
		}
		return nil
	})
	if err != nil {
		// A concurrent creation in another process may win the bind race;
		// the unique constraint surfaces it as a duplicate.
		if errors.Is(err, errs.ErrDuplicateRequest) {
			return nil, errs.ErrDuplicateRequest
		}
		return nil, err
	}

	return withdrawal, nil
}

// Get fetches a record by id. No locking: reads run concurrently with
// unrelated creations.
func (s *WithdrawalService) Get(ctx context.Context, id entities.WithdrawalID) (*entities.Withdrawal, error) {
	withdrawal, err := s.recordRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: withdrawal %q", errs.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get withdrawal %q: %w", id, err)
	}

	return withdrawal, nil
}
