package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultpay/withdrawal-service/internal/application/errs"
	"github.com/vaultpay/withdrawal-service/internal/application/params"
	"github.com/vaultpay/withdrawal-service/internal/domain/entities"
	"github.com/vaultpay/withdrawal-service/internal/infrastructure/memory"
	"github.com/vaultpay/withdrawal-service/pkg/logger"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*WithdrawalService, *memory.WithdrawalRepository, *memory.IdempotencyIndex) {
	t.Helper()

	repo := memory.NewWithdrawalRepository()
	index := memory.NewIdempotencyIndex()

	service, err := NewWithdrawalService(repo, index, NopTransactor{}, logger.NewWithZap(zap.NewNop()))
	require.NoError(t, err)

	return service, repo, index
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		amount      decimal.Decimal
		destination entities.Destination
		wantErr     error
	}{
		{
			name:        "missing idempotency key",
			key:         "",
			amount:      decimal.NewFromInt(10),
			destination: "acct-1",
			wantErr:     errs.ErrMissingIdempotencyKey,
		},
		{
			name:        "zero amount",
			key:         "k-1",
			amount:      decimal.NewFromInt(0),
			destination: "acct-1",
			wantErr:     errs.ErrInvalidAmount,
		},
		{
			name:        "negative amount",
			key:         "k-1",
			amount:      decimal.NewFromInt(-5),
			destination: "acct-1",
			wantErr:     errs.ErrInvalidAmount,
		},
		{
			name:        "empty destination",
			key:         "k-1",
			amount:      decimal.NewFromInt(10),
			destination: "",
			wantErr:     errs.ErrInvalidDestination,
		},
		{
			name:        "whitespace destination",
			key:         "k-1",
			amount:      decimal.NewFromInt(10),
			destination: "   ",
			wantErr:     errs.ErrInvalidDestination,
		},
		{
			name:        "missing key wins over invalid amount",
			key:         "",
			amount:      decimal.NewFromInt(-1),
			destination: "",
			wantErr:     errs.ErrMissingIdempotencyKey,
		},
		{
			name:        "invalid amount wins over invalid destination",
			key:         "k-1",
			amount:      decimal.NewFromInt(0),
			destination: "",
			wantErr:     errs.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _ := newTestService(t)

			_, err := service.Create(context.Background(),
				params.NewCreateWithdrawal(tt.key, tt.amount, tt.destination))

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, repo.Len(), "no record must be created on a rejected attempt")
		})
	}
}

func TestCreate_SmallAmountAccepted(t *testing.T) {
	service, _, _ := newTestService(t)

	withdrawal, err := service.Create(context.Background(),
		params.NewCreateWithdrawal("k-1", decimal.NewFromFloat(0.0001), "acct-1"))

	require.NoError(t, err)
	assert.True(t, withdrawal.Amount.Equal(decimal.NewFromFloat(0.0001)))
}

func TestCreate_Idempotency(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	first, err := service.Create(ctx,
		params.NewCreateWithdrawal("k-1", decimal.NewFromInt(100), "acct-1"))
	require.NoError(t, err)

	_, err = service.Create(ctx,
		params.NewCreateWithdrawal("k-1", decimal.NewFromInt(100), "acct-1"))
	assert.ErrorIs(t, err, errs.ErrDuplicateRequest)

	assert.Equal(t, 1, repo.Len(), "second create with the same key must not add a record")

	stored, err := service.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
}

func TestCreate_KeyIsolation(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	first, err := service.Create(ctx,
		params.NewCreateWithdrawal("k-1", decimal.NewFromInt(100), "acct-1"))
	require.NoError(t, err)

	second, err := service.Create(ctx,
		params.NewCreateWithdrawal("k-2", decimal.NewFromInt(100), "acct-1"))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, repo.Len())
}

func TestCreate_RoundTrip(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := service.Create(ctx,
		params.NewCreateWithdrawal("k-1", decimal.NewFromInt(42), "acct-9"))
	require.NoError(t, err)

	fetched, err := service.Get(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, fetched.ID)
	assert.True(t, created.Amount.Equal(fetched.Amount))
	assert.Equal(t, created.Destination, fetched.Destination)
	assert.Equal(t, created.Status, fetched.Status)
	assert.Equal(t, created.CreatedAt, fetched.CreatedAt)
	assert.Equal(t, entities.PENDING, fetched.Status)
}

func TestCreate_BoundKeyWithMissingRecord(t *testing.T) {
	service, repo, index := newTestService(t)
	ctx := context.Background()

	// Simulate a store inconsistency: the key is bound
	// but no record exists for it.
	require.NoError(t, index.Bind(ctx, "k-1", "ghost-id"))

	withdrawal, err := service.Create(ctx,
		params.NewCreateWithdrawal("k-1", decimal.NewFromInt(10), "acct-1"))

	require.NoError(t, err)
	assert.NotEqual(t, entities.WithdrawalID("ghost-id"), withdrawal.ID)
	assert.Equal(t, 1, repo.Len())

	// The stale binding is repaired: the key resolves to the
	// replacement record and guards against further creations.
	boundID, err := index.Lookup(ctx, "k-1")
	require.NoError(t, err)
	assert.Equal(t, withdrawal.ID, boundID)

	_, err = service.Create(ctx,
		params.NewCreateWithdrawal("k-1", decimal.NewFromInt(10), "acct-1"))
	assert.ErrorIs(t, err, errs.ErrDuplicateRequest)
	assert.Equal(t, 1, repo.Len())
}

func TestNewWithdrawalService_NilDependencies(t *testing.T) {
	repo := memory.NewWithdrawalRepository()
	index := memory.NewIdempotencyIndex()
	log := logger.NewWithZap(zap.NewNop())

	tests := []struct {
		name string
		fn   func() (*WithdrawalService, error)
	}{
		{"nil repository", func() (*WithdrawalService, error) {
			return NewWithdrawalService(nil, index, NopTransactor{}, log)
		}},
		{"nil index", func() (*WithdrawalService, error) {
			return NewWithdrawalService(repo, nil, NopTransactor{}, log)
		}},
		{"nil transaction manager", func() (*WithdrawalService, error) {
			return NewWithdrawalService(repo, index, nil, log)
		}},
		{"nil logger", func() (*WithdrawalService, error) {
			return NewWithdrawalService(repo, index, NopTransactor{}, nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			assert.Error(t, err)
		})
	}
}

func TestCreate_ConcurrentSameKey(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	const attempts = 16

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		created    int
		duplicates int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := service.Create(ctx,
				params.NewCreateWithdrawal("k-race", decimal.NewFromInt(100), "acct-1"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case assert.ErrorIs(t, err, errs.ErrDuplicateRequest):
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created, "exactly one concurrent creation must win")
	assert.Equal(t, attempts-1, duplicates)
	assert.Equal(t, 1, repo.Len())
}

func TestGet_NotFound(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
