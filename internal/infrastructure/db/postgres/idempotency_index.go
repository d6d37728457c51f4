package postgres

import (
	"context"
	"database/sql"
	"errors"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vaultpay/withdrawal-service/internal/application/errs"
	"github.com/vaultpay/withdrawal-service/internal/domain/entities"
	"github.com/vaultpay/withdrawal-service/internal/domain/repositories"
	"github.com/vaultpay/withdrawal-service/pkg/logger"
)

type IdempotencyIndex struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
	logger logger.Logger
}

func NewIdempotencyIndex(db *sql.DB, getter *trmsql.CtxGetter, logger logger.Logger) (*IdempotencyIndex, error) {
	if db == nil {
		return nil, errors.New("nil dependency: database")
	}
	if getter == nil {
		return nil, errors.New("nil dependency: transaction getter")
	}

	return &IdempotencyIndex{db: db, getter: getter, logger: logger}, nil
}

var _ repositories.IdempotencyIndex = (*IdempotencyIndex)(nil)

func (i *IdempotencyIndex) Lookup(ctx context.Context, key string) (entities.WithdrawalID, error) {
	const query = "SELECT withdrawal_id FROM idempotency_keys WHERE key = $1;"

	var id entities.WithdrawalID

	err := i.getter.DefaultTrOrDB(ctx, i.db).QueryRowContext(ctx, query, key).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		return "", err
	}

	return id, nil
}

func (i *IdempotencyIndex) Bind(ctx context.Context, key string, id entities.WithdrawalID) error {
	const query = "INSERT INTO idempotency_keys (key, withdrawal_id) VALUES ($1, $2);"

	_, err := i.getter.DefaultTrOrDB(ctx, i.db).ExecContext(ctx, query, key, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.UniqueViolation {
				// Another process bound the key first.
				return errs.ErrDuplicateRequest
			}
		}
		return err
	}

	return nil
}

func (i *IdempotencyIndex) Rebind(ctx context.Context, key string, id entities.WithdrawalID) error {
	const query = `
		INSERT INTO idempotency_keys (key, withdrawal_id) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET withdrawal_id = EXCLUDED.withdrawal_id;`

	_, err := i.getter.DefaultTrOrDB(ctx, i.db).ExecContext(ctx, query, key, id)

	return err
}
