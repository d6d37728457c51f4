package postgres

import (
	"context"
	"database/sql"
	"errors"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/vaultpay/withdrawal-service/internal/application/errs"
	"github.com/vaultpay/withdrawal-service/internal/domain/entities"
	"github.com/vaultpay/withdrawal-service/internal/domain/repositories"
	"github.com/vaultpay/withdrawal-service/pkg/logger"
)

type WithdrawalRepository struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
	logger logger.Logger
}

func NewWithdrawalRepository(db *sql.DB, getter *trmsql.CtxGetter, logger logger.Logger) (*WithdrawalRepository, error) {
	if db == nil {
		return nil, errors.New("nil dependency: database")
	}
	if getter == nil {
		return nil, errors.New("nil dependency: transaction getter")
	}

	return &WithdrawalRepository{db: db, getter: getter, logger: logger}, nil
}

var _ repositories.WithdrawalRepository = (*WithdrawalRepository)(nil)

func (r *WithdrawalRepository) Put(ctx context.Context, w *entities.Withdrawal) error {
	const query = `
		INSERT INTO withdrawals (id, amount, destination, status, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`

	_, err := r.getter.DefaultTrOrDB(ctx, r.db).
		ExecContext(ctx, query, w.ID, w.Amount, w.Destination, w.Status, w.CreatedAt)
	if err != nil {
		return err
	}

	return nil
}

func (r *WithdrawalRepository) Get(ctx context.Context, id entities.WithdrawalID) (*entities.Withdrawal, error) {
	const query = `
		SELECT id, amount, destination, status, created_at
		FROM withdrawals WHERE id = $1;
	`

	w := new(entities.Withdrawal)

	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&w.ID,
		&w.Amount,
		&w.Destination,
		&w.Status,
		&w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	return w, nil
}
