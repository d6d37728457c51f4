// Package postgres provides the durable record store and idempotency
// index behind the same contracts as the in-memory reference backend.
//
// Expected schema:
//
//	CREATE TABLE withdrawals (
//	    id          TEXT PRIMARY KEY,
//	    amount      NUMERIC NOT NULL,
//	    destination TEXT NOT NULL,
//	    status      TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE idempotency_keys (
//	    key           TEXT PRIMARY KEY,
//	    withdrawal_id TEXT NOT NULL REFERENCES withdrawals (id)
//	);
//
// The primary key on idempotency_keys.key is the cross-process
// compare-and-bind: the second writer of a key fails with a unique
// violation and observes the duplicate.
package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/vaultpay/withdrawal-service/internal/config"
	"github.com/vaultpay/withdrawal-service/pkg/logger"
)

func Connect(cfg *config.Config, logger logger.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open the database: %w", err)
	}

	// Log every query to the database.
	db = sqldblogger.OpenDriver(cfg.DSN, db.Driver(), logger)

	return db, nil
}
