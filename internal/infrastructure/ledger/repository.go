package ledger

import (
	"context"
	"fmt"

	interfaces "papertrader/internal/domain/interfaces"
	"papertrader/internal/infrastructure/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores accounts, positions, orders and trades in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

var (
	_ interfaces.TradeLedger  = (*Repository)(nil)
	_ interfaces.AccountStore = (*Repository)(nil)
)

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Repository{pool: pool}, nil
}

func NewRepositoryFromPool(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Pool exposes the underlying pool so other repositories can share it.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id              BIGSERIAL PRIMARY KEY,
		name            TEXT      NOT NULL,
		initial_capital NUMERIC   NOT NULL,
		current_cash    NUMERIC   NOT NULL,
		frozen_cash     NUMERIC   NOT NULL DEFAULT 0,
		margin_used     NUMERIC   NOT NULL DEFAULT 0,
		is_active       BOOLEAN   NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS positions (
		account_id BIGINT  NOT NULL REFERENCES accounts(id),
		symbol     TEXT    NOT NULL,
		market     TEXT    NOT NULL,
		quantity   NUMERIC NOT NULL,
		avg_cost   NUMERIC NOT NULL,
		leverage   NUMERIC NOT NULL DEFAULT 1,
		PRIMARY KEY (account_id, symbol, market)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id         UUID        PRIMARY KEY,
		account_id BIGINT      NOT NULL REFERENCES accounts(id),
		symbol     TEXT        NOT NULL,
		market     TEXT        NOT NULL,
		side       TEXT        NOT NULL,
		price      NUMERIC     NOT NULL,
		quantity   NUMERIC     NOT NULL,
		status     TEXT        NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS trades (
		id               UUID        PRIMARY KEY,
		order_id         UUID        REFERENCES orders(id),
		account_id       BIGINT      NOT NULL REFERENCES accounts(id),
		symbol           TEXT        NOT NULL,
		market           TEXT        NOT NULL,
		side             TEXT        NOT NULL,
		price            NUMERIC     NOT NULL,
		quantity         NUMERIC     NOT NULL,
		commission       NUMERIC     NOT NULL DEFAULT 0,
		interest_charged NUMERIC     NOT NULL DEFAULT 0,
		trade_time       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS trades_account_time_idx ON trades (account_id, trade_time)`,
}

func (r *Repository) Migrate(ctx context.Context) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply ledger schema: %w", err)
			}
		}
		return nil
	})
}

func (r *Repository) withTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
