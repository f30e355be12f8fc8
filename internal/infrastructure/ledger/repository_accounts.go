package ledger

import (
	"context"
	"errors"
	"fmt"

	domain "papertrader/internal/domain/entity/ledger"
	"papertrader/internal/infrastructure/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const accountColumns = `id, name, initial_capital, current_cash, frozen_cash, margin_used, is_active`

func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *Repository) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *Repository) ListPositions(ctx context.Context, accountID int64) ([]domain.Position, error) {
	const query = `
		SELECT account_id, symbol, market, quantity, avg_cost, leverage
		FROM positions
		WHERE account_id=$1
		ORDER BY market, symbol`
	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var (
			p                           domain.Position
			quantity, avgCost, leverage pgtype.Numeric
		)
		if err := rows.Scan(&p.AccountID, &p.Symbol, &p.Market, &quantity, &avgCost, &leverage); err != nil {
			return nil, err
		}
		p.Quantity = postgres.Decimal(quantity)
		p.AvgCost = postgres.Decimal(avgCost)
		p.Leverage = postgres.Decimal(leverage)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// ResetForReplay restores every account to its initial capital and wipes
// dependent rows in one transaction.
func (r *Repository) ResetForReplay(ctx context.Context) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		const resetAccounts = `
			UPDATE accounts
			SET current_cash = initial_capital, frozen_cash = 0, margin_used = 0`
		if _, err := tx.Exec(ctx, resetAccounts); err != nil {
			return fmt.Errorf("reset accounts: %w", err)
		}
		for _, table := range []string{"trades", "orders", "positions"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// CreateAccount inserts an account with cash equal to its initial capital.
func (r *Repository) CreateAccount(ctx context.Context, account *domain.Account) error {
	if account == nil {
		return errors.New("account is nil")
	}
	const query = `
		INSERT INTO accounts (name, initial_capital, current_cash, is_active)
		VALUES ($1, $2, $2, $3)
		RETURNING id`
	return r.pool.QueryRow(ctx, query, account.Name, postgres.Numeric(account.InitialCapital), account.IsActive).Scan(&account.ID)
}

func scanAccount(row pgx.Row) (domain.Account, error) {
	var (
		account                       domain.Account
		initial, cash, frozen, margin pgtype.Numeric
	)
	if err := row.Scan(&account.ID, &account.Name, &initial, &cash, &frozen, &margin, &account.IsActive); err != nil {
		return domain.Account{}, err
	}
	account.InitialCapital = postgres.Decimal(initial)
	account.CurrentCash = postgres.Decimal(cash)
	account.FrozenCash = postgres.Decimal(frozen)
	account.MarginUsed = postgres.Decimal(margin)
	return account, nil
}
