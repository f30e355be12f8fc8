package ledger

import (
	"context"
	"os"
	"testing"
	"time"

	domain "papertrader/internal/domain/entity/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestRepository connects to TEST_DATABASE_DSN. The database is wiped.
func openTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}
	ctx := context.Background()
	repo, err := NewRepository(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	require.NoError(t, repo.Migrate(ctx))
	require.NoError(t, repo.ResetForReplay(ctx))
	_, err = repo.pool.Exec(ctx, `DELETE FROM accounts`)
	require.NoError(t, err)
	return repo
}

func TestRepositoryTradesAndReset(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	account := &domain.Account{Name: "alpha", InitialCapital: decimal.NewFromInt(10000), IsActive: true}
	require.NoError(t, repo.CreateAccount(ctx, account))

	t0 := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AppendTrades(ctx, []domain.Trade{
		{AccountID: account.ID, Symbol: "SBER", Market: "MOEX", Side: domain.SideBuy,
			Price: decimal.RequireFromString("250.5"), Quantity: decimal.NewFromInt(4), TradeTime: t0.Add(time.Hour)},
		{AccountID: account.ID, Symbol: "BTCUSDT", Market: "CRYPTO", Side: domain.SideBuy,
			Price: decimal.NewFromInt(40000), Quantity: decimal.RequireFromString("0.1"), TradeTime: t0},
	}))

	trades, err := repo.TradesForAccount(ctx, account.ID, nil)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "BTCUSDT", trades[0].Symbol)
	assert.Equal(t, "250.5", trades[1].Price.String())

	window := &domain.Window{From: t0, To: t0.Add(30 * time.Minute)}
	instruments, err := repo.TradedInstruments(ctx, nil, window)
	require.NoError(t, err)
	assert.Equal(t, []domain.Instrument{{Symbol: "BTCUSDT", Market: "CRYPTO"}}, instruments)

	_, err = repo.pool.Exec(ctx, `UPDATE accounts SET current_cash = 1 WHERE id = $1`, account.ID)
	require.NoError(t, err)
	require.NoError(t, repo.ResetForReplay(ctx))

	got, err := repo.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentCash.Equal(decimal.NewFromInt(10000)))
	trades, err = repo.TradesForAccount(ctx, account.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, trades)

	_, err = repo.GetAccount(ctx, account.ID+1000)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
