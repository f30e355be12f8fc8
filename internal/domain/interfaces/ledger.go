package interfaces

import (
	"context"

	ledger "papertrader/internal/domain/entity/ledger"
)

type TradeLedger interface {
	// TradesForAccount returns trades ordered by trade time ascending.
	TradesForAccount(ctx context.Context, accountID int64, window *ledger.Window) ([]ledger.Trade, error)
	// TradedInstruments returns the distinct instruments traded by one
	// account, or by any account when accountID is nil.
	TradedInstruments(ctx context.Context, accountID *int64, window *ledger.Window) ([]ledger.Instrument, error)
	AppendTrades(ctx context.Context, trades []ledger.Trade) error
}

type AccountStore interface {
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	GetAccount(ctx context.Context, id int64) (*ledger.Account, error)
	ListPositions(ctx context.Context, accountID int64) ([]ledger.Position, error)
	// ResetForReplay restores every account to its initial capital and
	// wipes trades, orders and positions. It is all or nothing.
	ResetForReplay(ctx context.Context) error
}
