package memory

import (
	"context"
	"sort"
	"sync"

	ledger "papertrader/internal/domain/entity/ledger"
	interfaces "papertrader/internal/domain/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger keeps accounts, positions and trades in process memory.
type Ledger struct {
	mu        sync.RWMutex
	accounts  map[int64]ledger.Account
	positions map[int64][]ledger.Position
	trades    []ledger.Trade

	// ResetErr, when set, makes ResetForReplay fail without mutating state.
	ResetErr error
}

var (
	_ interfaces.TradeLedger  = (*Ledger)(nil)
	_ interfaces.AccountStore = (*Ledger)(nil)
)

func NewLedger() *Ledger {
	return &Ledger{
		accounts:  make(map[int64]ledger.Account),
		positions: make(map[int64][]ledger.Position),
	}
}

func (l *Ledger) PutAccount(account ledger.Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[account.ID] = account
}

func (l *Ledger) PutPosition(position ledger.Position) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions[position.AccountID] = append(l.positions[position.AccountID], position)
}

func (l *Ledger) AppendTrades(_ context.Context, trades []ledger.Trade) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, trade := range trades {
		if trade.ID == uuid.Nil {
			trade.ID = uuid.New()
		}
		l.trades = append(l.trades, trade)
	}
	return nil
}

func (l *Ledger) TradesForAccount(_ context.Context, accountID int64, window *ledger.Window) ([]ledger.Trade, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []ledger.Trade
	for _, trade := range l.trades {
		if trade.AccountID == accountID && window.Contains(trade.TradeTime) {
			out = append(out, trade)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TradeTime.Before(out[j].TradeTime)
	})
	return out, nil
}

func (l *Ledger) TradedInstruments(_ context.Context, accountID *int64, window *ledger.Window) ([]ledger.Instrument, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := make(map[ledger.Instrument]struct{})
	var out []ledger.Instrument
	for _, trade := range l.trades {
		if accountID != nil && trade.AccountID != *accountID {
			continue
		}
		if !window.Contains(trade.TradeTime) {
			continue
		}
		inst := trade.Instrument()
		if _, ok := seen[inst]; ok {
			continue
		}
		seen[inst] = struct{}{}
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, nil
}

func (l *Ledger) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ledger.Account, 0, len(l.accounts))
	for _, account := range l.accounts {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l *Ledger) GetAccount(_ context.Context, id int64) (*ledger.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	account, ok := l.accounts[id]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return &account, nil
}

func (l *Ledger) ListPositions(_ context.Context, accountID int64) ([]ledger.Position, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	positions := l.positions[accountID]
	out := make([]ledger.Position, len(positions))
	copy(out, positions)
	return out, nil
}

func (l *Ledger) ResetForReplay(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ResetErr != nil {
		return l.ResetErr
	}
	for id, account := range l.accounts {
		account.CurrentCash = account.InitialCapital
		account.FrozenCash = decimal.Zero
		account.MarginUsed = decimal.Zero
		l.accounts[id] = account
	}
	l.trades = nil
	l.positions = make(map[int64][]ledger.Position)
	return nil
}
