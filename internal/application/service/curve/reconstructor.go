package curve

import (
	"context"
	"fmt"
	"time"

	"papertrader/internal/application/service/pricing"
	domain "papertrader/internal/domain/entity/curve"
	ledger "papertrader/internal/domain/entity/ledger"
	interfaces "papertrader/internal/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var hundred = decimal.NewFromInt(100)

// PositionReader loads the live positions of an account.
type PositionReader interface {
	ListPositions(ctx context.Context, accountID int64) ([]ledger.Position, error)
}

// Reconstructor folds an account's trade ledger into a valuation timeline.
type Reconstructor struct {
	positions PositionReader
	live      pricing.Source
}

func NewReconstructor(positions PositionReader, quotes interfaces.CandleProvider, logger *logrus.Logger) *Reconstructor {
	return &Reconstructor{
		positions: positions,
		live:      pricing.NewLive(quotes, logger),
	}
}

// Reconstruct returns one point per timestamp, in input order. trades must
// be sorted by trade time. Every checkpoint except the last is derived
// from the ledger alone; the last one reflects the account's current cash
// and live positions.
func (r *Reconstructor) Reconstruct(ctx context.Context, account ledger.Account, trades []ledger.Trade, timestamps []time.Time, prices pricing.Source) ([]domain.Point, error) {
	points := make([]domain.Point, 0, len(timestamps))
	if len(trades) == 0 {
		for _, ts := range timestamps {
			points = append(points, newPoint(account, ts, account.InitialCapital, decimal.Zero))
		}
		return points, nil
	}

	last := len(timestamps) - 1
	for i, ts := range timestamps {
		if i == last {
			positionsValue, err := r.liveEquity(ctx, account.ID, ts)
			if err != nil {
				return nil, err
			}
			points = append(points, newPoint(account, ts, account.CurrentCash, positionsValue))
			continue
		}

		cashDelta, holdings := foldTrades(trades, ts)
		positionsValue := decimal.Zero
		for _, h := range holdings {
			if !h.quantity.IsPositive() {
				continue
			}
			price, ok := prices.PriceAt(ctx, h.instrument, ts)
			if !ok {
				continue
			}
			positionsValue = positionsValue.Add(h.quantity.Mul(price))
		}
		points = append(points, newPoint(account, ts, account.InitialCapital.Add(cashDelta), positionsValue))
	}
	return points, nil
}

type holding struct {
	instrument ledger.Instrument
	quantity   decimal.Decimal
}

// foldTrades accumulates the cash delta and net quantities of all trades
// executed at or before ts. Holdings keep first-trade order.
func foldTrades(trades []ledger.Trade, ts time.Time) (decimal.Decimal, []holding) {
	cashDelta := decimal.Zero
	index := make(map[ledger.Instrument]int)
	var holdings []holding
	for _, trade := range trades {
		if trade.TradeTime.After(ts) {
			break
		}
		cashDelta = cashDelta.Add(trade.CashFlow())
		inst := trade.Instrument()
		i, ok := index[inst]
		if !ok {
			i = len(holdings)
			index[inst] = i
			holdings = append(holdings, holding{instrument: inst, quantity: decimal.Zero})
		}
		holdings[i].quantity = holdings[i].quantity.Add(trade.SignedQuantity())
	}
	return cashDelta, holdings
}

func (r *Reconstructor) liveEquity(ctx context.Context, accountID int64, at time.Time) (decimal.Decimal, error) {
	positions, err := r.positions.ListPositions(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list positions for account %d: %w", accountID, err)
	}
	return pricing.LongEquity(ctx, r.live, positions, at), nil
}

func newPoint(account ledger.Account, ts time.Time, cash, positionsValue decimal.Decimal) domain.Point {
	total := cash.Add(positionsValue)
	profit := total.Sub(account.InitialCapital)
	pct := decimal.Zero
	if account.InitialCapital.IsPositive() {
		pct = profit.Div(account.InitialCapital).Mul(hundred)
	}
	return domain.Point{
		Timestamp:        ts,
		AccountID:        account.ID,
		AccountName:      account.Name,
		Cash:             cash,
		PositionsValue:   positionsValue,
		TotalAssets:      total,
		InitialCapital:   account.InitialCapital,
		Profit:           profit,
		ProfitPercentage: pct,
		IsActive:         account.IsActive,
	}
}
