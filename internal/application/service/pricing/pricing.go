package pricing

import (
	"context"
	"time"

	ledger "papertrader/internal/domain/entity/ledger"
	interfaces "papertrader/internal/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Source resolves an instrument price at a checkpoint. A false result
// means the price is unavailable.
type Source interface {
	PriceAt(ctx context.Context, inst ledger.Instrument, ts time.Time) (decimal.Decimal, bool)
}

// SessionPricer is the replay capability the historical source depends on.
type SessionPricer interface {
	ResolvePrice(ctx context.Context, symbol, market string, ts time.Time) (decimal.Decimal, bool, error)
}

// Historical resolves prices through the replay session and never
// propagates fetch failures.
type Historical struct {
	session SessionPricer
	logger  *logrus.Entry
}

func NewHistorical(session SessionPricer, logger *logrus.Logger) *Historical {
	return &Historical{session: session, logger: logger.WithField("component", "historical_prices")}
}

func (h *Historical) PriceAt(ctx context.Context, inst ledger.Instrument, ts time.Time) (decimal.Decimal, bool) {
	price, ok, err := h.session.ResolvePrice(ctx, inst.Symbol, inst.Market, ts)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"symbol": inst.Symbol,
			"market": inst.Market,
			"ts":     ts,
		}).Warn("historical price unavailable")
		return decimal.Zero, false
	}
	if !ok || price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false
	}
	return price, true
}

// Live ignores the checkpoint and returns the latest traded price.
type Live struct {
	provider interfaces.CandleProvider
	logger   *logrus.Entry
}

func NewLive(provider interfaces.CandleProvider, logger *logrus.Logger) *Live {
	return &Live{provider: provider, logger: logger.WithField("component", "live_prices")}
}

func (l *Live) PriceAt(ctx context.Context, inst ledger.Instrument, _ time.Time) (decimal.Decimal, bool) {
	price, ok, err := l.provider.GetLastPrice(ctx, inst.Symbol, inst.Market)
	if err != nil {
		l.logger.WithError(err).WithField("instrument", inst.String()).Warn("last price unavailable")
		return decimal.Zero, false
	}
	if !ok || price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false
	}
	return price, true
}

// LongEquity sums the leveraged equity of long positions priced by src.
// Short and unpriced positions contribute nothing.
func LongEquity(ctx context.Context, src Source, positions []ledger.Position, at time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, pos := range positions {
		if !pos.Quantity.IsPositive() {
			continue
		}
		price, ok := src.PriceAt(ctx, pos.Instrument(), at)
		if !ok {
			continue
		}
		total = total.Add(pos.Equity(price))
	}
	return total
}

// Series serves prices precomputed for a fixed grid of checkpoints.
type Series struct {
	prices map[ledger.Instrument]map[int64]decimal.Decimal
}

func NewSeries() *Series {
	return &Series{prices: make(map[ledger.Instrument]map[int64]decimal.Decimal)}
}

// Set records a price. Non-positive prices are ignored.
func (s *Series) Set(inst ledger.Instrument, ts time.Time, price decimal.Decimal) {
	if price.LessThanOrEqual(decimal.Zero) {
		return
	}
	byTime, ok := s.prices[inst]
	if !ok {
		byTime = make(map[int64]decimal.Decimal)
		s.prices[inst] = byTime
	}
	byTime[ts.UnixNano()] = price
}

func (s *Series) Len() int {
	n := 0
	for _, byTime := range s.prices {
		n += len(byTime)
	}
	return n
}

func (s *Series) PriceAt(_ context.Context, inst ledger.Instrument, ts time.Time) (decimal.Decimal, bool) {
	price, ok := s.prices[inst][ts.UnixNano()]
	return price, ok
}
