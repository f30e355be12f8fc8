package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	ledger "papertrader/internal/domain/entity/ledger"
	marketdata "papertrader/internal/domain/entity/marketdata"
	interfaces "papertrader/internal/domain/interfaces"

	"github.com/shopspring/decimal"
)

type seriesKey struct {
	instrument ledger.Instrument
	period     marketdata.Period
}

// CandleFeed serves preloaded candles and last prices.
type CandleFeed struct {
	mu     sync.RWMutex
	series map[seriesKey][]marketdata.Candle
	last   map[ledger.Instrument]decimal.Decimal
	calls  atomic.Int64

	// Err, when set, is returned by every GetCandles call.
	Err error
}

var _ interfaces.CandleProvider = (*CandleFeed)(nil)

func NewCandleFeed() *CandleFeed {
	return &CandleFeed{
		series: make(map[seriesKey][]marketdata.Candle),
		last:   make(map[ledger.Instrument]decimal.Decimal),
	}
}

func (f *CandleFeed) SetCandles(symbol, market string, period marketdata.Period, candles []marketdata.Candle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sorted := make([]marketdata.Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
	f.series[seriesKey{instrument: ledger.Instrument{Symbol: symbol, Market: market}, period: period}] = sorted
}

func (f *CandleFeed) SetLastPrice(symbol, market string, price decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last[ledger.Instrument{Symbol: symbol, Market: market}] = price
}

// Calls returns how many GetCandles requests were served.
func (f *CandleFeed) Calls() int64 {
	return f.calls.Load()
}

func (f *CandleFeed) GetCandles(_ context.Context, req marketdata.Request) ([]marketdata.Candle, error) {
	f.calls.Add(1)
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	all := f.series[seriesKey{instrument: ledger.Instrument{Symbol: req.Symbol, Market: req.Market}, period: req.Period}]

	var out []marketdata.Candle
	if req.Since != nil {
		for _, candle := range all {
			if candle.Timestamp.Before(*req.Since) {
				continue
			}
			out = append(out, candle)
			if req.Count > 0 && len(out) == req.Count {
				break
			}
		}
		return out, nil
	}
	from := 0
	if req.Count > 0 && len(all) > req.Count {
		from = len(all) - req.Count
	}
	out = append(out, all[from:]...)
	return out, nil
}

func (f *CandleFeed) GetLastPrice(_ context.Context, symbol, market string) (decimal.Decimal, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	price, ok := f.last[ledger.Instrument{Symbol: symbol, Market: market}]
	return price, ok, nil
}
