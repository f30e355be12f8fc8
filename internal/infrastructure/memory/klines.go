package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	marketdata "papertrader/internal/domain/entity/marketdata"
	interfaces "papertrader/internal/domain/interfaces"
)

// KlineStore is an in-memory CandleStore keyed by symbol, market and period.
type KlineStore struct {
	mu      sync.RWMutex
	candles map[string]map[int64]marketdata.Candle
}

var _ interfaces.CandleStore = (*KlineStore)(nil)

func NewKlineStore() *KlineStore {
	return &KlineStore{candles: make(map[string]map[int64]marketdata.Candle)}
}

func klineKey(symbol, market string, period marketdata.Period) string {
	return market + ":" + symbol + ":" + string(period)
}

func (s *KlineStore) AddCandles(_ context.Context, candles []marketdata.StoredCandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range candles {
		key := klineKey(c.Symbol, c.Market, c.Period)
		series, ok := s.candles[key]
		if !ok {
			series = make(map[int64]marketdata.Candle)
			s.candles[key] = series
		}
		series[c.Timestamp.UnixNano()] = c.Candle
	}
	return nil
}

func (s *KlineStore) sorted(symbol, market string, period marketdata.Period) []marketdata.Candle {
	series := s.candles[klineKey(symbol, market, period)]
	out := make([]marketdata.Candle, 0, len(series))
	for _, c := range series {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (s *KlineStore) GetCandlesSince(_ context.Context, symbol, market string, period marketdata.Period, since time.Time, limit int) ([]marketdata.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []marketdata.Candle
	for _, c := range s.sorted(symbol, market, period) {
		if c.Timestamp.Before(since) {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *KlineStore) GetLastCandles(_ context.Context, symbol, market string, period marketdata.Period, limit int) ([]marketdata.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.sorted(symbol, market, period)
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (s *KlineStore) Close() {}
