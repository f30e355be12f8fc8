package replay

import (
	"context"
	"fmt"
	"time"

	marketdata "papertrader/internal/domain/entity/marketdata"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	minDailyCandles   = 20
	maxDailyCandles   = 500
	dailyCandleBuffer = 5
)

// ResolvePrice returns the daily price of an instrument at ts, clamped to
// the replayed span. Prices are cached per day for the session lifetime.
// A false result with a nil error means no candle covers the span.
func (c *Controller) ResolvePrice(ctx context.Context, symbol, market string, ts time.Time) (decimal.Decimal, bool, error) {
	c.mu.Lock()
	sess := c.session
	if sess == nil {
		c.mu.Unlock()
		return decimal.Zero, false, ErrNotActive
	}
	start, current := sess.state.Start, sess.state.Current
	if ts.Before(start) {
		ts = start
	}
	if ts.After(current) {
		ts = current
	}
	day := dayOf(ts)
	key := priceKey{symbol: symbol, market: market, day: day.Unix()}
	if price, ok := sess.cache[key]; ok {
		c.mu.Unlock()
		return price, true, nil
	}
	c.mu.Unlock()

	since := start
	candles, err := c.candles.GetCandles(ctx, marketdata.Request{
		Symbol: symbol,
		Market: market,
		Period: marketdata.Period1d,
		Count:  dailyCandleCount(start, current),
		Since:  &since,
	})
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("fetch daily candles for %s/%s: %w", symbol, market, err)
	}

	price, ok := nearestDailyPrice(candles, start, current, day)
	if !ok {
		c.logger.WithFields(logrus.Fields{
			"symbol": symbol,
			"market": market,
			"day":    day,
		}).Debug("no daily candles inside replay span")
		return decimal.Zero, false, nil
	}

	c.mu.Lock()
	if c.session == sess {
		sess.cache[key] = price
	}
	c.mu.Unlock()
	return price, true, nil
}

// dailyCandleCount sizes the fetch to cover the replayed days plus a buffer.
func dailyCandleCount(start, current time.Time) int {
	days := int(current.Sub(start)/(24*time.Hour)) + 1
	count := days + dailyCandleBuffer
	if count < minDailyCandles {
		count = minDailyCandles
	}
	if count > maxDailyCandles {
		count = maxDailyCandles
	}
	return count
}

// nearestDailyPrice picks the candle inside [start, current] whose day is
// closest to day. The first candle wins on equal distance.
func nearestDailyPrice(candles []marketdata.Candle, start, current, day time.Time) (decimal.Decimal, bool) {
	var (
		best    *marketdata.Candle
		minDiff time.Duration
	)
	for i := range candles {
		ts := candles[i].Timestamp
		if ts.Before(start) || ts.After(current) {
			continue
		}
		diff := dayOf(ts).Sub(day)
		if diff < 0 {
			diff = -diff
		}
		if best == nil || diff < minDiff {
			best = &candles[i]
			minDiff = diff
		}
	}
	if best == nil {
		return decimal.Zero, false
	}
	return best.Price(), true
}
