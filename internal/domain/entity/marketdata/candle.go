package marketdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is a kline bar width.
type Period string

const (
	Period5m Period = "5m"
	Period1h Period = "1h"
	Period1d Period = "1d"
)

func (p Period) Duration() time.Duration {
	switch p {
	case Period5m:
		return 5 * time.Minute
	case Period1h:
		return time.Hour
	case Period1d:
		return 24 * time.Hour
	default:
		return 0
	}
}

func (p Period) IsValid() bool {
	return p.Duration() > 0
}

// Candle is an OHLCV bar opening at Timestamp.
type Candle struct {
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// Price returns the close, or the open for bars without a close.
func (c Candle) Price() decimal.Decimal {
	if c.Close.IsZero() {
		return c.Open
	}
	return c.Close
}

// Request describes a candle query. Since anchors the first bar; when nil
// the provider returns the most recent Count bars.
type Request struct {
	Symbol string
	Market string
	Period Period
	Count  int
	Since  *time.Time
}

// StoredCandle is a candle keyed by instrument and period for persistence.
type StoredCandle struct {
	Symbol string
	Market string
	Period Period
	Candle
}
