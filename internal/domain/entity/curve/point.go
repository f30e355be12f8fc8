package curve

import (
	"time"

	"github.com/shopspring/decimal"

	marketdata "papertrader/internal/domain/entity/marketdata"
)

// Timeframe is the spacing of checkpoints on an asset curve.
type Timeframe string

const (
	Timeframe5m Timeframe = "5m"
	Timeframe1h Timeframe = "1h"
	Timeframe1d Timeframe = "1d"

	DefaultTimeframe = Timeframe1h
)

// ParseTimeframe falls back to the default for empty or unknown input.
func ParseTimeframe(raw string) Timeframe {
	switch tf := Timeframe(raw); tf {
	case Timeframe5m, Timeframe1h, Timeframe1d:
		return tf
	default:
		return DefaultTimeframe
	}
}

func (tf Timeframe) Period() marketdata.Period {
	return marketdata.Period(ParseTimeframe(string(tf)))
}

func (tf Timeframe) Step() time.Duration {
	return tf.Period().Duration()
}

// Point is one account valuation at a checkpoint.
type Point struct {
	Timestamp        time.Time       `json:"timestamp"`
	AccountID        int64           `json:"account_id"`
	AccountName      string          `json:"account_name"`
	Cash             decimal.Decimal `json:"cash"`
	PositionsValue   decimal.Decimal `json:"positions_value"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	InitialCapital   decimal.Decimal `json:"initial_capital"`
	Profit           decimal.Decimal `json:"profit"`
	ProfitPercentage decimal.Decimal `json:"profit_percentage"`
	IsActive         bool            `json:"is_active"`
}
