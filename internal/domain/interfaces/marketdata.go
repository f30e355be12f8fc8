package interfaces

import (
	"context"
	"time"

	marketdata "papertrader/internal/domain/entity/marketdata"

	"github.com/shopspring/decimal"
)

// CandleProvider is the external market data source.
type CandleProvider interface {
	GetCandles(ctx context.Context, req marketdata.Request) ([]marketdata.Candle, error)
	GetLastPrice(ctx context.Context, symbol, market string) (decimal.Decimal, bool, error)
}

// CandleStore persists fetched candles.
type CandleStore interface {
	AddCandles(ctx context.Context, candles []marketdata.StoredCandle) error
	GetCandlesSince(ctx context.Context, symbol, market string, period marketdata.Period, since time.Time, limit int) ([]marketdata.Candle, error)
	GetLastCandles(ctx context.Context, symbol, market string, period marketdata.Period, limit int) ([]marketdata.Candle, error)
	Close()
}
