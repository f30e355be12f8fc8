package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	marketdata "papertrader/internal/domain/entity/marketdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedFixture(t *testing.T, advanceSeconds int64) *fixture {
	t.Helper()
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Start(ctx, defaultParams())
	require.NoError(t, err)
	if advanceSeconds > 0 {
		_, err = f.ctrl.Advance(ctx, advanceSeconds)
		require.NoError(t, err)
	}
	return f
}

func TestResolvePriceUsesCache(t *testing.T) {
	f := startedFixture(t, 2*86400) // current = 2024-01-05
	f.candles.SetCandles("BTC", "CRYPTO", marketdata.Period1d, []marketdata.Candle{
		dailyCandle(day(2024, 1, 1), 100, 101),
		dailyCandle(day(2024, 1, 2), 101, 102),
		dailyCandle(day(2024, 1, 3), 102, 103),
	})
	ctx := context.Background()

	first, ok, err := f.ctrl.ResolvePrice(ctx, "BTC", "CRYPTO", day(2024, 1, 2).Add(15*time.Hour))
	require.NoError(t, err)
	require.True(t, ok)
	second, ok, err := f.ctrl.ResolvePrice(ctx, "BTC", "CRYPTO", day(2024, 1, 2).Add(3*time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "102", first.String())
	assert.True(t, first.Equal(second))
	assert.EqualValues(t, 1, f.candles.Calls())
}

func TestResolvePriceTieKeepsFirstCandle(t *testing.T) {
	f := startedFixture(t, 2*86400)
	f.candles.SetCandles("ETH", "CRYPTO", marketdata.Period1d, []marketdata.Candle{
		dailyCandle(day(2024, 1, 1), 10, 11),
		dailyCandle(day(2024, 1, 3), 30, 33),
	})

	price, ok, err := f.ctrl.ResolvePrice(context.Background(), "ETH", "CRYPTO", day(2024, 1, 2))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "11", price.String())
}

func TestResolvePriceFallsBackToOpen(t *testing.T) {
	f := startedFixture(t, 0)
	f.candles.SetCandles("SOL", "CRYPTO", marketdata.Period1d, []marketdata.Candle{
		dailyCandle(day(2024, 1, 1), 42, 0),
	})

	price, ok, err := f.ctrl.ResolvePrice(context.Background(), "SOL", "CRYPTO", day(2024, 1, 1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "42", price.String())
}

func TestResolvePriceClampsToReplayedSpan(t *testing.T) {
	f := startedFixture(t, 43200) // current = 2024-01-02
	f.candles.SetCandles("BTC", "CRYPTO", marketdata.Period1d, []marketdata.Candle{
		dailyCandle(day(2024, 1, 1), 1, 10),
		dailyCandle(day(2024, 1, 2), 1, 20),
		dailyCandle(day(2024, 1, 8), 1, 80),
	})

	price, ok, err := f.ctrl.ResolvePrice(context.Background(), "BTC", "CRYPTO", day(2024, 1, 9))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "20", price.String(), "future candles are outside the replayed span")
}

func TestResolvePriceWithoutCandlesIsUnavailable(t *testing.T) {
	f := startedFixture(t, 0)

	_, ok, err := f.ctrl.ResolvePrice(context.Background(), "DOGE", "CRYPTO", day(2024, 1, 1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolvePriceReturnsFetchError(t *testing.T) {
	f := startedFixture(t, 0)
	f.candles.Err = errors.New("exchange timeout")

	_, ok, err := f.ctrl.ResolvePrice(context.Background(), "BTC", "CRYPTO", day(2024, 1, 1))
	require.Error(t, err)
	assert.False(t, ok)
}

func TestResolvePriceRequiresActiveSession(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.ctrl.ResolvePrice(context.Background(), "BTC", "CRYPTO", day(2024, 1, 1))
	require.ErrorIs(t, err, ErrNotActive)
}

func TestDailyCandleCount(t *testing.T) {
	assert.Equal(t, 20, dailyCandleCount(day(2024, 1, 1), day(2024, 1, 3)))
	assert.Equal(t, 46, dailyCandleCount(day(2024, 1, 1), day(2024, 2, 10)))
	assert.Equal(t, 500, dailyCandleCount(day(2020, 1, 1), day(2024, 1, 1)))
}
