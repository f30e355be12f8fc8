package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "papertrader/internal/domain/entity/marketdata"
	"papertrader/internal/infrastructure/memory"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func candle(d int, price int64) domain.Candle {
	p := decimal.NewFromInt(price)
	return domain.Candle{Timestamp: day(d), Open: p, High: p, Low: p, Close: p}
}

func TestGetCandlesPersistsRemoteResult(t *testing.T) {
	logger, _ := test.NewNullLogger()
	remote := memory.NewCandleFeed()
	remote.SetCandles("BTCUSDT", "CRYPTO", domain.Period1d, []domain.Candle{candle(1, 100), candle(2, 110)})
	store := memory.NewKlineStore()
	svc := NewService(remote, store, nil, logger)

	got, err := svc.GetCandles(context.Background(), domain.Request{Symbol: "BTCUSDT", Market: "CRYPTO", Period: domain.Period1d, Count: 10})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	stored, err := store.GetLastCandles(context.Background(), "BTCUSDT", "CRYPTO", domain.Period1d, 10)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestGetCandlesFallsBackToStore(t *testing.T) {
	logger, hook := test.NewNullLogger()
	remote := memory.NewCandleFeed()
	remote.Err = errors.New("upstream down")
	store := memory.NewKlineStore()
	require.NoError(t, store.AddCandles(context.Background(), []domain.StoredCandle{
		{Symbol: "SBER", Market: "MOEX", Period: domain.Period1d, Candle: candle(1, 250)},
		{Symbol: "SBER", Market: "MOEX", Period: domain.Period1d, Candle: candle(2, 260)},
		{Symbol: "SBER", Market: "MOEX", Period: domain.Period1d, Candle: candle(3, 270)},
	}))
	svc := NewService(remote, store, nil, logger)

	since := day(2)
	got, err := svc.GetCandles(context.Background(), domain.Request{Symbol: "SBER", Market: "MOEX", Period: domain.Period1d, Count: 5, Since: &since})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day(2), got[0].Timestamp)
	assert.NotEmpty(t, hook.AllEntries())
}

func TestGetCandlesReturnsRemoteErrorWhenStoreEmpty(t *testing.T) {
	logger, _ := test.NewNullLogger()
	remote := memory.NewCandleFeed()
	remote.Err = errors.New("upstream down")
	svc := NewService(remote, memory.NewKlineStore(), nil, logger)

	_, err := svc.GetCandles(context.Background(), domain.Request{Symbol: "SBER", Market: "MOEX", Period: domain.Period1d, Count: 5})
	assert.EqualError(t, err, "upstream down")
}

func TestGetCandlesValidatesRequest(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewService(memory.NewCandleFeed(), nil, nil, logger)

	_, err := svc.GetCandles(context.Background(), domain.Request{Symbol: "X", Period: domain.Period1d})
	assert.ErrorIs(t, err, ErrInvalidCount)

	_, err = svc.GetCandles(context.Background(), domain.Request{Symbol: "X", Period: "2w", Count: 1})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestGetLastPriceFallsBackToStoredClose(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := memory.NewKlineStore()
	require.NoError(t, store.AddCandles(context.Background(), []domain.StoredCandle{
		{Symbol: "ETHUSDT", Market: "CRYPTO", Period: domain.Period1d, Candle: candle(1, 2000)},
		{Symbol: "ETHUSDT", Market: "CRYPTO", Period: domain.Period1d, Candle: candle(2, 2100)},
	}))
	svc := NewService(memory.NewCandleFeed(), store, nil, logger)

	price, ok, err := svc.GetLastPrice(context.Background(), "ETHUSDT", "CRYPTO")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2100", price.String())

	_, ok, err = svc.GetLastPrice(context.Background(), "DOGEUSDT", "CRYPTO")
	require.NoError(t, err)
	assert.False(t, ok)
}

type recordingSink struct {
	batches [][]domain.StoredCandle
}

func (r *recordingSink) AddCandles(candles []domain.StoredCandle) error {
	r.batches = append(r.batches, candles)
	return nil
}

func TestGetCandlesUsesSinkWhenConfigured(t *testing.T) {
	logger, _ := test.NewNullLogger()
	remote := memory.NewCandleFeed()
	remote.SetCandles("BTCUSDT", "CRYPTO", domain.Period1h, []domain.Candle{candle(1, 100)})
	store := memory.NewKlineStore()
	sink := &recordingSink{}
	svc := NewService(remote, store, sink, logger)

	_, err := svc.GetCandles(context.Background(), domain.Request{Symbol: "BTCUSDT", Market: "CRYPTO", Period: domain.Period1h, Count: 1})
	require.NoError(t, err)
	require.Len(t, sink.batches, 1)
	assert.Equal(t, domain.Period1h, sink.batches[0][0].Period)

	stored, _ := store.GetLastCandles(context.Background(), "BTCUSDT", "CRYPTO", domain.Period1h, 1)
	assert.Empty(t, stored)
}
