package broker

import (
	"context"
	"sync"
	"testing"
	"time"

	ledger "papertrader/internal/domain/entity/ledger"
	marketdata "papertrader/internal/domain/entity/marketdata"
	"papertrader/internal/infrastructure/memory"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedCandle(hour int) marketdata.StoredCandle {
	return marketdata.StoredCandle{
		Symbol: "BTCUSDT",
		Market: ledger.MarketCrypto,
		Period: marketdata.Period1h,
		Candle: marketdata.Candle{
			Timestamp: time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC),
			Close:     decimal.NewFromInt(int64(100 + hour)),
		},
	}
}

func TestBatchWriterFlushesOnSize(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := memory.NewKlineStore()
	writer := NewBatchWriter(BatchConfig{Size: 2, Timeout: time.Hour}, store, nil, logger)
	writer.Run(context.Background())

	require.NoError(t, writer.AddCandles([]marketdata.StoredCandle{storedCandle(0)}))
	got, _ := store.GetLastCandles(context.Background(), "BTCUSDT", ledger.MarketCrypto, marketdata.Period1h, 10)
	assert.Empty(t, got)

	require.NoError(t, writer.AddCandles([]marketdata.StoredCandle{storedCandle(1)}))
	got, _ = store.GetLastCandles(context.Background(), "BTCUSDT", ledger.MarketCrypto, marketdata.Period1h, 10)
	assert.Len(t, got, 2)

	require.NoError(t, writer.Stop(context.Background()))
}

func TestBatchWriterFlushesOnStop(t *testing.T) {
	logger, _ := test.NewNullLogger()
	trades := memory.NewLedger()
	writer := NewBatchWriter(BatchConfig{Size: 100, Timeout: time.Hour}, nil, trades, logger)
	writer.Run(context.Background())

	fill := &ledger.Trade{
		AccountID: 1,
		Symbol:    "BTCUSDT",
		Market:    ledger.MarketCrypto,
		Side:      ledger.SideBuy,
		Price:     decimal.NewFromInt(100),
		Quantity:  decimal.NewFromInt(1),
		TradeTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, writer.AddFill(fill))

	got, err := trades.TradesForAccount(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, writer.Stop(context.Background()))
	got, err = trades.TradesForAccount(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBatchWriterRejectsBeforeRun(t *testing.T) {
	logger, _ := test.NewNullLogger()
	writer := NewBatchWriter(BatchConfig{Size: 1}, memory.NewKlineStore(), nil, logger)

	err := writer.AddCandles([]marketdata.StoredCandle{storedCandle(0)})
	assert.EqualError(t, err, "batch buffer is not running")
	assert.EqualError(t, writer.AddFill(&ledger.Trade{}), "fill batching is disabled")
}

type blockingStore struct {
	*memory.KlineStore
	mu      sync.Mutex
	batches int
	flushed chan struct{}
}

func (b *blockingStore) AddCandles(ctx context.Context, candles []marketdata.StoredCandle) error {
	b.mu.Lock()
	b.batches++
	b.mu.Unlock()
	defer func() { b.flushed <- struct{}{} }()
	return b.KlineStore.AddCandles(ctx, candles)
}

func TestBatchWriterFlushesOnTimeout(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := &blockingStore{KlineStore: memory.NewKlineStore(), flushed: make(chan struct{}, 1)}
	writer := NewBatchWriter(BatchConfig{Size: 100, Timeout: 10 * time.Millisecond}, store, nil, logger)
	writer.Run(context.Background())

	require.NoError(t, writer.AddCandles([]marketdata.StoredCandle{storedCandle(0)}))
	select {
	case <-store.flushed:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout flush did not happen")
	}
	store.mu.Lock()
	assert.Equal(t, 1, store.batches)
	store.mu.Unlock()
}
