package broker

import (
	"context"
	"errors"
	"sync"
	"time"

	ledger "papertrader/internal/domain/entity/ledger"
	marketdata "papertrader/internal/domain/entity/marketdata"
	interfaces "papertrader/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// BatchConfig controls batching thresholds for write-behind persistence.
type BatchConfig struct {
	Size    int
	Timeout time.Duration
}

// BatchWriter buffers fetched candles and consumed fills and flushes them
// to their stores. Either store may be nil, which disables that stream.
type BatchWriter struct {
	candles *batchBuffer[marketdata.StoredCandle]
	fills   *batchBuffer[ledger.Trade]
}

// NewBatchWriter configures buffers for the stores that are present.
func NewBatchWriter(cfg BatchConfig, klines interfaces.CandleStore, trades interfaces.TradeLedger, logger *logrus.Logger) *BatchWriter {
	componentLogger := logger.WithField("component", "batch_writer")
	b := &BatchWriter{}
	if klines != nil {
		b.candles = newBatchBuffer(cfg, klines.AddCandles, componentLogger.WithField("entity", "candle"))
	}
	if trades != nil {
		b.fills = newBatchBuffer(cfg, trades.AppendTrades, componentLogger.WithField("entity", "fill"))
	}
	return b
}

// Run sets the base context for asynchronous flush operations.
func (b *BatchWriter) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.candles != nil {
		b.candles.setContext(ctx)
	}
	if b.fills != nil {
		b.fills.setContext(ctx)
	}
}

// Stop flushes remaining buffers using the provided context.
func (b *BatchWriter) Stop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	if b.candles != nil {
		b.candles.setContext(ctx)
		if err := b.candles.drain(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if b.fills != nil {
		b.fills.setContext(ctx)
		if err := b.fills.drain(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AddCandles appends fetched candles to the kline buffer.
func (b *BatchWriter) AddCandles(candles []marketdata.StoredCandle) error {
	if b.candles == nil {
		return errors.New("kline batching is disabled")
	}
	for _, c := range candles {
		if err := b.candles.enqueue(c); err != nil {
			return err
		}
	}
	return nil
}

// AddFill appends a consumed trade to the fill buffer.
func (b *BatchWriter) AddFill(trade *ledger.Trade) error {
	if trade == nil {
		return errors.New("trade is nil")
	}
	if b.fills == nil {
		return errors.New("fill batching is disabled")
	}
	return b.fills.enqueue(*trade)
}

type batchBuffer[T any] struct {
	cfg     BatchConfig
	mu      sync.Mutex
	items   []T
	timer   *time.Timer
	flushFn func(context.Context, []T) error
	logger  *logrus.Entry
	ctx     context.Context
}

func newBatchBuffer[T any](cfg BatchConfig, flushFn func(context.Context, []T) error, logger *logrus.Entry) *batchBuffer[T] {
	return &batchBuffer[T]{
		cfg:     cfg,
		flushFn: flushFn,
		logger:  logger,
	}
}

func (bb *batchBuffer[T]) setContext(ctx context.Context) {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	bb.ctx = ctx
}

func (bb *batchBuffer[T]) enqueue(item T) error {
	bb.mu.Lock()
	ctx := bb.ctx
	if ctx == nil {
		bb.mu.Unlock()
		return errors.New("batch buffer is not running")
	}
	if err := ctx.Err(); err != nil {
		bb.mu.Unlock()
		return err
	}
	bb.items = append(bb.items, item)
	var batch []T
	limit := bb.cfg.Size
	if limit <= 0 {
		limit = 1
	}
	if len(bb.items) >= limit {
		batch = bb.takeBatchLocked()
	} else if bb.timer == nil && bb.cfg.Timeout > 0 {
		bb.startTimerLocked()
	}
	bb.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return bb.flushWithContext(ctx, batch)
}

func (bb *batchBuffer[T]) startTimerLocked() {
	timeout := bb.cfg.Timeout
	if timeout <= 0 {
		return
	}
	bb.timer = time.AfterFunc(timeout, func() {
		batch := bb.takeBatch()
		if len(batch) == 0 {
			return
		}
		if err := bb.flushWithCurrentContext(batch); err != nil && bb.logger != nil {
			bb.logger.WithError(err).Warn("batch flush failed")
		}
	})
}

func (bb *batchBuffer[T]) takeBatch() []T {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	return bb.takeBatchLocked()
}

func (bb *batchBuffer[T]) takeBatchLocked() []T {
	if bb.timer != nil {
		bb.timer.Stop()
		bb.timer = nil
	}
	if len(bb.items) == 0 {
		return nil
	}
	batch := make([]T, len(bb.items))
	copy(batch, bb.items)
	bb.items = bb.items[:0]
	return batch
}

func (bb *batchBuffer[T]) flushWithCurrentContext(batch []T) error {
	bb.mu.Lock()
	ctx := bb.ctx
	bb.mu.Unlock()
	return bb.flushWithContext(ctx, batch)
}

func (bb *batchBuffer[T]) flushWithContext(ctx context.Context, batch []T) error {
	if len(batch) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	if err := bb.flushFn(ctx, batch); err != nil {
		return err
	}
	if bb.logger != nil {
		bb.logger.WithFields(logrus.Fields{
			"size":    len(batch),
			"took_ms": time.Since(start).Milliseconds(),
		}).Debug("flushed batch")
	}
	return nil
}

func (bb *batchBuffer[T]) drain(ctx context.Context) error {
	batch := bb.takeBatch()
	if len(batch) == 0 {
		return nil
	}
	return bb.flushWithContext(ctx, batch)
}
