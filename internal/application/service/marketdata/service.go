package marketdata

import (
	"context"
	"errors"
	"time"

	marketdata "papertrader/internal/domain/entity/marketdata"
	interfaces "papertrader/internal/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCount  = errors.New("candle count must be positive")
	ErrInvalidPeriod = errors.New("unsupported candle period")
)

// CandleSink accepts candles for asynchronous persistence.
type CandleSink interface {
	AddCandles(candles []marketdata.StoredCandle) error
}

// Service reads candles from the remote provider and keeps a copy in the
// kline store, which serves reads while the provider is unavailable.
type Service struct {
	remote interfaces.CandleProvider
	store  interfaces.CandleStore
	sink   CandleSink
	logger *logrus.Entry
}

var _ interfaces.CandleProvider = (*Service)(nil)

// NewService wires the provider and store. A nil sink makes persistence
// synchronous; a nil store disables persistence and fallback.
func NewService(remote interfaces.CandleProvider, store interfaces.CandleStore, sink CandleSink, logger *logrus.Logger) *Service {
	return &Service{
		remote: remote,
		store:  store,
		sink:   sink,
		logger: logger.WithField("component", "marketdata"),
	}
}

func (s *Service) GetCandles(ctx context.Context, req marketdata.Request) ([]marketdata.Candle, error) {
	if req.Count <= 0 {
		return nil, ErrInvalidCount
	}
	if !req.Period.IsValid() {
		return nil, ErrInvalidPeriod
	}

	candles, err := s.remote.GetCandles(ctx, req)
	if err == nil {
		s.persist(ctx, req, candles)
		return candles, nil
	}
	if s.store == nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"symbol": req.Symbol,
		"market": req.Market,
		"period": req.Period,
	})
	log.WithError(err).Warn("remote candles unavailable, reading kline store")

	var stored []marketdata.Candle
	var storeErr error
	if req.Since != nil {
		stored, storeErr = s.store.GetCandlesSince(ctx, req.Symbol, req.Market, req.Period, *req.Since, req.Count)
	} else {
		stored, storeErr = s.store.GetLastCandles(ctx, req.Symbol, req.Market, req.Period, req.Count)
	}
	if storeErr != nil {
		log.WithError(storeErr).Warn("kline store read failed")
		return nil, err
	}
	if len(stored) == 0 {
		return nil, err
	}
	return stored, nil
}

// GetLastPrice prefers the remote quote and falls back to the close of
// the latest stored daily candle.
func (s *Service) GetLastPrice(ctx context.Context, symbol, market string) (decimal.Decimal, bool, error) {
	price, ok, err := s.remote.GetLastPrice(ctx, symbol, market)
	if err == nil && ok {
		return price, true, nil
	}
	if s.store == nil {
		return price, ok, err
	}
	stored, storeErr := s.store.GetLastCandles(ctx, symbol, market, marketdata.Period1d, 1)
	if storeErr != nil || len(stored) == 0 {
		return price, ok, err
	}
	last := stored[len(stored)-1].Price()
	if !last.IsPositive() {
		return price, ok, err
	}
	s.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"market": market,
		"as_of":  stored[len(stored)-1].Timestamp.Format(time.RFC3339),
	}).Debug("last price served from kline store")
	return last, true, nil
}

func (s *Service) persist(ctx context.Context, req marketdata.Request, candles []marketdata.Candle) {
	if s.store == nil || len(candles) == 0 {
		return
	}
	batch := make([]marketdata.StoredCandle, 0, len(candles))
	for _, c := range candles {
		batch = append(batch, marketdata.StoredCandle{
			Symbol: req.Symbol,
			Market: req.Market,
			Period: req.Period,
			Candle: c,
		})
	}
	var err error
	if s.sink != nil {
		err = s.sink.AddCandles(batch)
	} else {
		err = s.store.AddCandles(ctx, batch)
	}
	if err != nil {
		s.logger.WithError(err).Warn("persist candles failed")
	}
}

func (s *Service) Close() {
	if s.store != nil {
		s.store.Close()
	}
}
