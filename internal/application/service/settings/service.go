package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"papertrader/internal/application/service/replay"
	interfaces "papertrader/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

const (
	MinTradingInterval = 60
	MaxTradingInterval = 3600
)

var ErrIntervalOutOfRange = errors.New("trading interval must be between 60 and 3600 seconds")

// Service manages the automated trading cadence.
type Service struct {
	store   interfaces.ConfigStore
	cadence interfaces.CadenceResetter
	logger  *logrus.Entry
}

func NewService(store interfaces.ConfigStore, cadence interfaces.CadenceResetter, logger *logrus.Logger) *Service {
	return &Service{store: store, cadence: cadence, logger: logger.WithField("component", "settings")}
}

// TradingInterval returns the configured interval in seconds, or the
// default when the stored value is missing or malformed.
func (s *Service) TradingInterval(ctx context.Context) (int, error) {
	raw, ok, err := s.store.Get(ctx, replay.KeyTradingInterval)
	if err != nil {
		return 0, fmt.Errorf("read trading interval: %w", err)
	}
	if !ok || raw == "" {
		return replay.DefaultIntervalSeconds, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		s.logger.WithField("value", raw).Warn("invalid trading interval value")
		return replay.DefaultIntervalSeconds, nil
	}
	return seconds, nil
}

func (s *Service) SetTradingInterval(ctx context.Context, seconds int) error {
	if seconds < MinTradingInterval || seconds > MaxTradingInterval {
		return ErrIntervalOutOfRange
	}
	if err := s.store.Set(ctx, replay.KeyTradingInterval, strconv.Itoa(seconds), "Auto trading interval in seconds (60-3600)"); err != nil {
		return fmt.Errorf("save trading interval: %w", err)
	}
	s.logger.WithField("interval_seconds", seconds).Info("trading interval updated")
	if s.cadence != nil {
		if err := s.cadence.ResetCadence(ctx, seconds); err != nil {
			s.logger.WithError(err).Warn("reset trading cadence after interval update")
		}
	}
	return nil
}
