package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"papertrader/internal/application/service/pricing"
	domain "papertrader/internal/domain/entity/curve"
	interfaces "papertrader/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Broadcaster values every account at live prices and fans the result out
// to the configured sinks.
type Broadcaster struct {
	accounts interfaces.AccountStore
	prices   pricing.Source
	sinks    []interfaces.SnapshotSink
	logger   *logrus.Entry
}

var _ interfaces.SnapshotBroadcaster = (*Broadcaster)(nil)

func NewBroadcaster(accounts interfaces.AccountStore, quotes interfaces.CandleProvider, logger *logrus.Logger, sinks ...interfaces.SnapshotSink) *Broadcaster {
	return &Broadcaster{
		accounts: accounts,
		prices:   pricing.NewLive(quotes, logger),
		sinks:    sinks,
		logger:   logger.WithField("component", "snapshot_broadcaster"),
	}
}

func (b *Broadcaster) Broadcast(ctx context.Context, virtualNow time.Time) error {
	snap, err := b.Snapshot(ctx, virtualNow)
	if err != nil {
		return err
	}
	var errs []error
	for _, sink := range b.sinks {
		if err := sink.PublishSnapshot(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Snapshot computes the live valuation of every account.
func (b *Broadcaster) Snapshot(ctx context.Context, virtualNow time.Time) (domain.Snapshot, error) {
	accounts, err := b.accounts.ListAccounts(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("list accounts: %w", err)
	}
	snap := domain.Snapshot{VirtualTime: virtualNow, Accounts: make([]domain.AccountValuation, 0, len(accounts))}
	for _, account := range accounts {
		positions, err := b.accounts.ListPositions(ctx, account.ID)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("list positions for account %d: %w", account.ID, err)
		}
		positionsValue := pricing.LongEquity(ctx, b.prices, positions, virtualNow)
		total := account.CurrentCash.Add(positionsValue)
		snap.Accounts = append(snap.Accounts, domain.AccountValuation{
			AccountID:      account.ID,
			AccountName:    account.Name,
			Cash:           account.CurrentCash,
			PositionsValue: positionsValue,
			TotalAssets:    total,
			Profit:         total.Sub(account.InitialCapital),
			IsActive:       account.IsActive,
		})
	}
	b.logger.WithFields(logrus.Fields{
		"virtual_time": virtualNow,
		"accounts":     len(snap.Accounts),
	}).Debug("snapshot computed")
	return snap, nil
}
