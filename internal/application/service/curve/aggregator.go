package curve

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"papertrader/internal/application/service/pricing"
	domain "papertrader/internal/domain/entity/curve"
	ledger "papertrader/internal/domain/entity/ledger"
	marketdata "papertrader/internal/domain/entity/marketdata"
	interfaces "papertrader/internal/domain/interfaces"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// LiveGridCandles is the number of recent candles that shape the grid
// outside of replay.
const LiveGridCandles = 20

var ErrAccountNotFound = ledger.ErrAccountNotFound

// Session exposes the replay window and historical prices.
type Session interface {
	pricing.SessionPricer
	Window() (start, current time.Time, ok bool)
}

type Aggregator struct {
	accounts      interfaces.AccountStore
	trades        interfaces.TradeLedger
	candles       interfaces.CandleProvider
	session       Session
	historical    *pricing.Historical
	reconstructor *Reconstructor
	logger        *logrus.Entry
	now           func() time.Time
	workers       int
}

func NewAggregator(accounts interfaces.AccountStore, trades interfaces.TradeLedger, candles interfaces.CandleProvider, session Session, logger *logrus.Logger) *Aggregator {
	return &Aggregator{
		accounts:      accounts,
		trades:        trades,
		candles:       candles,
		session:       session,
		historical:    pricing.NewHistorical(session, logger),
		reconstructor: NewReconstructor(accounts, candles, logger),
		logger:        logger.WithField("component", "curve_aggregator"),
		now:           time.Now,
		workers:       8,
	}
}

// AllAccounts returns the curves of every account, paused ones included,
// sorted by timestamp then account id.
func (a *Aggregator) AllAccounts(ctx context.Context, tf domain.Timeframe) ([]domain.Point, error) {
	accounts, err := a.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return []domain.Point{}, nil
	}
	return a.build(ctx, accounts, nil, tf)
}

func (a *Aggregator) SingleAccount(ctx context.Context, accountID int64, tf domain.Timeframe) ([]domain.Point, error) {
	account, err := a.accounts.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, fmt.Errorf("account %d: %w", accountID, ErrAccountNotFound)
		}
		return nil, fmt.Errorf("get account %d: %w", accountID, err)
	}
	return a.build(ctx, []ledger.Account{*account}, &accountID, tf)
}

func (a *Aggregator) build(ctx context.Context, accounts []ledger.Account, accountID *int64, tf domain.Timeframe) ([]domain.Point, error) {
	tf = domain.ParseTimeframe(string(tf))
	start, current, replaying := a.session.Window()

	var window *ledger.Window
	if replaying {
		window = &ledger.Window{From: start, To: current}
	}
	instruments, err := a.trades.TradedInstruments(ctx, accountID, window)
	if err != nil {
		return nil, fmt.Errorf("list traded instruments: %w", err)
	}
	if len(instruments) == 0 {
		return fallbackPoints(accounts, a.now().UTC()), nil
	}
	sort.Slice(instruments, func(i, j int) bool { return instruments[i].Less(instruments[j]) })

	var (
		grid   []time.Time
		prices *pricing.Series
	)
	if replaying {
		grid = ReplayGrid(start, current, tf)
		prices, err = a.historicalSeries(ctx, instruments, grid)
	} else {
		grid, prices = a.recentSeries(ctx, instruments, tf)
	}
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 || prices.Len() == 0 {
		at := a.now().UTC()
		if replaying {
			at = startOfDay(start)
		}
		a.logger.WithFields(logrus.Fields{
			"instruments": len(instruments),
			"replay":      replaying,
		}).Warn("no price data for traded instruments, using initial capital")
		return fallbackPoints(accounts, at), nil
	}

	points, err := a.reconstructAll(ctx, accounts, window, grid, prices)
	if err != nil {
		return nil, err
	}
	SortPoints(points)
	return points, nil
}

// historicalSeries resolves every instrument at every grid checkpoint
// through the replay session.
func (a *Aggregator) historicalSeries(ctx context.Context, instruments []ledger.Instrument, grid []time.Time) (*pricing.Series, error) {
	resolved := make([][]decimal.Decimal, len(instruments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, inst := range instruments {
		g.Go(func() error {
			row := make([]decimal.Decimal, len(grid))
			for j, ts := range grid {
				if price, ok := a.historical.PriceAt(gctx, inst, ts); ok {
					row[j] = price
				}
			}
			resolved[i] = row
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	series := pricing.NewSeries()
	for i, inst := range instruments {
		for j, ts := range grid {
			series.Set(inst, ts, resolved[i][j])
		}
	}
	return series, nil
}

// recentSeries fetches the latest candles for every instrument. The grid
// is taken from the first instrument that has data; other series are
// aligned to it by position.
func (a *Aggregator) recentSeries(ctx context.Context, instruments []ledger.Instrument, tf domain.Timeframe) ([]time.Time, *pricing.Series) {
	series := pricing.NewSeries()
	klines := make(map[ledger.Instrument][]marketdata.Candle, len(instruments))
	var grid []time.Time
	for _, inst := range instruments {
		candles, err := a.candles.GetCandles(ctx, marketdata.Request{
			Symbol: inst.Symbol,
			Market: inst.Market,
			Period: tf.Period(),
			Count:  LiveGridCandles,
		})
		if err != nil {
			a.logger.WithError(err).WithField("instrument", inst.String()).Warn("fetch recent candles")
			continue
		}
		if len(candles) == 0 {
			continue
		}
		klines[inst] = candles
		if grid == nil {
			grid = make([]time.Time, 0, len(candles))
			for _, c := range candles {
				grid = append(grid, c.Timestamp)
			}
		}
	}
	for inst, candles := range klines {
		for i, ts := range grid {
			if i >= len(candles) {
				break
			}
			series.Set(inst, ts, candles[i].Price())
		}
	}
	return grid, series
}

func (a *Aggregator) reconstructAll(ctx context.Context, accounts []ledger.Account, window *ledger.Window, grid []time.Time, prices pricing.Source) ([]domain.Point, error) {
	perAccount := make([][]domain.Point, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, account := range accounts {
		g.Go(func() error {
			trades, err := a.trades.TradesForAccount(gctx, account.ID, window)
			if err != nil {
				return fmt.Errorf("load trades for account %d: %w", account.ID, err)
			}
			points, err := a.reconstructor.Reconstruct(gctx, account, trades, grid, prices)
			if err != nil {
				return err
			}
			perAccount[i] = points
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []domain.Point
	for _, points := range perAccount {
		out = append(out, points...)
	}
	return out, nil
}

// SortPoints orders points by timestamp, then account id.
func SortPoints(points []domain.Point) {
	sort.SliceStable(points, func(i, j int) bool {
		if !points[i].Timestamp.Equal(points[j].Timestamp) {
			return points[i].Timestamp.Before(points[j].Timestamp)
		}
		return points[i].AccountID < points[j].AccountID
	})
}

func fallbackPoints(accounts []ledger.Account, at time.Time) []domain.Point {
	points := make([]domain.Point, 0, len(accounts))
	for _, account := range accounts {
		points = append(points, domain.Point{
			Timestamp:        at,
			AccountID:        account.ID,
			AccountName:      account.Name,
			Cash:             account.InitialCapital,
			PositionsValue:   decimal.Zero,
			TotalAssets:      account.InitialCapital,
			InitialCapital:   account.InitialCapital,
			Profit:           decimal.Zero,
			ProfitPercentage: decimal.Zero,
			IsActive:         account.IsActive,
		})
	}
	SortPoints(points)
	return points
}
