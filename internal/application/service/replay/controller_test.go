package replay

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	ledger "papertrader/internal/domain/entity/ledger"
	marketdata "papertrader/internal/domain/entity/marketdata"
	interfaces "papertrader/internal/domain/interfaces"
	"papertrader/internal/infrastructure/memory"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ctrl    *Controller
	ledger  *memory.Ledger
	config  *memory.ConfigStore
	candles *memory.CandleFeed
	logs    *test.Hook
	cadence *recordingCadence
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	f := &fixture{
		ledger:  memory.NewLedger(),
		config:  memory.NewConfigStore(),
		candles: memory.NewCandleFeed(),
		logs:    hook,
		cadence: &recordingCadence{},
	}
	f.ctrl = NewController(f.ledger, f.config, f.candles, Hooks{Cadence: f.cadence}, logger)
	f.ctrl.now = func() time.Time { return fixedNow }
	return f
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func defaultParams() StartParams {
	return StartParams{
		Start:           day(2024, 1, 1),
		End:             day(2024, 1, 10),
		SpeedMultiplier: 2.0,
		IntervalDays:    1,
	}
}

type recordingCadence struct {
	calls []int
	err   error
}

func (r *recordingCadence) ResetCadence(_ context.Context, seconds int) error {
	r.calls = append(r.calls, seconds)
	return r.err
}

type recordingDecisions struct {
	requests []interfaces.DecisionRequest
	err      error
}

func (r *recordingDecisions) Decide(_ context.Context, req interfaces.DecisionRequest) error {
	r.requests = append(r.requests, req)
	return r.err
}

type recordingBroadcaster struct {
	times []time.Time
	err   error
}

func (r *recordingBroadcaster) Broadcast(_ context.Context, now time.Time) error {
	r.times = append(r.times, now)
	return r.err
}

func TestStartValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *StartParams)
	}{
		{name: "start equals end", mutate: func(p *StartParams) { p.End = p.Start }},
		{name: "start after end", mutate: func(p *StartParams) { p.Start = day(2024, 2, 1) }},
		{name: "end after today", mutate: func(p *StartParams) { p.End = fixedNow.AddDate(0, 0, 1) }},
		{name: "interval not allowed", mutate: func(p *StartParams) { p.IntervalDays = 3 }},
		{name: "zero speed", mutate: func(p *StartParams) { p.SpeedMultiplier = 0 }},
		{name: "NaN speed", mutate: func(p *StartParams) { p.SpeedMultiplier = math.NaN() }},
		{name: "infinite speed", mutate: func(p *StartParams) { p.SpeedMultiplier = math.Inf(1) }},
		{name: "speed above maximum", mutate: func(p *StartParams) { p.SpeedMultiplier = 1e300 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			params := defaultParams()
			tc.mutate(&params)

			_, err := f.ctrl.Start(context.Background(), params)
			require.ErrorIs(t, err, ErrValidation)
			assert.False(t, f.ctrl.IsActive())
		})
	}
}

func TestStartAllowsEndLaterToday(t *testing.T) {
	f := newFixture(t)
	params := defaultParams()
	params.End = fixedNow.Add(6 * time.Hour)

	_, err := f.ctrl.Start(context.Background(), params)
	require.NoError(t, err)
}

func TestStartWhileActiveConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctrl.Start(ctx, defaultParams())
	require.NoError(t, err)

	_, err = f.ctrl.Start(ctx, defaultParams())
	require.ErrorIs(t, err, ErrConflict)
}

func TestStartResetsAccountsAndPersistsCadence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ledger.PutAccount(ledger.Account{
		ID:             1,
		InitialCapital: decimal.NewFromInt(10000),
		CurrentCash:    decimal.NewFromInt(4000),
		FrozenCash:     decimal.NewFromInt(100),
	})
	f.ledger.PutPosition(ledger.Position{AccountID: 1, Symbol: "BTC", Market: ledger.MarketCrypto, Quantity: decimal.NewFromInt(1)})
	require.NoError(t, f.ledger.AppendTrades(ctx, []ledger.Trade{{AccountID: 1, Symbol: "BTC", Market: ledger.MarketCrypto, Side: ledger.SideBuy}}))
	require.NoError(t, f.config.Set(ctx, KeyTradingInterval, "600", ""))

	params := defaultParams()
	params.IntervalDays = 7
	state, err := f.ctrl.Start(ctx, params)
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Equal(t, params.Start, state.Current)

	account, err := f.ledger.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, account.CurrentCash.Equal(decimal.NewFromInt(10000)))
	assert.True(t, account.FrozenCash.IsZero())
	positions, err := f.ledger.ListPositions(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, positions)
	trades, err := f.ledger.TradesForAccount(ctx, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, trades)

	original, _, _ := f.config.Get(ctx, KeyOriginalInterval)
	assert.Equal(t, "600", original)
	interval, _, _ := f.config.Get(ctx, KeyTradingInterval)
	assert.Equal(t, "604800", interval)
	assert.Equal(t, []int{604800}, f.cadence.calls)
}

func TestStartRollsBackWhenResetFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.config.Set(ctx, KeyTradingInterval, "600", ""))
	f.ledger.ResetErr = errors.New("deadlock detected")

	_, err := f.ctrl.Start(ctx, defaultParams())
	require.ErrorIs(t, err, ErrPersistence)
	assert.False(t, f.ctrl.IsActive())

	interval, _, _ := f.config.Get(ctx, KeyTradingInterval)
	assert.Equal(t, "600", interval)
	cfg, _, _ := f.config.Get(ctx, KeyReplayConfig)
	assert.Equal(t, "{}", cfg)
	assert.Empty(t, f.cadence.calls)
}

func TestStartFailsWhenConfigCannotBeSaved(t *testing.T) {
	f := newFixture(t)
	f.config.SetErrs = map[string]error{KeyReplayConfig: errors.New("disk full")}
	f.ledger.PutAccount(ledger.Account{ID: 1, InitialCapital: decimal.NewFromInt(100), CurrentCash: decimal.NewFromInt(50)})

	_, err := f.ctrl.Start(context.Background(), defaultParams())
	require.ErrorIs(t, err, ErrPersistence)
	assert.False(t, f.ctrl.IsActive())

	account, err := f.ledger.GetAccount(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, account.CurrentCash.Equal(decimal.NewFromInt(50)), "accounts untouched")
}

func TestStopWhenInactiveIsNoop(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Stop(context.Background())

	assert.False(t, f.ctrl.IsActive())
	assert.Empty(t, f.cadence.calls)
	_, ok, _ := f.config.Get(context.Background(), KeyTradingInterval)
	assert.False(t, ok)
}

func TestStopRestoresCadence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.config.Set(ctx, KeyTradingInterval, "900", ""))

	_, err := f.ctrl.Start(ctx, defaultParams())
	require.NoError(t, err)
	f.ctrl.Stop(ctx)

	assert.False(t, f.ctrl.IsActive())
	interval, _, _ := f.config.Get(ctx, KeyTradingInterval)
	assert.Equal(t, "900", interval)
	cfg, _, _ := f.config.Get(ctx, KeyReplayConfig)
	assert.Equal(t, "{}", cfg)
	assert.Equal(t, []int{86400, 900}, f.cadence.calls)
}

func TestStopDefaultsCadenceWhenOriginalMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctrl.Start(ctx, defaultParams())
	require.NoError(t, err)
	require.NoError(t, f.config.Set(ctx, KeyOriginalInterval, "", ""))
	f.ctrl.Stop(ctx)

	interval, _, _ := f.config.Get(ctx, KeyTradingInterval)
	assert.Equal(t, "300", interval)
}

func TestAdvanceAppliesSpeedMultiplier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Start(ctx, defaultParams())
	require.NoError(t, err)

	res, err := f.ctrl.Advance(ctx, 43200)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 2), res.Current)
	assert.False(t, res.Ended)

	state, ok := f.ctrl.State()
	require.True(t, ok)
	assert.Equal(t, day(2024, 1, 2), state.Current)
}

func TestAdvanceClampsToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Start(ctx, defaultParams())
	require.NoError(t, err)

	res, err := f.ctrl.Advance(ctx, 30*86400)
	require.NoError(t, err)
	assert.True(t, res.Ended)
	assert.Equal(t, day(2024, 1, 10), res.Current)

	state, _ := f.ctrl.State()
	assert.False(t, state.Current.After(state.End))
	assert.False(t, state.Current.Before(state.Start))
	assert.InDelta(t, 100.0, state.Progress(), 1e-9)
}

func TestAdvanceKeepsClockWithinSession(t *testing.T) {
	cases := []struct {
		name    string
		speed   float64
		seconds int64
		want    time.Time
	}{
		{name: "delta overflowing a duration", speed: 2, seconds: 5_000_000_000, want: day(2024, 1, 10)},
		{name: "max seconds", speed: 1, seconds: math.MaxInt64, want: day(2024, 1, 10)},
		{name: "max speed", speed: MaxSpeedMultiplier, seconds: 1, want: day(2024, 1, 10)},
		{name: "fractional speed truncates to zero", speed: 0.001, seconds: 1, want: day(2024, 1, 1)},
		{name: "fractional speed truncates", speed: 0.5, seconds: 3, want: day(2024, 1, 1).Add(time.Second)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			params := defaultParams()
			params.SpeedMultiplier = tc.speed
			_, err := f.ctrl.Start(ctx, params)
			require.NoError(t, err)

			res, err := f.ctrl.Advance(ctx, tc.seconds)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Current)
			assert.Equal(t, res.Current.Equal(params.End), res.Ended)

			state, active := f.ctrl.State()
			require.True(t, active)
			assert.False(t, state.Current.Before(state.Start), "current %s before start", state.Current)
			assert.False(t, state.Current.After(state.End), "current %s after end", state.Current)

			restarted := newFixture(t)
			restarted.ctrl.config = f.config
			ok, err := restarted.ctrl.Restore(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			restored, _ := restarted.ctrl.State()
			assert.Equal(t, tc.want, restored.Current)
		})
	}
}

func TestAdvanceRacingStopLeavesSessionStopped(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		f := newFixture(t)
		_, err := f.ctrl.Start(ctx, defaultParams())
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.ctrl.Advance(ctx, 3600)
		}()
		go func() {
			defer wg.Done()
			f.ctrl.Stop(ctx)
		}()
		wg.Wait()

		require.False(t, f.ctrl.IsActive())
		raw, _, _ := f.config.Get(ctx, KeyReplayConfig)
		require.Equal(t, "{}", raw, "iteration %d", i)

		restarted := newFixture(t)
		restarted.ctrl.config = f.config
		ok, err := restarted.ctrl.Restore(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestAdvanceRequiresActiveSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctrl.Advance(context.Background(), 60)
	require.ErrorIs(t, err, ErrNotActive)
}

func TestAdvanceRejectsNonPositiveSeconds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Start(ctx, defaultParams())
	require.NoError(t, err)

	_, err = f.ctrl.Advance(ctx, 0)
	require.ErrorIs(t, err, ErrValidation)
}

func TestAdvanceHookFailuresAreLogged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	decisions := &recordingDecisions{err: errors.New("engine offline")}
	broadcaster := &recordingBroadcaster{err: errors.New("no observers")}
	f.ctrl.SetHooks(Hooks{Cadence: f.cadence, Decisions: decisions, Broadcaster: broadcaster})

	_, err := f.ctrl.Start(ctx, defaultParams())
	require.NoError(t, err)
	res, err := f.ctrl.Advance(ctx, 3600)
	require.NoError(t, err)

	require.Len(t, decisions.requests, 1)
	assert.Equal(t, res.Current, decisions.requests[0].VirtualTime)
	assert.InDelta(t, 0.2, decisions.requests[0].MaxRatio, 1e-9)
	assert.Equal(t, []time.Time{res.Current}, broadcaster.times)

	var warnings int
	for _, entry := range f.logs.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestRestoreReactivatesPersistedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Start(ctx, defaultParams())
	require.NoError(t, err)
	_, err = f.ctrl.Advance(ctx, 86400)
	require.NoError(t, err)

	restarted := newFixture(t)
	restarted.config = f.config
	restarted.ctrl.config = f.config

	ok, err := restarted.ctrl.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	state, active := restarted.ctrl.State()
	require.True(t, active)
	assert.Equal(t, day(2024, 1, 3), state.Current)
	assert.Equal(t, 2.0, state.SpeedMultiplier)
}

func TestRestoreWithoutPersistedSession(t *testing.T) {
	f := newFixture(t)
	ok, err := f.ctrl.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func dailyCandle(ts time.Time, open, close float64) marketdata.Candle {
	return marketdata.Candle{
		Timestamp: ts,
		Open:      decimal.NewFromFloat(open),
		Close:     decimal.NewFromFloat(close),
	}
}
