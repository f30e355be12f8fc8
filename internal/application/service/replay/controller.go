package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	domain "papertrader/internal/domain/entity/replay"
	interfaces "papertrader/internal/domain/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config store keys shared with the trading scheduler.
const (
	KeyTradingInterval  = "auto_trade_interval_seconds"
	KeyOriginalInterval = "replay_original_interval"
	KeyReplayConfig     = "replay_config"

	DefaultIntervalSeconds = 300
	MaxSpeedMultiplier     = 1e6

	secondsPerDay    = 86400
	decisionMaxRatio = 0.2
	emptyConfig      = "{}"
)

type StartParams struct {
	Start           time.Time
	End             time.Time
	SpeedMultiplier float64
	IntervalDays    int
}

type AdvanceResult struct {
	Current time.Time
	Ended   bool
}

// Hooks are the best-effort collaborators notified on session changes.
// Nil members are skipped.
type Hooks struct {
	Cadence     interfaces.CadenceResetter
	Decisions   interfaces.DecisionEngine
	Broadcaster interfaces.SnapshotBroadcaster
}

// Controller owns the process-wide replay session.
type Controller struct {
	accounts interfaces.AccountStore
	config   interfaces.ConfigStore
	candles  interfaces.CandleProvider
	hooks    Hooks
	logger   *logrus.Entry
	now      func() time.Time

	mu      sync.Mutex
	session *session
}

type session struct {
	state domain.State
	cache map[priceKey]decimal.Decimal
}

type priceKey struct {
	symbol string
	market string
	day    int64
}

func NewController(accounts interfaces.AccountStore, config interfaces.ConfigStore, candles interfaces.CandleProvider, hooks Hooks, logger *logrus.Logger) *Controller {
	return &Controller{
		accounts: accounts,
		config:   config,
		candles:  candles,
		hooks:    hooks,
		logger:   logger.WithField("component", "replay"),
		now:      time.Now,
	}
}

// SetHooks replaces the session hooks. Call it before serving requests.
func (c *Controller) SetHooks(hooks Hooks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = hooks
}

// Start activates a new session after resetting every account.
func (c *Controller) Start(ctx context.Context, params StartParams) (domain.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return domain.State{}, ErrConflict
	}
	params.Start = params.Start.UTC()
	params.End = params.End.UTC()
	if err := c.validate(params); err != nil {
		return domain.State{}, err
	}

	state := domain.State{
		SessionID:           uuid.New(),
		Active:              true,
		Start:               params.Start,
		End:                 params.End,
		Current:             params.Start,
		SpeedMultiplier:     params.SpeedMultiplier,
		TradingIntervalDays: params.IntervalDays,
		StartedAt:           c.now().UTC(),
	}

	saved, err := c.captureKeys(ctx)
	if err != nil {
		return domain.State{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := c.persistStart(ctx, state, saved.interval); err != nil {
		c.rollback(ctx, saved)
		return domain.State{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := c.accounts.ResetForReplay(ctx); err != nil {
		c.rollback(ctx, saved)
		return domain.State{}, fmt.Errorf("%w: reset accounts: %v", ErrPersistence, err)
	}

	c.session = &session{state: state, cache: make(map[priceKey]decimal.Decimal)}
	c.resetCadence(ctx, params.IntervalDays*secondsPerDay)

	c.logger.WithFields(logrus.Fields{
		"session_id":    state.SessionID,
		"start":         state.Start,
		"end":           state.End,
		"speed":         state.SpeedMultiplier,
		"interval_days": state.TradingIntervalDays,
	}).Info("replay session started")
	return state, nil
}

func (c *Controller) validate(p StartParams) error {
	if !p.Start.Before(p.End) {
		return fmt.Errorf("%w: start date must be before end date", ErrValidation)
	}
	if dayOf(p.End).After(dayOf(c.now())) {
		return fmt.Errorf("%w: end date cannot be in the future", ErrValidation)
	}
	if p.IntervalDays != 1 && p.IntervalDays != 7 {
		return fmt.Errorf("%w: trading interval must be 1 or 7 days", ErrValidation)
	}
	if !validSpeed(p.SpeedMultiplier) {
		return fmt.Errorf("%w: speed multiplier must be in (0, %g]", ErrValidation, MaxSpeedMultiplier)
	}
	return nil
}

type savedKeys struct {
	interval string
	config   string
}

func (c *Controller) captureKeys(ctx context.Context) (savedKeys, error) {
	interval, ok, err := c.config.Get(ctx, KeyTradingInterval)
	if err != nil {
		return savedKeys{}, fmt.Errorf("read %s: %w", KeyTradingInterval, err)
	}
	if !ok || interval == "" {
		interval = strconv.Itoa(DefaultIntervalSeconds)
	}
	cfg, ok, err := c.config.Get(ctx, KeyReplayConfig)
	if err != nil {
		return savedKeys{}, fmt.Errorf("read %s: %w", KeyReplayConfig, err)
	}
	if !ok || cfg == "" {
		cfg = emptyConfig
	}
	return savedKeys{interval: interval, config: cfg}, nil
}

func (c *Controller) persistStart(ctx context.Context, state domain.State, originalInterval string) error {
	if err := c.config.Set(ctx, KeyOriginalInterval, originalInterval, "Trading interval before replay started"); err != nil {
		return fmt.Errorf("save %s: %w", KeyOriginalInterval, err)
	}
	interval := strconv.Itoa(state.TradingIntervalDays * secondsPerDay)
	if err := c.config.Set(ctx, KeyTradingInterval, interval, "Auto trading interval in seconds"); err != nil {
		return fmt.Errorf("save %s: %w", KeyTradingInterval, err)
	}
	return c.saveConfig(ctx, state)
}

func (c *Controller) saveConfig(ctx context.Context, state domain.State) error {
	payload, err := json.Marshal(state.Config())
	if err != nil {
		return fmt.Errorf("encode replay config: %w", err)
	}
	if err := c.config.Set(ctx, KeyReplayConfig, string(payload), "Replay mode configuration"); err != nil {
		return fmt.Errorf("save %s: %w", KeyReplayConfig, err)
	}
	return nil
}

func (c *Controller) rollback(ctx context.Context, saved savedKeys) {
	if err := c.config.Set(ctx, KeyTradingInterval, saved.interval, "Auto trading interval in seconds"); err != nil {
		c.logger.WithError(err).Warn("restore trading interval after failed start")
	}
	if err := c.config.Set(ctx, KeyReplayConfig, saved.config, "Replay mode configuration"); err != nil {
		c.logger.WithError(err).Warn("restore replay config after failed start")
	}
}

// Stop deactivates the session and restores the trading cadence saved by
// Start. Stopping an inactive controller does nothing.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return
	}
	sessionID := c.session.state.SessionID
	c.session = nil

	seconds := DefaultIntervalSeconds
	original, ok, err := c.config.Get(ctx, KeyOriginalInterval)
	switch {
	case err != nil:
		c.logger.WithError(err).Warn("read original trading interval")
	case ok && original != "":
		if parsed, convErr := strconv.Atoi(original); convErr == nil {
			seconds = parsed
		} else {
			c.logger.WithError(convErr).Warnf("invalid original trading interval %q", original)
		}
	}
	if err := c.config.Set(ctx, KeyTradingInterval, strconv.Itoa(seconds), "Auto trading interval in seconds"); err != nil {
		c.logger.WithError(err).Warn("restore trading interval")
	}
	if err := c.config.Set(ctx, KeyReplayConfig, emptyConfig, "Replay mode configuration"); err != nil {
		c.logger.WithError(err).Warn("clear replay config")
	}
	c.resetCadence(ctx, seconds)

	c.logger.WithField("session_id", sessionID).Info("replay session stopped")
}

// Advance moves the virtual clock by seconds scaled by the speed
// multiplier, clamped to the session end.
func (c *Controller) Advance(ctx context.Context, seconds int64) (AdvanceResult, error) {
	if seconds <= 0 {
		return AdvanceResult{}, fmt.Errorf("%w: seconds must be positive", ErrValidation)
	}

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return AdvanceResult{}, ErrNotActive
	}
	state := &c.session.state
	state.Current = advanceClock(state.Current, state.End, seconds, state.SpeedMultiplier)
	snapshot := *state
	hooks := c.hooks
	// Persist under the lock; Stop clears the same key.
	if err := c.saveConfig(ctx, snapshot); err != nil {
		c.logger.WithError(err).Warn("persist replay clock")
	}
	c.mu.Unlock()

	c.notifyAdvance(ctx, hooks, snapshot)

	return AdvanceResult{Current: snapshot.Current, Ended: snapshot.Current.Equal(snapshot.End)}, nil
}

// advanceClock moves current by seconds*speed whole seconds without
// passing end. The scaled delta is compared in float seconds first, so
// products that do not fit a Duration land on end.
func advanceClock(current, end time.Time, seconds int64, speed float64) time.Time {
	remaining := end.Sub(current)
	if remaining <= 0 {
		return end
	}
	scaled := math.Trunc(float64(seconds) * speed)
	if math.IsNaN(scaled) || scaled >= remaining.Seconds() {
		return end
	}
	if scaled <= 0 {
		return current
	}
	return current.Add(time.Duration(scaled) * time.Second)
}

func validSpeed(speed float64) bool {
	return speed > 0 && speed <= MaxSpeedMultiplier && !math.IsNaN(speed) && !math.IsInf(speed, 0)
}

func (c *Controller) notifyAdvance(ctx context.Context, hooks Hooks, state domain.State) {
	log := c.logger.WithField("virtual_time", state.Current)
	if hooks.Decisions != nil {
		req := interfaces.DecisionRequest{
			SessionID:   state.SessionID,
			VirtualTime: state.Current,
			MaxRatio:    decisionMaxRatio,
		}
		if err := hooks.Decisions.Decide(ctx, req); err != nil {
			log.WithError(err).Warn("decision round after advance failed")
		}
	}
	if hooks.Broadcaster != nil {
		if err := hooks.Broadcaster.Broadcast(ctx, state.Current); err != nil {
			log.WithError(err).Warn("snapshot broadcast after advance failed")
		}
	}
}

func (c *Controller) resetCadence(ctx context.Context, seconds int) {
	if c.hooks.Cadence == nil {
		return
	}
	if err := c.hooks.Cadence.ResetCadence(ctx, seconds); err != nil {
		c.logger.WithError(err).WithField("interval_seconds", seconds).Warn("reset trading cadence")
	}
}

// State returns the current session, if one is active.
func (c *Controller) State() (domain.State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.State{}, false
	}
	return c.session.state, true
}

func (c *Controller) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Window returns the replayed span [start, current].
func (c *Controller) Window() (time.Time, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return time.Time{}, time.Time{}, false
	}
	return c.session.state.Start, c.session.state.Current, true
}

// Restore re-activates a session persisted by a previous process.
// Accounts are left untouched.
func (c *Controller) Restore(ctx context.Context) (bool, error) {
	raw, ok, err := c.config.Get(ctx, KeyReplayConfig)
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", ErrPersistence, KeyReplayConfig, err)
	}
	if !ok || raw == "" || raw == emptyConfig {
		return false, nil
	}
	var cfg domain.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return false, fmt.Errorf("decode %s: %w", KeyReplayConfig, err)
	}
	if !cfg.Active {
		return false, nil
	}
	if !cfg.StartDate.Before(cfg.EndDate) || !validSpeed(cfg.SpeedMultiplier) {
		return false, errors.New("persisted replay config is inconsistent")
	}
	current := cfg.CurrentDate
	if current.Before(cfg.StartDate) {
		current = cfg.StartDate
	}
	if current.After(cfg.EndDate) {
		current = cfg.EndDate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return false, ErrConflict
	}
	c.session = &session{
		state: domain.State{
			SessionID:           uuid.New(),
			Active:              true,
			Start:               cfg.StartDate.UTC(),
			End:                 cfg.EndDate.UTC(),
			Current:             current.UTC(),
			SpeedMultiplier:     cfg.SpeedMultiplier,
			TradingIntervalDays: cfg.TradingIntervalDays,
			StartedAt:           c.now().UTC(),
		},
		cache: make(map[priceKey]decimal.Decimal),
	}
	c.logger.WithField("current", current).Info("replay session restored")
	return true, nil
}

func dayOf(ts time.Time) time.Time {
	return ts.UTC().Truncate(24 * time.Hour)
}
