package replay

import (
	"time"

	"github.com/google/uuid"
)

// State is a snapshot of the replay session.
type State struct {
	SessionID           uuid.UUID `json:"session_id"`
	Active              bool      `json:"is_active"`
	Start               time.Time `json:"start_date"`
	End                 time.Time `json:"end_date"`
	Current             time.Time `json:"current_date"`
	SpeedMultiplier     float64   `json:"speed_multiplier"`
	TradingIntervalDays int       `json:"trading_interval_days"`
	StartedAt           time.Time `json:"started_at"`
}

// Progress is the share of the session span already replayed, in percent.
func (s State) Progress() float64 {
	span := s.End.Sub(s.Start)
	if span <= 0 {
		return 0
	}
	pct := float64(s.Current.Sub(s.Start)) / float64(span) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

// Config is the persisted form of an active session.
type Config struct {
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
	CurrentDate         time.Time `json:"current_date"`
	SpeedMultiplier     float64   `json:"speed_multiplier"`
	TradingIntervalDays int       `json:"trading_interval_days"`
	Active              bool      `json:"active"`
}

func (s State) Config() Config {
	return Config{
		StartDate:           s.Start,
		EndDate:             s.End,
		CurrentDate:         s.Current,
		SpeedMultiplier:     s.SpeedMultiplier,
		TradingIntervalDays: s.TradingIntervalDays,
		Active:              s.Active,
	}
}
