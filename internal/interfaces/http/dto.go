package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	curve "papertrader/internal/domain/entity/curve"
	replaystate "papertrader/internal/domain/entity/replay"

	"github.com/shopspring/decimal"
)

const (
	defaultSpeedMultiplier = 1.0
	defaultIntervalDays    = 1
	defaultAdvanceSeconds  = 300
)

type replayStartRequest struct {
	StartDate           string   `json:"start_date" binding:"required"`
	EndDate             string   `json:"end_date" binding:"required"`
	SpeedMultiplier     *float64 `json:"speed_multiplier"`
	TradingIntervalDays *int     `json:"trading_interval_days"`
}

type replayAdvanceRequest struct {
	Seconds *int64 `json:"seconds"`
}

type replayStateResponse struct {
	IsActive            bool     `json:"is_active"`
	StartDate           *string  `json:"start_date,omitempty"`
	EndDate             *string  `json:"end_date,omitempty"`
	CurrentDate         *string  `json:"current_date,omitempty"`
	SpeedMultiplier     *float64 `json:"speed_multiplier,omitempty"`
	TradingIntervalDays *int     `json:"trading_interval_days,omitempty"`
	Progress            *float64 `json:"progress,omitempty"`
}

type replayAdvanceResponse struct {
	CurrentDate string `json:"current_date"`
	Ended       bool   `json:"ended"`
}

type tradingIntervalPayload struct {
	IntervalSeconds int `json:"interval_seconds" binding:"required"`
}

// curvePointResponse is the presentation form of a curve point. Money
// fields are rounded to cents.
type curvePointResponse struct {
	Timestamp        int64   `json:"timestamp"`
	DatetimeStr      string  `json:"datetime_str"`
	AccountID        int64   `json:"account_id"`
	Username         string  `json:"username"`
	TotalAssets      float64 `json:"total_assets"`
	InitialCapital   float64 `json:"initial_capital"`
	Profit           float64 `json:"profit"`
	ProfitPercentage float64 `json:"profit_percentage"`
	Cash             float64 `json:"cash"`
	PositionsValue   float64 `json:"positions_value"`
	IsActive         bool    `json:"is_active"`
}

func newStateResponse(state replaystate.State, active bool) replayStateResponse {
	if !active {
		return replayStateResponse{IsActive: false}
	}
	start := formatTime(state.Start)
	end := formatTime(state.End)
	current := formatTime(state.Current)
	speed := state.SpeedMultiplier
	interval := state.TradingIntervalDays
	progress := roundFloat(state.Progress())
	return replayStateResponse{
		IsActive:            true,
		StartDate:           &start,
		EndDate:             &end,
		CurrentDate:         &current,
		SpeedMultiplier:     &speed,
		TradingIntervalDays: &interval,
		Progress:            &progress,
	}
}

func newCurveResponse(points []curve.Point) []curvePointResponse {
	out := make([]curvePointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, curvePointResponse{
			Timestamp:        p.Timestamp.Unix(),
			DatetimeStr:      formatTime(p.Timestamp),
			AccountID:        p.AccountID,
			Username:         p.AccountName,
			TotalAssets:      money(p.TotalAssets),
			InitialCapital:   money(p.InitialCapital),
			Profit:           money(p.Profit),
			ProfitPercentage: money(p.ProfitPercentage),
			Cash:             money(p.Cash),
			PositionsValue:   money(p.PositionsValue),
			IsActive:         p.IsActive,
		})
	}
	return out
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func roundFloat(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

var errEmptyDate = errors.New("date is empty")

// parseDate accepts RFC3339 or a naive ISO date/datetime, read as UTC.
func parseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, errEmptyDate
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %q", raw)
}
