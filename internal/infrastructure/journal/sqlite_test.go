package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	curve "papertrader/internal/domain/entity/curve"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *SQLite {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "curves.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func samplePoints() []curve.Point {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []curve.Point{
		{
			Timestamp:        ts,
			AccountID:        1,
			AccountName:      "alpha",
			Cash:             decimal.RequireFromString("9798.5"),
			PositionsValue:   decimal.NewFromInt(240),
			TotalAssets:      decimal.RequireFromString("10038.5"),
			InitialCapital:   decimal.NewFromInt(10000),
			Profit:           decimal.RequireFromString("38.5"),
			ProfitPercentage: decimal.RequireFromString("0.385"),
			IsActive:         true,
		},
		{
			Timestamp:      ts.Add(time.Hour),
			AccountID:      2,
			AccountName:    "beta",
			Cash:           decimal.NewFromInt(5000),
			TotalAssets:    decimal.NewFromInt(5000),
			InitialCapital: decimal.NewFromInt(5000),
		},
	}
}

func TestSaveAndLoadCurve(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.SaveCurve(ctx, "run-1", curve.Timeframe1h, samplePoints()))

	got, err := j.LoadCurve(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].AccountName)
	assert.Equal(t, "9798.5", got[0].Cash.String())
	assert.Equal(t, "0.385", got[0].ProfitPercentage.String())
	assert.True(t, got[0].IsActive)
	assert.False(t, got[1].IsActive)
	assert.True(t, got[1].Timestamp.Equal(samplePoints()[1].Timestamp))
}

func TestSaveCurveReplacesRun(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.SaveCurve(ctx, "run-1", curve.Timeframe1h, samplePoints()))
	require.NoError(t, j.SaveCurve(ctx, "run-1", curve.Timeframe1d, samplePoints()[:1]))

	got, err := j.LoadCurve(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	runs, err := j.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, curve.Timeframe1d, runs[0].Timeframe)
	assert.Equal(t, 1, runs[0].Points)
}

func TestLoadUnknownRun(t *testing.T) {
	j := newTestJournal(t)
	_, err := j.LoadCurve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
