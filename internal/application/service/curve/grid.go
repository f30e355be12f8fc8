package curve

import (
	"time"

	domain "papertrader/internal/domain/entity/curve"
)

// MaxGridPoints bounds the number of checkpoints in a replay grid.
const MaxGridPoints = 500

// ReplayGrid spaces checkpoints by the timeframe from the start of the
// session's first day to the end of its current day.
func ReplayGrid(start, current time.Time, tf domain.Timeframe) []time.Time {
	step := tf.Step()
	from := startOfDay(start)
	to := startOfDay(current).Add(24*time.Hour - time.Nanosecond)

	var grid []time.Time
	for ts := from; !ts.After(to) && len(grid) < MaxGridPoints; ts = ts.Add(step) {
		grid = append(grid, ts)
	}
	return grid
}

func startOfDay(ts time.Time) time.Time {
	return ts.UTC().Truncate(24 * time.Hour)
}
