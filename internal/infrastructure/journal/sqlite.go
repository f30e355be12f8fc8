package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	curve "papertrader/internal/domain/entity/curve"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

var ErrRunNotFound = errors.New("curve run not found")

const schema = `
CREATE TABLE IF NOT EXISTS curve_runs (
	run_id     TEXT PRIMARY KEY,
	timeframe  TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS curve_points (
	run_id            TEXT    NOT NULL REFERENCES curve_runs(run_id),
	seq               INTEGER NOT NULL,
	ts                TEXT    NOT NULL,
	account_id        INTEGER NOT NULL,
	account_name      TEXT    NOT NULL,
	cash              TEXT    NOT NULL,
	positions_value   TEXT    NOT NULL,
	total_assets      TEXT    NOT NULL,
	initial_capital   TEXT    NOT NULL,
	profit            TEXT    NOT NULL,
	profit_percentage TEXT    NOT NULL,
	is_active         INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);`

// Run describes one saved curve.
type Run struct {
	ID        string
	Timeframe curve.Timeframe
	CreatedAt time.Time
	Points    int
}

// SQLite stores computed asset curves in a local file. Decimals are kept
// as text so values round-trip exactly.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// SaveCurve replaces any points previously stored under runID.
func (j *SQLite) SaveCurve(ctx context.Context, runID string, timeframe curve.Timeframe, points []curve.Point) (err error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM curve_points WHERE run_id = ?`, runID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO curve_runs (run_id, timeframe, created_at) VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET timeframe = excluded.timeframe, created_at = excluded.created_at`,
		runID, string(timeframe), j.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO curve_points
		(run_id, seq, ts, account_id, account_name, cash, positions_value, total_assets,
		 initial_capital, profit, profit_percentage, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range points {
		_, err = stmt.ExecContext(ctx,
			runID, i, p.Timestamp.UTC().Format(time.RFC3339Nano), p.AccountID, p.AccountName,
			p.Cash.String(), p.PositionsValue.String(), p.TotalAssets.String(),
			p.InitialCapital.String(), p.Profit.String(), p.ProfitPercentage.String(), p.IsActive,
		)
		if err != nil {
			return fmt.Errorf("insert point %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// LoadCurve returns the points of a run in the order they were saved.
func (j *SQLite) LoadCurve(ctx context.Context, runID string) ([]curve.Point, error) {
	var exists int
	err := j.db.QueryRowContext(ctx, `SELECT 1 FROM curve_runs WHERE run_id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT ts, account_id, account_name, cash, positions_value, total_assets,
		       initial_capital, profit, profit_percentage, is_active
		FROM curve_points
		WHERE run_id = ?
		ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []curve.Point
	for rows.Next() {
		var (
			p                                                  curve.Point
			ts                                                 string
			cash, positions, total, initial, profit, profitPct string
		)
		if err := rows.Scan(&ts, &p.AccountID, &p.AccountName, &cash, &positions, &total,
			&initial, &profit, &profitPct, &p.IsActive); err != nil {
			return nil, err
		}
		if p.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		fields := []struct {
			dst *decimal.Decimal
			src string
		}{
			{&p.Cash, cash},
			{&p.PositionsValue, positions},
			{&p.TotalAssets, total},
			{&p.InitialCapital, initial},
			{&p.Profit, profit},
			{&p.ProfitPercentage, profitPct},
		}
		for _, f := range fields {
			if *f.dst, err = decimal.NewFromString(f.src); err != nil {
				return nil, fmt.Errorf("parse decimal %q: %w", f.src, err)
			}
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (j *SQLite) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT r.run_id, r.timeframe, r.created_at, COUNT(p.seq)
		FROM curve_runs r
		LEFT JOIN curve_points p ON p.run_id = r.run_id
		GROUP BY r.run_id, r.timeframe, r.created_at
		ORDER BY r.created_at, r.run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			timeframe string
			created   string
		)
		if err := rows.Scan(&run.ID, &timeframe, &created, &run.Points); err != nil {
			return nil, err
		}
		run.Timeframe = curve.Timeframe(timeframe)
		if run.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
