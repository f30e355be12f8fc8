package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "papertrader/internal/domain/entity/marketdata"
	interfaces "papertrader/internal/domain/interfaces"
	"papertrader/internal/infrastructure/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists klines fetched from remote providers.
type Repository struct {
	pool *pgxpool.Pool
}

var _ interfaces.CandleStore = (*Repository)(nil)

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Repository{pool: pool}, nil
}

func NewRepositoryFromPool(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

const SchemaKlines = `
	CREATE TABLE IF NOT EXISTS klines (
		symbol     TEXT        NOT NULL,
		market     TEXT        NOT NULL,
		period     TEXT        NOT NULL,
		open_time  TIMESTAMPTZ NOT NULL,
		open       NUMERIC     NOT NULL,
		high       NUMERIC     NOT NULL,
		low        NUMERIC     NOT NULL,
		close      NUMERIC     NOT NULL,
		volume     NUMERIC     NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, market, period, open_time)
	)`

func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, SchemaKlines); err != nil {
		return fmt.Errorf("create klines table: %w", err)
	}
	return nil
}

var klineColumns = []string{"symbol", "market", "period", "open_time", "open", "high", "low", "close", "volume"}

// AddCandles upserts a batch. Rows are copied into a staging table first
// so repeated fetches of the same bars do not conflict.
func (r *Repository) AddCandles(ctx context.Context, candles []domain.StoredCandle) error {
	if len(candles) == 0 {
		return nil
	}
	rows := make([][]interface{}, 0, len(candles))
	for _, c := range candles {
		rows = append(rows, []interface{}{
			c.Symbol,
			c.Market,
			string(c.Period),
			c.Timestamp,
			postgres.Numeric(c.Open),
			postgres.Numeric(c.High),
			postgres.Numeric(c.Low),
			postgres.Numeric(c.Close),
			postgres.Numeric(c.Volume),
		})
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const staging = `CREATE TEMP TABLE klines_staging (LIKE klines INCLUDING DEFAULTS) ON COMMIT DROP`
	if _, err := tx.Exec(ctx, staging); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"klines_staging"}, klineColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy klines: %w", err)
	}
	const merge = `
		INSERT INTO klines (symbol, market, period, open_time, open, high, low, close, volume)
		SELECT DISTINCT ON (symbol, market, period, open_time)
		       symbol, market, period, open_time, open, high, low, close, volume
		FROM klines_staging
		ON CONFLICT (symbol, market, period, open_time) DO UPDATE
		SET open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
		    close = EXCLUDED.close, volume = EXCLUDED.volume`
	if _, err := tx.Exec(ctx, merge); err != nil {
		return fmt.Errorf("merge klines: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *Repository) GetCandlesSince(ctx context.Context, symbol, market string, period domain.Period, since time.Time, limit int) ([]domain.Candle, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	const query = `
		SELECT open_time, open, high, low, close, volume
		FROM klines
		WHERE symbol=$1 AND market=$2 AND period=$3 AND open_time >= $4
		ORDER BY open_time ASC
		LIMIT $5`
	rows, err := r.pool.Query(ctx, query, symbol, market, string(period), since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCandles(rows)
}

func (r *Repository) GetLastCandles(ctx context.Context, symbol, market string, period domain.Period, limit int) ([]domain.Candle, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	const query = `
		SELECT open_time, open, high, low, close, volume
		FROM (
			SELECT open_time, open, high, low, close, volume
			FROM klines
			WHERE symbol=$1 AND market=$2 AND period=$3
			ORDER BY open_time DESC
			LIMIT $4
		) recent
		ORDER BY open_time ASC`
	rows, err := r.pool.Query(ctx, query, symbol, market, string(period), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCandles(rows)
}

func collectCandles(rows pgx.Rows) ([]domain.Candle, error) {
	var candles []domain.Candle
	for rows.Next() {
		candle, err := scanCandle(rows)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, rows.Err()
}

func scanCandle(row pgx.Row) (domain.Candle, error) {
	var (
		candle                       domain.Candle
		open, high, low, cls, volume pgtype.Numeric
	)
	if err := row.Scan(&candle.Timestamp, &open, &high, &low, &cls, &volume); err != nil {
		return domain.Candle{}, err
	}
	candle.Timestamp = candle.Timestamp.UTC()
	candle.Open = postgres.Decimal(open)
	candle.High = postgres.Decimal(high)
	candle.Low = postgres.Decimal(low)
	candle.Close = postgres.Decimal(cls)
	candle.Volume = postgres.Decimal(volume)
	return candle, nil
}
