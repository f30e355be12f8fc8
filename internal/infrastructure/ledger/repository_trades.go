package ledger

import (
	"context"
	"fmt"
	"strings"

	domain "papertrader/internal/domain/entity/ledger"
	"papertrader/internal/infrastructure/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// windowClause appends trade_time bounds for a non-nil window.
func windowClause(where []string, args []interface{}, window *domain.Window) ([]string, []interface{}) {
	if window == nil {
		return where, args
	}
	args = append(args, window.From)
	where = append(where, fmt.Sprintf("trade_time >= $%d", len(args)))
	args = append(args, window.To)
	where = append(where, fmt.Sprintf("trade_time <= $%d", len(args)))
	return where, args
}

func (r *Repository) TradesForAccount(ctx context.Context, accountID int64, window *domain.Window) ([]domain.Trade, error) {
	where, args := windowClause([]string{"account_id = $1"}, []interface{}{accountID}, window)
	query := `
		SELECT id, account_id, symbol, market, side, price, quantity, commission, interest_charged, trade_time
		FROM trades
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY trade_time ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

func (r *Repository) TradedInstruments(ctx context.Context, accountID *int64, window *domain.Window) ([]domain.Instrument, error) {
	var (
		where []string
		args  []interface{}
	)
	if accountID != nil {
		args = append(args, *accountID)
		where = append(where, "account_id = $1")
	}
	where, args = windowClause(where, args, window)
	query := `SELECT DISTINCT market, symbol FROM trades`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY market, symbol`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instruments []domain.Instrument
	for rows.Next() {
		var inst domain.Instrument
		if err := rows.Scan(&inst.Market, &inst.Symbol); err != nil {
			return nil, err
		}
		instruments = append(instruments, inst)
	}
	return instruments, rows.Err()
}

var tradeColumns = []string{"id", "account_id", "symbol", "market", "side", "price", "quantity", "commission", "interest_charged", "trade_time"}

func (r *Repository) AppendTrades(ctx context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	rows := make([][]interface{}, 0, len(trades))
	for _, t := range trades {
		id := t.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		rows = append(rows, []interface{}{
			id,
			t.AccountID,
			t.Symbol,
			t.Market,
			string(t.Side),
			postgres.Numeric(t.Price),
			postgres.Numeric(t.Quantity),
			postgres.Numeric(t.Commission),
			postgres.Numeric(t.InterestCharged),
			t.TradeTime,
		})
	}
	_, err := r.pool.CopyFrom(ctx, pgx.Identifier{"trades"}, tradeColumns, pgx.CopyFromRows(rows))
	return err
}

func scanTrade(row pgx.Row) (domain.Trade, error) {
	var (
		trade                                 domain.Trade
		side                                  string
		price, quantity, commission, interest pgtype.Numeric
	)
	err := row.Scan(&trade.ID, &trade.AccountID, &trade.Symbol, &trade.Market, &side,
		&price, &quantity, &commission, &interest, &trade.TradeTime)
	if err != nil {
		return domain.Trade{}, err
	}
	trade.Side = domain.Side(side)
	trade.Price = postgres.Decimal(price)
	trade.Quantity = postgres.Decimal(quantity)
	trade.Commission = postgres.Decimal(commission)
	trade.InterestCharged = postgres.Decimal(interest)
	trade.TradeTime = trade.TradeTime.UTC()
	return trade, nil
}
