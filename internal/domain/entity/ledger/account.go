package ledger

import "github.com/shopspring/decimal"

// Account is a simulated trading account.
type Account struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	CurrentCash    decimal.Decimal `json:"current_cash"`
	FrozenCash     decimal.Decimal `json:"frozen_cash"`
	MarginUsed     decimal.Decimal `json:"margin_used"`
	IsActive       bool            `json:"is_active"`
}

// Position is the live holding of an account in one instrument.
type Position struct {
	AccountID int64           `json:"account_id"`
	Symbol    string          `json:"symbol"`
	Market    string          `json:"market"`
	Quantity  decimal.Decimal `json:"quantity"`
	AvgCost   decimal.Decimal `json:"avg_cost"`
	Leverage  decimal.Decimal `json:"leverage"`
}

func (p Position) Instrument() Instrument {
	return Instrument{Symbol: p.Symbol, Market: p.Market}
}

// EffectiveLeverage treats a missing or non-positive leverage as 1.
func (p Position) EffectiveLeverage() decimal.Decimal {
	if p.Leverage.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(1)
	}
	return p.Leverage
}

// Equity values the position at lastPrice. Leveraged positions count
// margin plus unrealized profit, others their full market value.
func (p Position) Equity(lastPrice decimal.Decimal) decimal.Decimal {
	marketValue := p.Quantity.Mul(lastPrice)
	leverage := p.EffectiveLeverage()
	if leverage.GreaterThan(decimal.NewFromInt(1)) {
		margin := marketValue.Div(leverage)
		unrealized := p.Quantity.Mul(lastPrice.Sub(p.AvgCost))
		return margin.Add(unrealized)
	}
	return marketValue
}
