package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the direction of an executed trade.
type Side string

const (
	SideBuy   Side = "BUY"
	SideSell  Side = "SELL"
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// IsLong reports whether the side opens or extends long exposure.
func (s Side) IsLong() bool {
	return s == SideBuy || s == SideLong
}

// IsShort reports whether the side reduces long exposure or opens a short.
func (s Side) IsShort() bool {
	return s == SideSell || s == SideShort
}

func (s Side) IsValid() bool {
	return s.IsLong() || s.IsShort()
}

// MarketCrypto is the market code routed to the crypto exchange.
const MarketCrypto = "CRYPTO"

// Instrument identifies a tradable symbol on a market.
type Instrument struct {
	Symbol string `json:"symbol"`
	Market string `json:"market"`
}

func (i Instrument) String() string {
	return i.Market + ":" + i.Symbol
}

// Less orders instruments by market, then symbol.
func (i Instrument) Less(other Instrument) bool {
	if i.Market != other.Market {
		return i.Market < other.Market
	}
	return i.Symbol < other.Symbol
}

// Trade is an immutable ledger entry. Ledger order is TradeTime ascending.
type Trade struct {
	ID              uuid.UUID       `json:"id"`
	AccountID       int64           `json:"account_id"`
	Symbol          string          `json:"symbol"`
	Market          string          `json:"market"`
	Side            Side            `json:"side"`
	Price           decimal.Decimal `json:"price"`
	Quantity        decimal.Decimal `json:"quantity"`
	Commission      decimal.Decimal `json:"commission"`
	InterestCharged decimal.Decimal `json:"interest_charged"`
	TradeTime       time.Time       `json:"trade_time"`
}

func (t Trade) Instrument() Instrument {
	return Instrument{Symbol: t.Symbol, Market: t.Market}
}

// CashFlow returns the signed effect of the trade on account cash.
// Fees are folded into the notional for both directions.
func (t Trade) CashFlow() decimal.Decimal {
	amount := t.Price.Mul(t.Quantity).Add(t.Commission).Add(t.InterestCharged)
	switch {
	case t.Side.IsLong():
		return amount.Neg()
	case t.Side.IsShort():
		return amount
	default:
		return decimal.Zero
	}
}

// SignedQuantity returns the quantity with the sign of its exposure.
func (t Trade) SignedQuantity() decimal.Decimal {
	switch {
	case t.Side.IsLong():
		return t.Quantity
	case t.Side.IsShort():
		return t.Quantity.Neg()
	default:
		return decimal.Zero
	}
}
