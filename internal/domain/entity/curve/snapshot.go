package curve

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountValuation is the live value of one account.
type AccountValuation struct {
	AccountID      int64           `json:"account_id"`
	AccountName    string          `json:"account_name"`
	Cash           decimal.Decimal `json:"cash"`
	PositionsValue decimal.Decimal `json:"positions_value"`
	TotalAssets    decimal.Decimal `json:"total_assets"`
	Profit         decimal.Decimal `json:"profit"`
	IsActive       bool            `json:"is_active"`
}

// Snapshot is pushed to observers after the virtual clock moves.
type Snapshot struct {
	VirtualTime time.Time          `json:"virtual_time"`
	Accounts    []AccountValuation `json:"accounts"`
}
