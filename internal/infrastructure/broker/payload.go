package broker

import (
	"time"

	curve "papertrader/internal/domain/entity/curve"
	ledger "papertrader/internal/domain/entity/ledger"
	interfaces "papertrader/internal/domain/interfaces"
)

// FillMessage is an executed trade reported by the execution engine.
type FillMessage struct {
	Trade *ledger.Trade `json:"trade,omitempty"`
}

type SnapshotMessage struct {
	Snapshot curve.Snapshot `json:"snapshot"`
}

type DecisionMessage struct {
	Request interfaces.DecisionRequest `json:"request"`
}

// CadenceMessage tells the scheduler to run trading rounds every IntervalSeconds.
type CadenceMessage struct {
	IntervalSeconds int       `json:"interval_seconds"`
	ChangedAt       time.Time `json:"changed_at"`
}
