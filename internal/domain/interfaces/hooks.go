package interfaces

import (
	"context"
	"time"

	curve "papertrader/internal/domain/entity/curve"

	"github.com/google/uuid"
)

// CadenceResetter reschedules the automated trading job.
type CadenceResetter interface {
	ResetCadence(ctx context.Context, intervalSeconds int) error
}

// DecisionRequest asks the external trading engine to run one decision round.
type DecisionRequest struct {
	SessionID   uuid.UUID `json:"session_id"`
	VirtualTime time.Time `json:"virtual_time"`
	MaxRatio    float64   `json:"max_ratio"`
}

type DecisionEngine interface {
	Decide(ctx context.Context, req DecisionRequest) error
}

// SnapshotBroadcaster publishes account valuations at the given virtual time.
type SnapshotBroadcaster interface {
	Broadcast(ctx context.Context, virtualNow time.Time) error
}

// SnapshotSink receives computed snapshots.
type SnapshotSink interface {
	PublishSnapshot(ctx context.Context, snapshot curve.Snapshot) error
}
