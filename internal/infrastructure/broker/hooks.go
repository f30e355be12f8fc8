package broker

import (
	"context"

	curve "papertrader/internal/domain/entity/curve"
	interfaces "papertrader/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// LogHooks stands in for the publisher when no broker is configured.
type LogHooks struct {
	logger *logrus.Entry
}

var (
	_ interfaces.SnapshotSink    = (*LogHooks)(nil)
	_ interfaces.DecisionEngine  = (*LogHooks)(nil)
	_ interfaces.CadenceResetter = (*LogHooks)(nil)
)

func NewLogHooks(logger *logrus.Logger) *LogHooks {
	return &LogHooks{logger: logger.WithField("component", "hooks")}
}

func (h *LogHooks) PublishSnapshot(_ context.Context, snapshot curve.Snapshot) error {
	h.logger.WithFields(logrus.Fields{
		"virtual_time": snapshot.VirtualTime,
		"accounts":     len(snapshot.Accounts),
	}).Info("snapshot")
	return nil
}

func (h *LogHooks) Decide(_ context.Context, req interfaces.DecisionRequest) error {
	h.logger.WithFields(logrus.Fields{
		"session_id":   req.SessionID,
		"virtual_time": req.VirtualTime,
		"max_ratio":    req.MaxRatio,
	}).Info("decision round requested")
	return nil
}

func (h *LogHooks) ResetCadence(_ context.Context, intervalSeconds int) error {
	h.logger.WithField("interval_seconds", intervalSeconds).Info("trading cadence changed")
	return nil
}
