package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"papertrader/internal/config"
	curve "papertrader/internal/domain/entity/curve"
	interfaces "papertrader/internal/domain/interfaces"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// amqpChannel is the part of *amqp.Channel the publisher needs.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher fans replay events out to RabbitMQ exchanges.
type Publisher struct {
	ch        amqpChannel
	exchanges config.RabbitMQConfig
	logger    *logrus.Entry
	now       func() time.Time
	mu        sync.Mutex
}

var (
	_ interfaces.SnapshotSink    = (*Publisher)(nil)
	_ interfaces.DecisionEngine  = (*Publisher)(nil)
	_ interfaces.CadenceResetter = (*Publisher)(nil)
)

// NewPublisher opens a channel on conn and declares the event exchanges.
func NewPublisher(conn *amqp.Connection, cfg config.RabbitMQConfig, logger *logrus.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := newPublisher(ch, cfg, logger)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return p, nil
}

func newPublisher(ch amqpChannel, cfg config.RabbitMQConfig, logger *logrus.Logger) (*Publisher, error) {
	for _, exchange := range []string{cfg.SnapshotsExchange, cfg.DecisionsExchange, cfg.CadenceExchange} {
		if exchange == "" {
			return nil, errors.New("exchange name is required")
		}
		if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
	}
	return &Publisher{
		ch:        ch,
		exchanges: cfg,
		logger:    logger.WithField("component", "publisher"),
		now:       time.Now,
	}, nil
}

func (p *Publisher) PublishSnapshot(ctx context.Context, snapshot curve.Snapshot) error {
	return p.publish(ctx, p.exchanges.SnapshotsExchange, SnapshotMessage{Snapshot: snapshot})
}

func (p *Publisher) Decide(ctx context.Context, req interfaces.DecisionRequest) error {
	return p.publish(ctx, p.exchanges.DecisionsExchange, DecisionMessage{Request: req})
}

func (p *Publisher) ResetCadence(ctx context.Context, intervalSeconds int) error {
	return p.publish(ctx, p.exchanges.CadenceExchange, CadenceMessage{
		IntervalSeconds: intervalSeconds,
		ChangedAt:       p.now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, exchange string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", exchange, err)
	}
	p.logger.WithFields(logrus.Fields{
		"exchange": exchange,
		"bytes":    len(body),
	}).Debug("published")
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}
