package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"papertrader/internal/config"
	interfaces "papertrader/internal/domain/interfaces"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer subscribes to the fills fanout exchange and appends executed
// trades to the ledger through a buffered batch writer.
type Consumer struct {
	cfg    config.RabbitMQConfig
	logger *logrus.Logger

	conn    *amqp.Connection
	channel *amqp.Channel
	wg      sync.WaitGroup
	batcher *BatchWriter
}

// NewConsumer prepares a consumer for the given configuration.
func NewConsumer(cfg config.RabbitMQConfig, trades interfaces.TradeLedger, logger *logrus.Logger) (*Consumer, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if cfg.FillsExchange == "" {
		return nil, errors.New("fills exchange is required")
	}
	batchCfg := BatchConfig{
		Size:    cfg.BatchSize,
		Timeout: cfg.BatchTimeout,
	}
	return &Consumer{
		cfg:     cfg,
		logger:  logger,
		batcher: NewBatchWriter(batchCfg, nil, trades, logger),
	}, nil
}

// Start establishes the AMQP connection and begins consuming fills.
func (c *Consumer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	c.conn = conn
	c.batcher.Run(ctx)

	if err := c.startStream(ctx); err != nil {
		_ = c.Close(ctx)
		return err
	}

	c.logger.Infof("rabbitmq consumer started: exchange=%s", c.cfg.FillsExchange)
	return nil
}

// Close stops consumption, flushes pending fills, and releases resources.
func (c *Consumer) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.wg.Wait()
	return c.batcher.Stop(ctx)
}

func (c *Consumer) startStream(ctx context.Context) error {
	exchange := c.cfg.FillsExchange
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel for fills: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("declare queue for fills: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "", exchange, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("bind queue %s to %s: %w", queue.Name, exchange, err)
	}
	prefetch := c.cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		return fmt.Errorf("set qos for fills: %w", err)
	}
	deliveries, err := ch.Consume(queue.Name, "", false, true, false, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("start consume for fills: %w", err)
	}
	c.channel = ch
	c.wg.Add(1)
	go c.consumeLoop(ctx, deliveries)
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	log := c.logger.WithField("stream", "fills")
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				return
			}
			if err := c.handleFill(delivery.Body); err != nil {
				log.WithError(err).Warn("failed to process message")
				_ = delivery.Nack(false, !errors.Is(err, errMalformedFill))
				continue
			}
			if err := delivery.Ack(false); err != nil {
				log.WithError(err).Warn("failed to ack delivery")
			}
		}
	}
}

var errMalformedFill = errors.New("malformed fill")

// handleFill decodes one message. Undecodable or incomplete fills are
// dropped instead of requeued.
func (c *Consumer) handleFill(body []byte) error {
	var payload FillMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("%w: decode payload: %v", errMalformedFill, err)
	}
	trade := payload.Trade
	if trade == nil {
		return fmt.Errorf("%w: trade payload is nil", errMalformedFill)
	}
	if trade.AccountID <= 0 || trade.Symbol == "" || !trade.Side.IsValid() {
		return fmt.Errorf("%w: account, symbol and side are required", errMalformedFill)
	}
	if !trade.Quantity.IsPositive() || trade.TradeTime.IsZero() {
		return fmt.Errorf("%w: quantity and trade time are required", errMalformedFill)
	}
	return c.batcher.AddFill(trade)
}
