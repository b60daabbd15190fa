package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	RequestRoutingKey = "pose.analysis.request"
	StatusRoutingKey  = "pose.session.status"
)

type MessageHandler func(ctx context.Context, body []byte) error

// Consumer feeds analysis requests to a pool of workers. Every delivery is acked once
// handled; failed requests are not redelivered.
type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queue       string
	workerCount int
	handler     MessageHandler
	logger      *zap.Logger
	wg          sync.WaitGroup
}

type ConsumerConfig struct {
	URL         string
	Queue       string
	Exchange    string
	DLQ         string
	StatusQueue string
	Prefetch    int
	WorkerCount int
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := DeclareTopology(ch, cfg.Exchange, cfg.Queue, cfg.DLQ, cfg.StatusQueue); err != nil {
		conn.Close()
		return nil, err
	}

	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}

	return &Consumer{
		conn:        conn,
		channel:     ch,
		queue:       cfg.Queue,
		workerCount: cfg.WorkerCount,
		handler:     handler,
		logger:      logger,
	}, nil
}

// DeclareTopology declares the exchange and queues and binds request and status queues.
func DeclareTopology(ch *amqp.Channel, exchange, queue, dlq, statusQueue string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, q := range []string{queue, dlq, statusQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	if err := ch.QueueBind(queue, RequestRoutingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("bind request queue: %w", err)
	}
	if err := ch.QueueBind(statusQueue, StatusRoutingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("bind status queue: %w", err)
	}
	return nil
}

// Start consumes until ctx is cancelled, then waits for in-flight messages.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(
		ctx,
		c.queue,
		"",
		false, // autoAck=false
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info("starting worker pool",
		zap.Int("workers", c.workerCount),
		zap.String("queue", c.queue),
	)

	for i := 0; i < c.workerCount; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, deliveries)
	}

	<-ctx.Done()
	c.logger.Info("context cancelled, waiting for workers to finish")
	c.wg.Wait()
	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	log := c.logger.With(zap.Int("worker_id", id))
	log.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Info("delivery channel closed")
				return
			}
			c.processDelivery(ctx, d, log)
		}
	}
}

func (c *Consumer) processDelivery(ctx context.Context, d amqp.Delivery, log *zap.Logger) {
	if err := c.handler(ctx, d.Body); err != nil {
		log.Warn("message processing failed, dropping",
			zap.Error(err),
			zap.Uint64("delivery_tag", d.DeliveryTag),
		)
	}
	if err := d.Ack(false); err != nil {
		log.Error("failed to ack delivery", zap.Error(err), zap.Uint64("delivery_tag", d.DeliveryTag))
	}
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
