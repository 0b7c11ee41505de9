package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpipe/internal/config"
	"github.com/phrazzld/taskpipe/internal/events"
	"github.com/phrazzld/taskpipe/internal/platform/rabbitmq"
	"github.com/phrazzld/taskpipe/internal/redact"
	"github.com/phrazzld/taskpipe/internal/store"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DeadLetterer receives messages that can never be processed.
type DeadLetterer interface {
	DeadLetter(ctx context.Context, body []byte, headers amqp.Table, reason error) error
}

// Republisher puts a message back on a queue.
type Republisher interface {
	Publish(ctx context.Context, queue string, body []byte, headers amqp.Table) error
}

// Option configures optional collaborators.
type Option func(*Consumer)

// WithDeadLetter sends rejected messages to d before they are dropped.
func WithDeadLetter(d DeadLetterer) Option {
	return func(c *Consumer) { c.deadLetter = d }
}

// WithRepublisher enables the delivery ceiling. Without a republisher,
// transient failures are always requeued.
func WithRepublisher(r Republisher) Option {
	return func(c *Consumer) { c.republisher = r }
}

// WithEmitter announces persisted tasks on e.
func WithEmitter(e events.Emitter) Option {
	return func(c *Consumer) { c.emitter = e }
}

// Consumer reads task commands from the task queue and stores them.
type Consumer struct {
	broker      config.BrokerConfig
	maxAttempts int
	dial        rabbitmq.Dialer
	tasks       store.TaskStore
	deadLetter  DeadLetterer
	republisher Republisher
	emitter     events.Emitter
	logger      *slog.Logger
	tag         string
	state       atomic.Int32
}

// New creates a Consumer. Run starts it.
func New(
	broker config.BrokerConfig,
	cfg config.ConsumerConfig,
	dial rabbitmq.Dialer,
	tasks store.TaskStore,
	logger *slog.Logger,
	opts ...Option,
) (*Consumer, error) {
	if dial == nil {
		return nil, errors.New("dialer cannot be nil")
	}
	if tasks == nil {
		return nil, errors.New("task store cannot be nil")
	}
	if broker.Queue == "" {
		return nil, errors.New("queue name cannot be empty")
	}
	if broker.ReconnectDelay <= 0 {
		return nil, fmt.Errorf("reconnect delay must be positive, got %s", broker.ReconnectDelay)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Consumer{
		broker:      broker,
		maxAttempts: cfg.MaxDeliveryAttempts,
		dial:        dial,
		tasks:       tasks,
		logger:      logger.With("component", "consumer", "queue", broker.Queue),
		tag:         "task-consumer-" + uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns the current state. It is safe to call from any goroutine.
func (c *Consumer) State() State {
	return State(c.state.Load())
}

func (c *Consumer) setState(s State) {
	if prev := State(c.state.Swap(int32(s))); prev != s {
		c.logger.Debug("consumer state changed", "from", prev.String(), "to", s.String())
	}
}

// Run connects, consumes and reconnects until ctx is done, which returns
// nil. It returns an error only when a bounded reconnect policy is
// exhausted.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.setState(StateDisconnected)

	policy := rabbitmq.RetryPolicy{
		Delay:       c.broker.ReconnectDelay,
		MaxAttempts: c.broker.MaxReconnectAttempts,
	}

	for {
		c.setState(StateConnecting)
		conn, err := rabbitmq.DialWithRetry(ctx, c.broker.URL, c.dial, policy, c.logger)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = c.session(ctx, conn)
		if !conn.IsClosed() {
			_ = conn.Close()
		}
		c.setState(StateDisconnected)

		if ctx.Err() != nil {
			c.logger.Info("consumer stopped")
			return nil
		}
		c.logger.Warn("broker session ended, reconnecting",
			"error", redact.Error(err),
			"retry_in", c.broker.ReconnectDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.broker.ReconnectDelay):
		}
	}
}

// session consumes from one connection until it, its channel, or ctx ends.
func (c *Consumer) session(ctx context.Context, conn rabbitmq.Connection) error {
	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	if _, err := rabbitmq.DeclareQueue(ch, c.broker.Queue); err != nil {
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(
		c.broker.Queue,
		c.tag,
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.setState(StateIdle)
	c.logger.Info("consuming", "consumer_tag", c.tag)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-connClosed:
			return closedError("connection", amqpErr)
		case amqpErr := <-chClosed:
			return closedError("channel", amqpErr)
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery stream closed")
			}
			c.setState(StateProcessing)
			c.handle(ctx, d)
			c.setState(StateIdle)
		}
	}
}

func closedError(what string, amqpErr *amqp.Error) error {
	if amqpErr == nil {
		return fmt.Errorf("broker %s closed", what)
	}
	return fmt.Errorf("broker %s closed: %w", what, amqpErr)
}
