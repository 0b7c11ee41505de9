package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskpipe/internal/redact"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"
)

// Channel is the subset of *amqp.Channel used by this module.
type Channel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Consume(
		queue, consumer string,
		autoAck, exclusive, noLocal, noWait bool,
		args amqp.Table,
	) (<-chan amqp.Delivery, error)
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) error
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// Connection is the subset of *amqp.Connection used by this module.
type Connection interface {
	Channel() (Channel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	IsClosed() bool
	Close() error
}

// Dialer opens a broker connection.
type Dialer func(url string) (Connection, error)

var _ Channel = (*amqp.Channel)(nil)

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) Channel() (Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Dial is the Dialer backed by amqp.Dial.
func Dial(url string) (Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConnection{Connection: conn}, nil
}

// RetryPolicy controls DialWithRetry.
type RetryPolicy struct {
	// Delay between attempts. Must be positive.
	Delay time.Duration
	// MaxAttempts bounds the number of dials; zero means unlimited.
	MaxAttempts uint64
}

// DialWithRetry dials url until it succeeds, the policy is exhausted, or
// ctx is done. Only ctx cancellation stops an unlimited policy.
func DialWithRetry(ctx context.Context, url string, dial Dialer, policy RetryPolicy, log *slog.Logger) (Connection, error) {
	if policy.Delay <= 0 {
		return nil, fmt.Errorf("reconnect delay must be positive, got %s", policy.Delay)
	}

	backoff := retry.NewConstant(policy.Delay)
	if policy.MaxAttempts > 0 {
		backoff = retry.WithMaxRetries(policy.MaxAttempts-1, backoff)
	}

	var (
		conn    Connection
		attempt uint64
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		c, err := dial(url)
		if err != nil {
			log.Warn("broker connection failed",
				"attempt", attempt,
				"retry_in", policy.Delay,
				"error", redact.Error(err))
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker after %d attempts: %w", attempt, err)
	}

	log.Info("connected to broker", "url", redact.URL(url), "attempts", attempt)
	return conn, nil
}

// DeclareQueue declares name as a plain queue: not durable, not exclusive,
// not auto-deleted, no arguments. Declaring an existing queue with the same
// parameters is a no-op on the broker.
func DeclareQueue(ch Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		false, // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return q, nil
}
