package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/taskpipe/internal/config"
	"github.com/phrazzld/taskpipe/internal/messaging"
	"github.com/phrazzld/taskpipe/internal/redact"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"
)

// redialDelay separates a failed publish on a closed channel from the
// single re-dial that follows it.
const redialDelay = 100 * time.Millisecond

// Publisher sends messages to queues on the default exchange. It holds one
// connection and one channel and is safe for concurrent use; publishes are
// serialized.
type Publisher struct {
	mu       sync.Mutex
	url      string
	queue    string
	dial     Dialer
	policy   RetryPolicy
	timeout  time.Duration
	conn     Connection
	ch       Channel
	declared map[string]bool
	logger   *slog.Logger
}

// NewPublisher creates a Publisher for cfg. It does not connect; call
// Connect, or let the first publish dial.
func NewPublisher(cfg config.BrokerConfig, dial Dialer, logger *slog.Logger) (*Publisher, error) {
	if dial == nil {
		return nil, errors.New("dialer cannot be nil")
	}
	if cfg.Queue == "" {
		return nil, errors.New("queue name cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		url:   cfg.URL,
		queue: cfg.Queue,
		dial:  dial,
		policy: RetryPolicy{
			Delay:       cfg.ReconnectDelay,
			MaxAttempts: cfg.MaxReconnectAttempts,
		},
		timeout: cfg.OperationTimeout,
		logger:  logger.With("component", "publisher"),
	}, nil
}

// Connect dials the broker using the reconnect policy and declares the
// task queue.
func (p *Publisher) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := DialWithRetry(ctx, p.url, p.dial, p.policy, p.logger)
	if err != nil {
		return err
	}
	if err := p.attachLocked(conn); err != nil {
		return err
	}
	return p.declareLocked(p.queue)
}

// PublishTaskCommand encodes cmd and publishes it to the task queue. It
// returns once the broker has the message, not once the task is stored.
func (p *Publisher) PublishTaskCommand(ctx context.Context, cmd messaging.TaskCommand) error {
	body, err := messaging.EncodeTaskCommand(cmd)
	if err != nil {
		return err
	}
	return p.Publish(ctx, p.queue, body, nil)
}

// Publish sends body to queue, declaring the queue first if this channel
// has not done so yet. When the channel turns out to be closed the
// publisher re-dials once and tries again.
func (p *Publisher) Publish(ctx context.Context, queue string, body []byte, headers amqp.Table) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	backoff := retry.WithMaxRetries(1, retry.NewConstant(redialDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if p.ch == nil {
			conn, err := p.dial(p.url)
			if err != nil {
				return fmt.Errorf("failed to connect to broker: %w", err)
			}
			if err := p.attachLocked(conn); err != nil {
				return err
			}
		}

		err := p.publishLocked(ctx, queue, body, headers)
		if errors.Is(err, amqp.ErrClosed) {
			p.logger.Warn("broker channel closed, re-dialing", "queue", queue)
			p.resetLocked()
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		p.logger.Error("publish failed", "queue", queue, "error", redact.Error(err))
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

func (p *Publisher) publishLocked(ctx context.Context, queue string, body []byte, headers amqp.Table) error {
	if err := p.declareLocked(queue); err != nil {
		return err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	return p.ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: messaging.ContentType,
			Headers:     headers,
			Body:        body,
		},
	)
}

func (p *Publisher) declareLocked(queue string) error {
	if p.declared[queue] {
		return nil
	}
	if _, err := DeclareQueue(p.ch, queue); err != nil {
		return err
	}
	p.declared[queue] = true
	return nil
}

func (p *Publisher) attachLocked(conn Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	p.conn = conn
	p.ch = ch
	p.declared = make(map[string]bool)
	return nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		_ = p.conn.Close()
	}
	p.ch = nil
	p.conn = nil
	p.declared = nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	p.ch = nil
	p.conn = nil
	p.declared = nil
	return err
}
