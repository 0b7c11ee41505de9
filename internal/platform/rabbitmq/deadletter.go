package rabbitmq

import (
	"context"
	"fmt"

	"github.com/phrazzld/taskpipe/internal/redact"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DeadLetterReasonHeader records why a message was dead-lettered.
const DeadLetterReasonHeader = "x-dead-letter-reason"

// DeadLetter republishes rejected messages to a side queue so they can be
// inspected instead of silently dropped.
type DeadLetter struct {
	publisher *Publisher
	queue     string
}

// NewDeadLetter creates a DeadLetter publishing to queue through publisher.
func NewDeadLetter(publisher *Publisher, queue string) *DeadLetter {
	return &DeadLetter{publisher: publisher, queue: queue}
}

// Queue returns the dead-letter queue name.
func (d *DeadLetter) Queue() string {
	return d.queue
}

// DeadLetter publishes body with the original headers plus the reason.
func (d *DeadLetter) DeadLetter(ctx context.Context, body []byte, headers amqp.Table, reason error) error {
	out := amqp.Table{}
	for k, v := range headers {
		out[k] = v
	}
	if reason != nil {
		out[DeadLetterReasonHeader] = redact.Error(reason)
	}

	if err := d.publisher.Publish(ctx, d.queue, body, out); err != nil {
		return fmt.Errorf("failed to dead-letter message: %w", err)
	}
	return nil
}
