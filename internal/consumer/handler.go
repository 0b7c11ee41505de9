package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskpipe/internal/events"
	"github.com/phrazzld/taskpipe/internal/messaging"
	"github.com/phrazzld/taskpipe/internal/platform/logger"
	"github.com/phrazzld/taskpipe/internal/redact"
	"github.com/phrazzld/taskpipe/internal/store"
	amqp "github.com/rabbitmq/amqp091-go"
)

// handle settles exactly one delivery.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	log := c.logger.With(
		"delivery_tag", d.DeliveryTag,
		"redelivered", d.Redelivered,
		"attempt", deliveryAttempt(d.Headers),
	)
	ctx = logger.WithLogger(ctx, log)

	cmd, err := messaging.DecodeTaskCommand(d.Body)
	if err != nil {
		log.Warn("rejecting malformed task command", "error", err)
		c.reject(ctx, log, d, err)
		return
	}

	task := cmd.Task()
	added, err := c.tasks.Add(ctx, &task)
	if err != nil {
		if errors.Is(err, store.ErrInvalidEntity) {
			log.Warn("store rejected task command",
				"person_id", task.PersonID,
				"error", redact.Error(err))
			c.reject(ctx, log, d, err)
			return
		}
		log.Error("failed to store task",
			"person_id", task.PersonID,
			"error", redact.Error(err))
		c.retry(ctx, log, d, err)
		return
	}

	if err := d.Ack(false); err != nil {
		log.Error("failed to ack delivery", "task_id", added.ID, "error", redact.Error(err))
	} else {
		log.Info("task stored", "task_id", added.ID, "person_id", added.PersonID)
	}

	if err := c.tasks.Detach(ctx, added); err != nil {
		log.Warn("failed to detach stored task", "task_id", added.ID, "error", err)
	}
	c.announce(ctx, log, added.ID, added.PersonID)
}

// reject dead-letters d when a sink is configured and drops it from the
// queue either way.
func (c *Consumer) reject(ctx context.Context, log *slog.Logger, d amqp.Delivery, reason error) {
	if c.deadLetter != nil {
		if err := c.deadLetter.DeadLetter(ctx, d.Body, d.Headers, reason); err != nil {
			log.Error("failed to dead-letter delivery; dropping it", "error", redact.Error(err))
		}
	}
	if err := d.Nack(false, false); err != nil {
		log.Error("failed to nack delivery", "error", redact.Error(err))
	}
}

// retry gives d another chance after a transient failure. Without a
// ceiling the broker redelivers it. With one, the body is republished with
// the next attempt number and the original acked; the last allowed attempt
// is dead-lettered instead.
func (c *Consumer) retry(ctx context.Context, log *slog.Logger, d amqp.Delivery, cause error) {
	if c.maxAttempts <= 0 || c.republisher == nil {
		if err := d.Nack(false, true); err != nil {
			log.Error("failed to requeue delivery", "error", redact.Error(err))
		}
		return
	}

	attempt := deliveryAttempt(d.Headers)
	if attempt >= c.maxAttempts {
		log.Warn("delivery attempts exhausted", "max_attempts", c.maxAttempts)
		c.reject(ctx, log, d, fmt.Errorf("gave up after %d attempts: %w", attempt, cause))
		return
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[messaging.DeliveryAttemptHeader] = int32(attempt + 1)

	if err := c.republisher.Publish(ctx, c.broker.Queue, d.Body, headers); err != nil {
		log.Error("failed to republish delivery; requeueing", "error", redact.Error(err))
		if err := d.Nack(false, true); err != nil {
			log.Error("failed to requeue delivery", "error", redact.Error(err))
		}
		return
	}
	if err := d.Ack(false); err != nil {
		log.Error("failed to ack republished delivery", "error", redact.Error(err))
	}
}

// announce emits a TypeTaskPersisted event. Failures only cost freshness.
func (c *Consumer) announce(ctx context.Context, log *slog.Logger, taskID, personID int64) {
	if c.emitter == nil {
		return
	}
	event, err := events.NewEvent(events.TypeTaskPersisted, events.TaskPersisted{
		TaskID:   taskID,
		PersonID: personID,
	})
	if err == nil {
		err = c.emitter.Emit(ctx, event)
	}
	if err != nil {
		log.Warn("failed to announce stored task", "task_id", taskID, "error", redact.Error(err))
	}
}

// deliveryAttempt reads the attempt header. A missing or unreadable
// header means the first attempt.
func deliveryAttempt(headers amqp.Table) int {
	var n int64
	switch v := headers[messaging.DeliveryAttemptHeader].(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	default:
		return 1
	}
	if n < 1 {
		return 1
	}
	return int(n)
}
