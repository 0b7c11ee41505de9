package messaging

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/taskpipe/internal/domain"
)

// ContentType is set on every published command.
const ContentType = "application/json"

// DeliveryAttemptHeader carries the attempt number of a republished
// command. A command without the header is on its first attempt.
const DeliveryAttemptHeader = "x-delivery-attempt"

// ErrMalformedCommand is returned when a message body cannot become a task.
// Redelivering such a message can never succeed.
var ErrMalformedCommand = errors.New("malformed task command")

// TaskCommand asks the consumer to create a task. ID is carried for
// symmetry with the read model and is ignored on receipt.
type TaskCommand struct {
	ID          int64           `json:"id"`
	PersonID    int64           `json:"personId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Severity    domain.Severity `json:"severity"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     *time.Time      `json:"endDate"`
}

// NewTaskCommand builds the command for task.
func NewTaskCommand(task *domain.Task) TaskCommand {
	return TaskCommand{
		ID:          task.ID,
		PersonID:    task.PersonID,
		Title:       task.Title,
		Description: task.Description,
		Location:    task.Location,
		Severity:    task.Severity,
		StartDate:   task.StartDate,
		EndDate:     task.EndDate,
	}
}

// Task returns the task to persist. The id is always zero so the store
// assigns one.
func (c TaskCommand) Task() domain.Task {
	return domain.Task{
		PersonID:    c.PersonID,
		Title:       c.Title,
		Description: c.Description,
		Location:    c.Location,
		Severity:    c.Severity,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
	}
}

// EncodeTaskCommand returns the wire form of cmd.
func EncodeTaskCommand(cmd TaskCommand) ([]byte, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task command: %w", err)
	}
	return body, nil
}

// DecodeTaskCommand parses body and checks the resulting task's shape.
// Every failure wraps ErrMalformedCommand. The start date is not compared
// with the current time; that was checked when the command was accepted.
func DecodeTaskCommand(body []byte) (TaskCommand, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return TaskCommand{}, fmt.Errorf("%w: empty body", ErrMalformedCommand)
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return TaskCommand{}, fmt.Errorf("%w: null body", ErrMalformedCommand)
	}

	var cmd TaskCommand
	if err := json.Unmarshal(trimmed, &cmd); err != nil {
		return TaskCommand{}, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}

	task := cmd.Task()
	if err := task.Validate(); err != nil {
		return TaskCommand{}, fmt.Errorf("%w: %w", ErrMalformedCommand, err)
	}

	return cmd, nil
}
