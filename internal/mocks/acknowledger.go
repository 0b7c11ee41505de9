package mocks

import (
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Ack outcomes recorded by MockAcknowledger.
const (
	OutcomeAck           = "ack"
	OutcomeNackRequeue   = "nack-requeue"
	OutcomeNackNoRequeue = "nack-drop"
	OutcomeReject        = "reject"
)

// MockAcknowledger implements amqp.Acknowledger and records how each
// delivery tag was settled.
type MockAcknowledger struct {
	Err error

	mu       sync.Mutex
	outcomes map[uint64]string
	order    []uint64
}

var _ amqp.Acknowledger = (*MockAcknowledger)(nil)

func (a *MockAcknowledger) settle(tag uint64, outcome string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.outcomes == nil {
		a.outcomes = make(map[uint64]string)
	}
	a.outcomes[tag] = outcome
	a.order = append(a.order, tag)
	return a.Err
}

// Ack implements amqp.Acknowledger.
func (a *MockAcknowledger) Ack(tag uint64, _ bool) error {
	return a.settle(tag, OutcomeAck)
}

// Nack implements amqp.Acknowledger.
func (a *MockAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	if requeue {
		return a.settle(tag, OutcomeNackRequeue)
	}
	return a.settle(tag, OutcomeNackNoRequeue)
}

// Reject implements amqp.Acknowledger.
func (a *MockAcknowledger) Reject(tag uint64, _ bool) error {
	return a.settle(tag, OutcomeReject)
}

// Outcome returns how tag was settled, or "" if it was not.
func (a *MockAcknowledger) Outcome(tag uint64) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outcomes[tag]
}

// Settled returns the number of settle calls.
func (a *MockAcknowledger) Settled() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.order)
}

// Delivery builds a delivery with body and tag settled through a.
func (a *MockAcknowledger) Delivery(tag uint64, body []byte, headers amqp.Table) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: a,
		DeliveryTag:  tag,
		Body:         body,
		Headers:      headers,
		ContentType:  "application/json",
	}
}
