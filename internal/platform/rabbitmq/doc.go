// Package rabbitmq wraps amqp091-go for the task queue: connection setup
// with a bounded or unbounded retry loop, queue declaration, and a
// publisher that re-dials once when it finds its channel closed.
//
// The Connection and Channel interfaces are the subset of the amqp types
// this module uses, so consumers and tests can supply their own.
package rabbitmq
