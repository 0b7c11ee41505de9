// Package consumer turns queued task commands into stored tasks.
//
// A Consumer owns one broker connection and one channel at a time and
// handles deliveries one by one with manual acknowledgement:
//
//   - stored: ack
//   - malformed or rejected by the store as invalid: dead-letter, then nack
//     without requeue
//   - transient failure: nack with requeue, or republish with an attempt
//     counter when a delivery ceiling is configured
//
// Losing the connection or channel sends the consumer back through the
// connect loop. State reports where in that cycle it is.
package consumer
