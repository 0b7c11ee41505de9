// Package messaging defines the task command carried on the queue and its
// JSON encoding. Publisher and consumer agree on nothing else.
package messaging
