// Package api serves the task HTTP API. Handlers decode and shape-check
// requests, delegate to the task service, and translate service errors
// into status codes and sanitized messages.
package api
