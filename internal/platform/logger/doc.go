// Package logger configures the process-wide slog JSON logger and moves
// request- and message-scoped loggers through a context.Context, so a
// trace_id or delivery_tag attached at the edge shows up on every line
// logged further down.
package logger
