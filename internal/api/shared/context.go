package shared

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type traceIDKey struct{}

// TraceIDHeader carries the trace ID in both directions. A well-formed
// value sent by the client is kept; otherwise a new one is minted.
const TraceIDHeader = "X-Trace-Id"

var validTraceID = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

// NewTraceID returns 32 lowercase hex characters.
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// TraceIDFor returns incoming when it is a usable trace ID and a fresh
// one when it is not.
func TraceIDFor(incoming string) string {
	if validTraceID.MatchString(incoming) {
		return incoming
	}
	return NewTraceID()
}

// WithTraceID stores id in ctx.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// GetTraceID returns the trace ID stored in ctx, or "".
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
