package shared

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	withTrace := WithTraceID(ctx, "abc123def456")
	assert.Equal(t, "abc123def456", GetTraceID(withTrace))
	assert.Empty(t, GetTraceID(ctx), "parent context is unchanged")
}

func TestNewTraceIDIsUniqueHex(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewTraceID()
		assert.Len(t, id, 32)
		assert.Equal(t, strings.ToLower(id), id)
		assert.NotContains(t, id, "-")
		assert.False(t, seen[id], "duplicate trace id %s", id)
		seen[id] = true
	}
}

func TestTraceIDFor(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "empty", incoming: ""},
		{name: "too short", incoming: "abc"},
		{name: "too long", incoming: strings.Repeat("a", 65)},
		{name: "header injection", incoming: "abcdefgh\r\nX-Evil: 1"},
		{name: "spaces", incoming: "abcd efgh"},
		{name: "hex", incoming: "0123456789abcdef", keep: true},
		{name: "uuid", incoming: "6f1c2a3e-7d2b-4c44-9a35-0d6f1c2a3e7d", keep: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TraceIDFor(tt.incoming)
			if tt.keep {
				assert.Equal(t, tt.incoming, got)
				return
			}
			assert.NotEqual(t, tt.incoming, got)
			assert.Len(t, got, 32)
		})
	}
}
