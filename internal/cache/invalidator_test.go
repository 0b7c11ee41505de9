package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/taskpipe/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistedInvalidator(t *testing.T) {
	ctx := context.Background()
	mem := newMemStore()
	require.NoError(t, mem.Set(ctx, "person:3", []byte("{}"), time.Minute))
	require.NoError(t, mem.Set(ctx, "person:4", []byte("{}"), time.Minute))
	handler := PersistedInvalidator(mem)

	event, err := events.NewEvent(events.TypeTaskPersisted, events.TaskPersisted{TaskID: 1, PersonID: 3})
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(ctx, event))
	assert.False(t, mem.has("person:3"))
	assert.True(t, mem.has("person:4"))

	other, err := events.NewEvent("something.else", map[string]int{"personId": 4})
	require.NoError(t, err)
	require.NoError(t, handler.HandleEvent(ctx, other))
	assert.True(t, mem.has("person:4"))

	mem.delErr = errors.New("cache down")
	assert.ErrorContains(t, handler.HandleEvent(ctx, event), "cache down")
}
