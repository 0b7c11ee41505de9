package cache

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// DefaultTTL is how long a read-through entry lives.
const DefaultTTL = 10 * time.Minute

// ErrMiss is returned by Store.Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented key/value cache.
type Store interface {
	// Get returns the value for key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// TaskKey returns the cache key for a task id.
func TaskKey(id int64) string {
	return "task:" + strconv.FormatInt(id, 10)
}

// PersonKey returns the cache key for a person id.
func PersonKey(id int64) string {
	return "person:" + strconv.FormatInt(id, 10)
}
