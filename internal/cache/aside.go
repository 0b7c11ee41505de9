package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskpipe/internal/domain"
	"github.com/phrazzld/taskpipe/internal/platform/logger"
	"github.com/phrazzld/taskpipe/internal/store"
)

// Aside coordinates cache-aside reads over a Store in front of the task
// and person stores.
type Aside struct {
	cache   Store
	tasks   store.TaskStore
	persons store.PersonStore
	ttl     time.Duration
	logger  *slog.Logger
}

// NewAside creates an Aside. A non-positive ttl selects DefaultTTL.
func NewAside(
	cache Store,
	tasks store.TaskStore,
	persons store.PersonStore,
	ttl time.Duration,
	logger *slog.Logger,
) (*Aside, error) {
	if cache == nil {
		return nil, errors.New("cache store cannot be nil")
	}
	if tasks == nil {
		return nil, errors.New("task store cannot be nil")
	}
	if persons == nil {
		return nil, errors.New("person store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Aside{
		cache:   cache,
		tasks:   tasks,
		persons: persons,
		ttl:     ttl,
		logger:  logger.With("component", "cache_aside"),
	}, nil
}

// Tasks returns the tasks for ids in order, reading each through the
// cache. Ids with no task are omitted.
func (a *Aside) Tasks(ctx context.Context, ids []int64) ([]domain.Task, error) {
	return readThrough(ctx, a, ids, TaskKey, func(ctx context.Context, id int64) (domain.Task, bool, error) {
		found, err := a.tasks.GetByIDs(ctx, []int64{id})
		if err != nil || len(found) == 0 {
			return domain.Task{}, false, err
		}
		return found[0], true, nil
	})
}

// Persons returns the persons for ids in order, each with its tasks,
// reading each through the cache. Ids with no person are omitted.
func (a *Aside) Persons(ctx context.Context, ids []int64) ([]domain.Person, error) {
	return readThrough(ctx, a, ids, PersonKey, func(ctx context.Context, id int64) (domain.Person, bool, error) {
		found, err := a.persons.GetByIDs(ctx, []int64{id})
		if err != nil || len(found) == 0 {
			return domain.Person{}, false, err
		}
		return found[0], true, nil
	})
}

// Invalidate deletes keys. Missing keys are not an error.
func (a *Aside) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := a.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate %v: %w", keys, err)
	}
	logger.FromContextOrDefault(ctx, a.logger).Debug("cache entries invalidated", "keys", keys)
	return nil
}

// readThrough resolves each id independently: a decodable hit is used, and
// anything else falls back to load, whose result is written back with the
// configured TTL. There is no negative caching.
func readThrough[T any](
	ctx context.Context,
	a *Aside,
	ids []int64,
	key func(int64) string,
	load func(context.Context, int64) (T, bool, error),
) ([]T, error) {
	log := logger.FromContextOrDefault(ctx, a.logger)
	result := make([]T, 0, len(ids))

	for _, id := range ids {
		k := key(id)

		raw, err := a.cache.Get(ctx, k)
		switch {
		case err == nil:
			var v T
			jsonErr := json.Unmarshal(raw, &v)
			if jsonErr == nil {
				result = append(result, v)
				continue
			}
			log.Warn("discarding undecodable cache entry", "key", k, "error", jsonErr)
		case errors.Is(err, ErrMiss):
		default:
			return nil, fmt.Errorf("failed to read %s from cache: %w", k, err)
		}

		v, found, err := load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", k, err)
		}
		if !found {
			log.Debug("not found in store", "key", k)
			continue
		}

		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s for cache: %w", k, err)
		}
		if err := a.cache.Set(ctx, k, encoded, a.ttl); err != nil {
			return nil, fmt.Errorf("failed to write %s to cache: %w", k, err)
		}
		result = append(result, v)
	}

	return result, nil
}
