// Package store declares how tasks and persons are persisted. Postgres is
// the only source of truth for both; the Redis entries in front of it are
// projections that may be dropped at any time.
package store
