// Package testdb provides utilities for PostgreSQL integration tests. Tests
// that use it are skipped unless TASKS_TEST_DATABASE_URL is set.
package testdb
