// Package testdb gives integration tests a migrated Postgres database.
// Tests run only when TASKS_TEST_DATABASE_URL is set and are skipped
// otherwise.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/phrazzld/taskpipe/internal/config"
	"github.com/phrazzld/taskpipe/internal/platform/logger"
	"github.com/phrazzld/taskpipe/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// DatabaseURLEnv names the variable that enables integration tests.
const DatabaseURLEnv = "TASKS_TEST_DATABASE_URL"

// Timeout bounds setup work against the test database.
const Timeout = 5 * time.Second

// Open connects to the database named by DatabaseURLEnv, applies every
// migration, and closes the pool when t ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv(DatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set, skipping integration test", DatabaseURLEnv)
	}

	log, _ := logger.NewTestLogger(t)
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	db, err := postgres.Open(ctx, config.DatabaseConfig{URL: url, MaxOpenConns: 4, MaxIdleConns: 4}, log)
	require.NoError(t, err, "open test database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("closing test database: %v", err)
		}
	})

	require.NoError(t, postgres.Migrate(ctx, db, "up", log), "migrate test database")
	return db
}

// WithTx hands fn a transaction that is rolled back afterwards, so the
// rows a test writes are never seen by another.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "begin test transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("rolling back test transaction: %v", err)
		}
	}()

	fn(t, tx)
}

// SeedPerson inserts a person inside tx and returns its id.
func SeedPerson(t *testing.T, tx *sql.Tx, name string) int64 {
	t.Helper()

	var id int64
	err := tx.QueryRowContext(context.Background(),
		`INSERT INTO persons (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	require.NoError(t, err, "seed person %q", name)
	return id
}
