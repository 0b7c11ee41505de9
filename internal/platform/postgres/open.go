package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/taskpipe/internal/config"
	"github.com/phrazzld/taskpipe/internal/redact"
)

// PingTimeout bounds the connectivity check in Open.
const PingTimeout = 5 * time.Second

// Open returns a pgx-backed *sql.DB with cfg's pool limits, after a ping
// proves the server is reachable. Driver errors can echo the DSN, so the
// returned error text is redacted.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, errors.New("failed to open database connection: " + redact.Error(err))
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.New("failed to ping database: " + redact.Error(err))
	}

	if log != nil {
		log.Info("database connection established",
			"url", redact.URL(cfg.URL),
			"max_open_conns", cfg.MaxOpenConns)
	}
	return db, nil
}
