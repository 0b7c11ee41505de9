package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskpipe/internal/cache"
	"github.com/phrazzld/taskpipe/internal/config"
	"github.com/phrazzld/taskpipe/internal/platform/postgres"
	"github.com/phrazzld/taskpipe/internal/platform/rabbitmq"
	"github.com/phrazzld/taskpipe/internal/platform/redis"
	"github.com/phrazzld/taskpipe/internal/service"
	"github.com/phrazzld/taskpipe/internal/store"
)

// application holds the API's dependencies so they can be closed together
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	db        *sql.DB
	cache     *redis.Cache
	publisher *rabbitmq.Publisher

	taskStore   store.TaskStore
	personStore store.PersonStore
	taskService service.TaskService
}

// newApplication wires stores, the cache-aside reader and the task
// service over already-opened infrastructure.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	redisCache *redis.Cache,
	publisher *rabbitmq.Publisher,
) (*application, error) {
	app := &application{
		config:    cfg,
		logger:    logger,
		db:        db,
		cache:     redisCache,
		publisher: publisher,
	}

	app.taskStore = postgres.NewPostgresTaskStore(db)
	app.personStore = postgres.NewPostgresPersonStore(db)

	aside, err := cache.NewAside(redisCache, app.taskStore, app.personStore, cfg.Cache.TTL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache-aside reader: %w", err)
	}

	app.taskService, err = service.NewTaskService(app.taskStore, app.personStore, aside, publisher, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// runServer opens Postgres, Redis and the broker, then serves until ctx
// is cancelled.
func runServer(ctx context.Context, configFile string) (err error) {
	cfg, log, err := loadAppConfig(configFile)
	if err != nil {
		return err
	}

	// partial owns whatever is open so far until the application does.
	partial := &application{logger: log}
	defer func() {
		if err != nil && partial != nil {
			_ = partial.cleanup()
		}
	}()

	partial.db, err = postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	partial.cache = redis.New(redis.NewClient(cfg.Cache), cfg.Cache.OperationTimeout)
	if err := partial.cache.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach cache: %w", err)
	}

	partial.publisher, err = rabbitmq.NewPublisher(cfg.Broker, rabbitmq.Dial, log)
	if err != nil {
		return err
	}
	if err := partial.publisher.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect publisher: %w", err)
	}

	app, err := newApplication(cfg, log, partial.db, partial.cache, partial.publisher)
	if err != nil {
		return err
	}
	partial = nil

	return app.Run(ctx)
}

// Run serves HTTP until ctx is cancelled, then releases resources.
func (app *application) Run(ctx context.Context) error {
	serveErr := app.startHTTPServer(ctx, app.setupRouter())
	return errors.Join(serveErr, app.cleanup())
}

// cleanup closes the publisher, the cache client and the database.
func (app *application) cleanup() error {
	var errs []error
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		app.logger.Error("application shutdown finished with errors", "error", err)
		return err
	}
	app.logger.Info("application shutdown completed")
	return nil
}
