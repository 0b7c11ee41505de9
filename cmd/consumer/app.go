package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskpipe/internal/api"
	"github.com/phrazzld/taskpipe/internal/cache"
	"github.com/phrazzld/taskpipe/internal/config"
	"github.com/phrazzld/taskpipe/internal/consumer"
	"github.com/phrazzld/taskpipe/internal/events"
	"github.com/phrazzld/taskpipe/internal/platform/logger"
	"github.com/phrazzld/taskpipe/internal/platform/postgres"
	"github.com/phrazzld/taskpipe/internal/platform/rabbitmq"
	"github.com/phrazzld/taskpipe/internal/platform/redis"
	"github.com/phrazzld/taskpipe/internal/redact"
	"golang.org/x/sync/errgroup"
)

// stateSource is the part of the consumer the health endpoint needs.
type stateSource interface {
	State() consumer.State
}

// run wires the consumer and its health server and blocks until ctx is
// cancelled or the consumer gives up reconnecting.
func run(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log = log.With("process", "consumer")
	log.Info("configuration loaded",
		"broker", redact.URL(cfg.Broker.URL),
		"queue", cfg.Broker.Queue,
		"dead_letter_queue", cfg.Broker.DeadLetterQueue,
		"max_delivery_attempts", cfg.Consumer.MaxDeliveryAttempts,
		"health_port", cfg.Consumer.HealthPort)

	db, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeAndLog(log, "database", db.Close)

	// The side publisher carries dead letters and retry republishes so
	// they never share a channel with the consume loop.
	publisher, err := rabbitmq.NewPublisher(cfg.Broker, rabbitmq.Dial, log)
	if err != nil {
		return err
	}
	defer closeAndLog(log, "publisher", publisher.Close)

	opts := []consumer.Option{consumer.WithRepublisher(publisher)}
	if cfg.Broker.DeadLetterQueue != "" {
		opts = append(opts, consumer.WithDeadLetter(rabbitmq.NewDeadLetter(publisher, cfg.Broker.DeadLetterQueue)))
	}

	if cfg.Consumer.InvalidateAfterPersist {
		redisCache := redis.New(redis.NewClient(cfg.Cache), cfg.Cache.OperationTimeout)
		defer closeAndLog(log, "cache", redisCache.Close)

		emitter := events.NewInMemoryEmitter(log)
		emitter.Subscribe(events.TypeTaskPersisted, cache.PersistedInvalidator(redisCache))
		opts = append(opts, consumer.WithEmitter(emitter))
	}

	c, err := consumer.New(cfg.Broker, cfg.Consumer, rabbitmq.Dial, postgres.NewPostgresTaskStore(db), log, opts...)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Consumer.HealthPort),
		Handler:           healthRouter(c, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Serve(gctx, healthSrv, log)
	})
	g.Go(func() error {
		return c.Run(gctx)
	})

	err = g.Wait()
	log.Info("consumer stopped", "state", c.State().String())
	return err
}

// healthRouter serves /health as 200 while the consumer is Idle or
// Processing and 503 while it is disconnected or connecting.
func healthRouter(src stateSource, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", api.NewHealthHandler(api.HealthCheck{
		Name: "consumer",
		Check: func(context.Context) error {
			state := src.State()
			if !state.Healthy() {
				return errors.New(state.String())
			}
			return nil
		},
	}))
	log.Debug("health router ready")
	return r
}

func closeAndLog(log *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Error("failed to close "+what, "error", redact.Error(err))
	}
}
