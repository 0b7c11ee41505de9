package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskpipe/internal/api"
	apiMiddleware "github.com/phrazzld/taskpipe/internal/api/middleware"
)

const requestTimeout = 30 * time.Second

// setupRouter builds the API router: common middleware, /v1 task routes
// and /health.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	r.Route("/v1", taskHandler.Routes)

	r.Get("/health", api.NewHealthHandler(app.healthChecks()...))

	return r
}

func (app *application) healthChecks() []api.HealthCheck {
	var checks []api.HealthCheck
	if app.db != nil {
		checks = append(checks, api.HealthCheck{Name: "database", Check: app.db.PingContext})
	}
	if app.cache != nil {
		checks = append(checks, api.HealthCheck{Name: "cache", Check: app.cache.Ping})
	}
	return checks
}
