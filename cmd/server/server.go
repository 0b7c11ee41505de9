package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/phrazzld/taskpipe/internal/api"
)

// startHTTPServer serves router until ctx is cancelled or the listener
// fails, then shuts down gracefully.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return api.Serve(ctx, server, app.logger)
}
