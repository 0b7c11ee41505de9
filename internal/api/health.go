package api

import (
	"context"
	"net/http"
	"time"

	"github.com/phrazzld/taskpipe/internal/api/shared"
	"github.com/phrazzld/taskpipe/internal/redact"
)

// HealthCheck is one named dependency probe for /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthTimeout bounds the whole /health probe.
const HealthTimeout = 2 * time.Second

// NewHealthHandler answers 200 when every check passes and 503 otherwise.
// Each check reports "ok" or its redacted failure text in the body.
func NewHealthHandler(checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), HealthTimeout)
		defer cancel()

		resp := HealthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}

		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				resp.Checks[c.Name] = redact.Error(err)
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name] = "ok"
		}

		shared.RespondWithJSON(w, r, status, resp)
	}
}
