package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/taskpipe/internal/api/middleware"
	"github.com/phrazzld/taskpipe/internal/api/shared"
	"github.com/phrazzld/taskpipe/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	log, buf := logger.NewTestLogger(t)

	var seenTrace string
	handler := middleware.NewTraceMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/tasks", nil))

	require.Len(t, seenTrace, 32)
	assert.Equal(t, seenTrace, w.Header().Get(shared.TraceIDHeader))
	assert.Equal(t, http.StatusTeapot, w.Code)

	inside := buf.Find("inside handler")
	completed := buf.Find("request completed")
	require.NotNil(t, inside)
	require.NotNil(t, completed)
	assert.Equal(t, seenTrace, inside["trace_id"])
	assert.EqualValues(t, http.StatusTeapot, completed["status"])
}

func TestTraceMiddlewareKeepsClientTraceID(t *testing.T) {
	log, _ := logger.NewTestLogger(t)

	var seenTrace string
	handler := middleware.NewTraceMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = shared.GetTraceID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
	r.Header.Set(shared.TraceIDHeader, "client-trace-0001")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, "client-trace-0001", seenTrace)
	assert.Equal(t, "client-trace-0001", w.Header().Get(shared.TraceIDHeader))
}
