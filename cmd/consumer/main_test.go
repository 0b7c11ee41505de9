package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/taskpipe/internal/consumer"
	"github.com/phrazzld/taskpipe/internal/platform/logger"
	"github.com/stretchr/testify/assert"
)

type fixedState consumer.State

func (s fixedState) State() consumer.State { return consumer.State(s) }

func TestHealthReflectsConsumerState(t *testing.T) {
	log, _ := logger.NewTestLogger(t)

	tests := []struct {
		state consumer.State
		want  int
	}{
		{consumer.StateDisconnected, http.StatusServiceUnavailable},
		{consumer.StateConnecting, http.StatusServiceUnavailable},
		{consumer.StateIdle, http.StatusOK},
		{consumer.StateProcessing, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			w := httptest.NewRecorder()
			healthRouter(fixedState(tt.state), log).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.want, w.Code)
			if tt.want != http.StatusOK {
				assert.Contains(t, w.Body.String(), tt.state.String())
			}
		})
	}
}

func TestRootCommandRejectsArgs(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"extra"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	assert.Error(t, root.Execute())
	assert.NotNil(t, root.Flags().Lookup("config"))
}
