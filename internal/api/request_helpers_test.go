package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskpipe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetQueryIDs(t *testing.T) {
	tests := []struct {
		query   string
		want    []int64
		wantErr bool
	}{
		{query: "", want: []int64{}},
		{query: "id=1&id=2", want: []int64{1, 2}},
		{query: "id=3,4", want: []int64{3, 4}},
		{query: "id=5,&id=6", want: []int64{5, 6}},
		{query: "id=0", want: []int64{0}},
		{query: "id=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/v1/tasks?"+tt.query, nil)

			got, err := getQueryIDs(r, "id")

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPathID(t *testing.T) {
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", value)
		r := httptest.NewRequest(http.MethodDelete, "/", nil)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := getPathID(withParam("42"), "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-3", "x"} {
		_, err := getPathID(withParam(bad), "id")
		assert.ErrorIs(t, err, domain.ErrValidation, bad)
	}
}
