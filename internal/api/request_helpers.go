package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskpipe/internal/domain"
)

// getPathID parses a positive integer path parameter.
func getPathID(r *http.Request, paramName string) (int64, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return 0, domain.NewValidationError(paramName, "is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(paramName, "must be a positive integer")
	}
	return id, nil
}

// getQueryIDs collects every value of the query parameter, accepting both
// repeated parameters (?id=1&id=2) and comma-separated lists (?id=1,2).
// No values yields an empty slice. Range checks are left to the service.
func getQueryIDs(r *http.Request, paramName string) ([]int64, error) {
	ids := []int64{}
	for _, value := range r.URL.Query()[paramName] {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, domain.NewValidationError("ids", "'"+part+"' is not an integer")
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
