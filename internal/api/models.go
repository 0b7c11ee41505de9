package api

import (
	"time"

	"github.com/phrazzld/taskpipe/internal/domain"
)

// TaskRequest is the body of POST and PUT /v1/tasks. Tags check only the
// request's shape; the service applies the domain rules, starting with
// whether the person exists.
type TaskRequest struct {
	ID          int64      `json:"id"          validate:"gte=0"`
	PersonID    int64      `json:"personId"    validate:"gte=0"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Severity    int        `json:"severity"    validate:"gte=0"`
	StartDate   *time.Time `json:"startDate"   validate:"required"`
	EndDate     *time.Time `json:"endDate"`
}

// ToDomain converts the request to a task.
func (r TaskRequest) ToDomain() *domain.Task {
	task := &domain.Task{
		ID:          r.ID,
		PersonID:    r.PersonID,
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		Severity:    domain.Severity(r.Severity),
		EndDate:     r.EndDate,
	}
	if r.StartDate != nil {
		task.StartDate = *r.StartDate
	}
	return task
}

// AcceptedResponse acknowledges a queued write.
type AcceptedResponse struct {
	Status string `json:"status"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
