package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Column bounds shared by validation and the schema.
const (
	MaxTitleLength       = 30
	MaxDescriptionLength = 100
	MaxLocationLength    = 100
)

// Severity ranks how urgent a task is. The zero value is not a valid
// severity, so an omitted field is always rejected.
type Severity int

// Defined severities. The integer values are part of the queue wire format.
const (
	SeverityLow      Severity = 1
	SeverityMedium   Severity = 2
	SeverityHigh     Severity = 3
	SeverityCritical Severity = 4
)

// IsValid reports whether s is one of the defined severities.
func (s Severity) IsValid() bool {
	return s >= SeverityLow && s <= SeverityCritical
}

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	case SeverityCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Task is a unit of work owned by a Person.
type Task struct {
	ID          int64      `json:"id"`
	PersonID    int64      `json:"personId"`
	Person      *Person    `json:"person,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Severity    Severity   `json:"severity"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

// Validate checks the task's own fields. It does not check that the owner
// exists or that StartDate lies in the future; both depend on state outside
// the entity and are checked by the service.
func (t *Task) Validate() error {
	if t.PersonID <= 0 {
		return NewValidationError("personId", "must be greater than zero")
	}

	if t.Title == "" {
		return NewValidationError("title", "cannot be empty")
	}
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return NewValidationError("title", fmt.Sprintf("cannot exceed %d characters", MaxTitleLength))
	}

	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return NewValidationError("description", fmt.Sprintf("cannot exceed %d characters", MaxDescriptionLength))
	}

	if utf8.RuneCountInString(t.Location) > MaxLocationLength {
		return NewValidationError("location", fmt.Sprintf("cannot exceed %d characters", MaxLocationLength))
	}

	if !t.Severity.IsValid() {
		return NewValidationError("severity", fmt.Sprintf("'%d' is not a valid value", int(t.Severity)))
	}

	if t.StartDate.IsZero() {
		return NewValidationError("startDate", "is required")
	}

	if t.EndDate != nil && t.EndDate.IsZero() {
		return NewValidationError("endDate", "is not a valid date")
	}

	return nil
}
