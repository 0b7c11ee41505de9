package domain

// MaxNameLength bounds Person.Name.
const MaxNameLength = 100

// Person owns tasks. Persons are seeded by migration and are never created
// or removed by the application. Tasks is a back-reference filled in by the
// store when persons are read; it never drives a task's lifecycle.
type Person struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Tasks []Task `json:"tasks,omitempty"`
}
