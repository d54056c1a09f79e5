package history

import (
	"strings"
	"time"
)

// Status represents the outcome of a recorded analysis.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// StatusInvalid marks runs rejected for bad input or configuration.
	StatusInvalid Status = "invalid"
)

var statusSet = map[Status]struct{}{
	StatusCompleted: {},
	StatusFailed:    {},
	StatusInvalid:   {},
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[status]
	return status, ok
}

// Entry is a single recorded analysis.
type Entry struct {
	ID              int64
	RunID           string
	Source          string
	Title           string
	Status          Status
	Accent          string
	Confidence      int
	Explanation     string
	Method          string
	Transcriber     string
	Transcript      string
	ErrorMessage    string
	DurationSeconds float64
	CreatedAt       time.Time
	FinishedAt      time.Time
}

// Succeeded reports whether the entry finished with a classification.
func (e *Entry) Succeeded() bool {
	return e != nil && e.Status == StatusCompleted
}

// Summary holds entry counts grouped by status.
type Summary struct {
	Total     int
	Completed int
	Failed    int
	Invalid   int
}
