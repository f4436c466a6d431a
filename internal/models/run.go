package models

import (
	"time"

	"github.com/google/uuid"
)

// Run is the in-memory result set of one invocation. Rows are appended in
// processing order (code-major, store-minor) and never reordered.
type Run struct {
	ID         uuid.UUID   `json:"id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Rows       []ResultRow `json:"rows"`

	errors int
}

// Summary counts the outcomes of a run.
type Summary struct {
	Total    int `json:"total"`
	Found    int `json:"found"`
	NotFound int `json:"not_found"`
	Errors   int `json:"errors"`
}

func NewRun() *Run {
	return &Run{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Rows:      make([]ResultRow, 0),
	}
}

// Append adds a row. visitErr is the navigation or extraction failure that
// produced the row, if any; it only feeds the summary.
func (r *Run) Append(row ResultRow, visitErr error) {
	r.Rows = append(r.Rows, row)
	if visitErr != nil {
		r.errors++
	}
}

// Finish stamps the finish time.
func (r *Run) Finish() {
	r.FinishedAt = time.Now()
}

func (r *Run) Summary() Summary {
	s := Summary{Total: len(r.Rows), Errors: r.errors}
	for _, row := range r.Rows {
		if row.Available {
			s.Found++
		}
	}
	s.NotFound = s.Total - s.Found - s.Errors
	return s
}
