package domain

import (
	"context"
	"time"
)

// Outcome classifies one ledger entry.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID         string
	ConfigPath string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Skipped    int
	Failed     int
}

// RunEntry is one line of a run's report.
type RunEntry struct {
	ID      int64
	RunID   string
	Outcome Outcome
	Message string
}

// RunRepository defines the interface for run ledger storage
type RunRepository interface {
	// Start records a new run
	Start(ctx context.Context, id, configPath string, startedAt time.Time) (*Run, error)

	// Finish stores the final stats of a run
	Finish(ctx context.Context, id string, finishedAt time.Time, stats RunStats) error

	// Get retrieves a run by id
	Get(ctx context.Context, id string) (*Run, error)

	// List retrieves the most recent runs first
	List(ctx context.Context, limit int) ([]*Run, error)

	// Entries retrieves the report lines of a run
	Entries(ctx context.Context, id string, outcome Outcome) ([]*RunEntry, error)
}
