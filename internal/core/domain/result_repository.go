package domain

import (
	"context"
	"fmt"
)

var (
	ErrRunAlreadyExists = fmt.Errorf("results for run already exist")
	ErrRunNotFound      = fmt.Errorf("run not found")
)

// ResultSink is the abstraction for any kind of storage receiving the
// streams produced by a single simulation run.
type ResultSink interface {
	// AddPoolSnapshot stores the values of the pool right before the given
	// withdrawal attempt.
	AddPoolSnapshot(ctx context.Context, attempt int, values []uint64) error
	// AddInputs stores the values of the inputs selected by the given
	// withdrawal attempt.
	AddInputs(ctx context.Context, attempt int, values []uint64) error
	// AddOutcome stores the outcome record of a withdrawal attempt.
	AddOutcome(ctx context.Context, record OutcomeRecord) error
	// AddSummary stores a summary snapshot taken after the given withdrawal
	// attempt.
	AddSummary(ctx context.Context, attempt int, summary SummarySnapshot) error
	// Close flushes any buffered data and releases the sink.
	Close() error
}

// ResultRepository is the abstraction for any kind of storage intended to
// read back the results of past runs.
type ResultRepository interface {
	// GetOutcomes returns the outcome records of the given run ordered by
	// withdrawal attempt.
	GetOutcomes(ctx context.Context, runID string) ([]OutcomeRecord, error)
	// GetSummaries returns the summary snapshots of the given run in the
	// order they were taken.
	GetSummaries(ctx context.Context, runID string) ([]SummarySnapshot, error)
}
