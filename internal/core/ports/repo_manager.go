package ports

import (
	"context"

	"github.com/vulpemventures/coinsim/internal/core/domain"
)

// RepoManager is the abstraction for any kind of service intended to manage
// the storage of simulation results of the same concrete type.
type RepoManager interface {
	// OpenRun returns the sink receiving the results of the given run.
	// It fails with domain.ErrRunAlreadyExists if results for the run are
	// already stored.
	OpenRun(ctx context.Context, runID string) (domain.ResultSink, error)
	// ResultRepository returns the repository to read results back.
	ResultRepository() domain.ResultRepository

	// Close closes the connection with the concrete storage.
	Close()
}
