package ports

import (
	"context"

	"github.com/vulpemventures/coinsim/internal/core/domain"
)

// ScenarioReader is the abstraction for any kind of source of scenario
// entries.
type ScenarioReader interface {
	// ReadScenario returns the entries of the given scenario in order.
	// Any malformed entry makes it fail with
	// domain.ErrMalformedScenarioRecord.
	ReadScenario(ctx context.Context, path string) ([]domain.ScenarioEntry, error)
}
