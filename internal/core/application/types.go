package application

import (
	"fmt"

	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/internal/core/ports"
	poolselector "github.com/vulpemventures/coinsim/internal/infrastructure/coin-selector/pool-selector"
)

const (
	CoinSelectorBranchAndBound = "bnb"
	CoinSelectorFifo           = "fifo"
)

var (
	ErrUnknownCoinSelector = fmt.Errorf("unknown coin selector type")

	coinSelectorByType = map[string]func(
		poolselector.SelectorOpts,
	) (ports.CoinSelector, error){
		CoinSelectorBranchAndBound: poolselector.NewBranchAndBoundCoinSelector,
		CoinSelectorFifo:           poolselector.NewFifoCoinSelector,
	}
)

// NewCoinSelectorFactory returns a factory of selectors of the given type
// sharing the same options.
func NewCoinSelectorFactory(
	selectorType string, opts poolselector.SelectorOpts,
) (ports.CoinSelectorFactory, error) {
	factory, ok := coinSelectorByType[selectorType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCoinSelector, selectorType)
	}
	// Make sure options are valid before any run starts.
	if _, err := factory(opts); err != nil {
		return nil, err
	}
	return func() (ports.CoinSelector, error) {
		return factory(opts)
	}, nil
}

// RunInfo holds info about a completed simulation run.
type RunInfo struct {
	RunID            string
	Deposits         int
	WithdrawAttempts int
	Summary          domain.SummarySnapshot
}
