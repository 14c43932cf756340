package ports

import (
	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/pkg/coinselect"
)

// CoinSelector is the abstraction for any kind of simulated wallet that owns
// a pool of candidates and funds withdrawals out of it with a specific
// selection strategy.
type CoinSelector interface {
	// Deposit adds a candidate of the given value to the pool.
	Deposit(value uint64)
	// Values returns the values of the candidates currently in the pool.
	Values() []uint64
	// Withdraw tries to fund the given payments at the given fee rate.
	// A failed attempt is reported with the failed algorithm tag and leaves
	// the pool untouched.
	Withdraw(
		payments domain.Payments, feeRate coinselect.FeeRate,
	) domain.OutcomeRecord
}

// CoinSelectorFactory returns a new selector with an empty pool.
type CoinSelectorFactory func() (CoinSelector, error)
