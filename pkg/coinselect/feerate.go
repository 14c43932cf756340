package coinselect

import (
	"math"

	"github.com/btcsuite/btcd/wire"
)

const (
	// version + locktime.
	txFixedOverhead = 4 + 4

	// feeEpsilon absorbs float noise so that an exact integer product like
	// 10 * 0.3 is not rounded up to the next satoshi.
	feeEpsilon = 1e-9
)

// FeeRate is a fee rate expressed in satoshi per size unit. The size unit is
// the same one used for candidate and output weights.
type FeeRate float64

// Cost returns the exact, unrounded fee for the given weight.
func (r FeeRate) Cost(weight uint64) float64 {
	return float64(weight) * float64(r)
}

// Fee returns the fee for the given weight, rounded up to the next satoshi.
func (r FeeRate) Fee(weight uint64) uint64 {
	cost := r.Cost(weight)
	if cost <= 0 {
		return 0
	}
	return uint64(math.Ceil(cost - feeEpsilon))
}

// Implied returns the fee rate actually paid by a transaction of the given
// weight paying the given fee.
func Implied(fee, weight uint64) (FeeRate, bool) {
	if weight == 0 {
		return 0, false
	}
	return FeeRate(float64(fee) / float64(weight)), true
}

// BaseWeight returns the weight of the transaction skeleton, that is
// everything but the inputs: version, locktime, input and output counts and
// the given outputs.
func BaseWeight(outputWeights []uint32) uint64 {
	weight := uint64(txFixedOverhead)
	weight += uint64(wire.VarIntSerializeSize(0))
	weight += uint64(wire.VarIntSerializeSize(uint64(len(outputWeights))))
	for _, w := range outputWeights {
		weight += uint64(w)
	}
	return weight
}
