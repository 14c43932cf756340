package coinselect

// Target is what a selection must cover: the sum of the pending payments plus
// the fee of the transaction at the given rate.
type Target struct {
	Value         uint64
	FeeRate       FeeRate
	OutputWeights []uint32
}

// BaseWeight returns the weight of the transaction without inputs and change.
func (t Target) BaseWeight() uint64 {
	return BaseWeight(t.OutputWeights)
}

// Required returns the minimum selected value that covers the target with
// inputs of the given total weight and no change output.
func (t Target) Required(inputWeight uint64) uint64 {
	return t.Value + t.FeeRate.Fee(inputWeight+t.BaseWeight())
}

// IsMetBy returns whether the given selected value and input weight cover
// the target without change.
func (t Target) IsMetBy(value, inputWeight uint64) bool {
	return value >= t.Required(inputWeight)
}
