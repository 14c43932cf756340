package coinselect

// DrainWeights are the weights of a change output: the one paid now to create
// it and the one paid in the future to spend it.
type DrainWeights struct {
	OutputWeight uint32
	SpendWeight  uint32
}

// ChangePolicy decides whether a selection gets a change output and scores
// the resulting transaction.
type ChangePolicy struct {
	DustLimit       uint64
	LongTermFeeRate FeeRate
	DrainWeights    DrainWeights
}

// Evaluation is the outcome of applying a ChangePolicy to a selection.
type Evaluation struct {
	SelectedValue uint64
	InputWeight   uint64
	// TotalWeight includes the skeleton and the change output, if any.
	TotalWeight uint64
	Change      uint64
	Fee         uint64
	Waste       float64
}

// HasChange returns whether the evaluated transaction has a change output.
func (e Evaluation) HasChange() bool {
	return e.Change > 0
}

// CostOfChange returns the cost of creating a change output now and spending
// it later at the long-term fee rate.
func (p ChangePolicy) CostOfChange(rate FeeRate) float64 {
	return rate.Cost(uint64(p.DrainWeights.OutputWeight)) +
		p.LongTermFeeRate.Cost(uint64(p.DrainWeights.SpendWeight))
}

// Evaluate applies the policy to a selection of the given value and input
// weight. It returns false if the selection does not cover the target.
//
// Waste is the input weight times the difference between the current and
// the long-term fee rate, plus either the cost of change or, when there is
// no change, the excess left to the miner.
func (p ChangePolicy) Evaluate(
	selectedValue, inputWeight uint64, target Target,
) (Evaluation, bool) {
	base := target.BaseWeight()
	rate := target.FeeRate

	feeNoChange := rate.Fee(inputWeight + base)
	if selectedValue < target.Value+feeNoChange {
		return Evaluation{}, false
	}
	excess := selectedValue - target.Value - feeNoChange
	inputWaste := float64(inputWeight) * float64(rate-p.LongTermFeeRate)

	eval := Evaluation{
		SelectedValue: selectedValue,
		InputWeight:   inputWeight,
		TotalWeight:   inputWeight + base,
		Fee:           excess + feeNoChange,
		Waste:         inputWaste + float64(excess),
	}

	drainWeight := uint64(p.DrainWeights.OutputWeight)
	feeWithChange := rate.Fee(inputWeight + base + drainWeight)
	if selectedValue < target.Value+feeWithChange {
		return eval, true
	}
	change := selectedValue - target.Value - feeWithChange
	if change == 0 || change < p.DustLimit {
		return eval, true
	}
	wasteWithChange := inputWaste + p.CostOfChange(rate)
	if wasteWithChange > eval.Waste {
		return eval, true
	}

	eval.Change = change
	eval.Fee = feeWithChange
	eval.TotalWeight += drainWeight
	eval.Waste = wasteWithChange
	return eval, true
}
