package domain

import "github.com/vulpemventures/coinsim/pkg/coinselect"

// OutcomeRecord is the result of a withdrawal attempt. Optional fields are
// nil for failed attempts, ChangeAmount also when there is no change.
type OutcomeRecord struct {
	ID                            int                  `json:"id"`
	Amount                        uint64               `json:"amount"`
	Fee                           *uint64              `json:"fee,omitempty"`
	TargetFeeRate                 coinselect.FeeRate   `json:"target_fee_rate"`
	RealFeeRate                   *coinselect.FeeRate  `json:"real_fee_rate,omitempty"`
	Algorithm                     coinselect.Algorithm `json:"algorithm"`
	Inputs                        []uint64             `json:"inputs"`
	NegativeEffectiveValuedInputs *int                 `json:"negative_effective_valued_inputs,omitempty"`
	OutputCount                   *int                 `json:"output_count,omitempty"`
	ChangeAmount                  *uint64              `json:"change_amount,omitempty"`
	UtxoCountBefore               int                  `json:"utxo_count_before"`
	UtxoCountAfter                int                  `json:"utxo_count_after"`
	Balance                       uint64               `json:"balance"`
	CostToEmpty                   float64              `json:"cost_to_empty"`
	WasteScore                    *float64             `json:"waste_score,omitempty"`
}

func (r OutcomeRecord) IsFailed() bool {
	return r.Algorithm == coinselect.AlgorithmFailed
}

// InputCount returns the number of selected inputs, nil if the attempt failed.
func (r OutcomeRecord) InputCount() *int {
	if r.IsFailed() {
		return nil
	}
	count := len(r.Inputs)
	return &count
}
