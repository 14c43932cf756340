package dbcsv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/pkg/coinselect"
)

type outcomeRow struct {
	ID                            int      `csv:"id"`
	Amount                        uint64   `csv:"amount"`
	Fee                           *uint64  `csv:"fee,omitempty"`
	TargetFeeRate                 float64  `csv:"target_feerate"`
	RealFeeRate                   *float64 `csv:"real_feerate,omitempty"`
	Algorithm                     string   `csv:"algorithm"`
	InputCount                    *int     `csv:"input_count,omitempty"`
	NegativeEffectiveValuedInputs *int     `csv:"negative_effective_valued_utxos,omitempty"`
	OutputCount                   *int     `csv:"output_count,omitempty"`
	ChangeAmount                  *uint64  `csv:"change_amount,omitempty"`
	UtxoCountBefore               int      `csv:"utxo_count_before_payment"`
	UtxoCountAfter                int      `csv:"utxo_count_after_payment"`
	Balance                       uint64   `csv:"balance"`
	CostToEmpty                   float64  `csv:"cost_to_empty_at_long_term_feerate"`
	WasteScore                    *float64 `csv:"waste_score,omitempty"`
}

func newOutcomeRow(record domain.OutcomeRecord) *outcomeRow {
	var realFeeRate *float64
	if record.RealFeeRate != nil {
		rate := float64(*record.RealFeeRate)
		realFeeRate = &rate
	}
	return &outcomeRow{
		ID:                            record.ID,
		Amount:                        record.Amount,
		Fee:                           record.Fee,
		TargetFeeRate:                 float64(record.TargetFeeRate),
		RealFeeRate:                   realFeeRate,
		Algorithm:                     string(record.Algorithm),
		InputCount:                    record.InputCount(),
		NegativeEffectiveValuedInputs: record.NegativeEffectiveValuedInputs,
		OutputCount:                   record.OutputCount,
		ChangeAmount:                  record.ChangeAmount,
		UtxoCountBefore:               record.UtxoCountBefore,
		UtxoCountAfter:                record.UtxoCountAfter,
		Balance:                       record.Balance,
		CostToEmpty:                   record.CostToEmpty,
		WasteScore:                    record.WasteScore,
	}
}

// toDomain returns the record without its inputs, which are stored in a
// separate file.
func (r *outcomeRow) toDomain() domain.OutcomeRecord {
	var realFeeRate *coinselect.FeeRate
	if r.RealFeeRate != nil {
		rate := coinselect.FeeRate(*r.RealFeeRate)
		realFeeRate = &rate
	}
	return domain.OutcomeRecord{
		ID:                            r.ID,
		Amount:                        r.Amount,
		Fee:                           r.Fee,
		TargetFeeRate:                 coinselect.FeeRate(r.TargetFeeRate),
		RealFeeRate:                   realFeeRate,
		Algorithm:                     coinselect.Algorithm(r.Algorithm),
		Inputs:                        []uint64{},
		NegativeEffectiveValuedInputs: r.NegativeEffectiveValuedInputs,
		OutputCount:                   r.OutputCount,
		ChangeAmount:                  r.ChangeAmount,
		UtxoCountBefore:               r.UtxoCountBefore,
		UtxoCountAfter:                r.UtxoCountAfter,
		Balance:                       r.Balance,
		CostToEmpty:                   r.CostToEmpty,
		WasteScore:                    r.WasteScore,
	}
}

// valuesRow is a list of values tagged with the attempt it refers to, like
// `12,"100000,25000"`.
type valuesRow struct {
	ID     int    `csv:"id"`
	Values string `csv:"values"`
}

func newValuesRow(attempt int, values []uint64) *valuesRow {
	strs := make([]string, 0, len(values))
	for _, v := range values {
		strs = append(strs, strconv.FormatUint(v, 10))
	}
	return &valuesRow{attempt, strings.Join(strs, ",")}
}

func (r *valuesRow) values() ([]uint64, error) {
	values := make([]uint64, 0)
	if strings.TrimSpace(r.Values) == "" {
		return values, nil
	}
	for _, s := range strings.Split(r.Values, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for attempt %d", s, r.ID)
		}
		values = append(values, v)
	}
	return values, nil
}

type summaryRow struct {
	ScenarioName                  string   `csv:"scenario_file"`
	WithdrawAttempts              uint64   `csv:"withdraw_attempts"`
	Withdrawals                   uint64   `csv:"withdrawals"`
	Deposits                      uint64   `csv:"deposits"`
	Failures                      uint64   `csv:"failures"`
	Usage                         string   `csv:"usage"`
	TotalFees                     uint64   `csv:"total_fees"`
	NegativeEffectiveValuedInputs uint64   `csv:"negative_effective_valued_utxos"`
	InputsSpent                   uint64   `csv:"inputs_spent"`
	ChangeOutputs                 uint64   `csv:"change_outputs"`
	ChangelessOutputs             uint64   `csv:"changeless_outputs"`
	MinChange                     *uint64  `csv:"min_change_value,omitempty"`
	MaxChange                     *uint64  `csv:"max_change_value,omitempty"`
	MeanChange                    *float64 `csv:"mean_change_value,omitempty"`
	StdDevChange                  *float64 `csv:"std_dev_of_change_value,omitempty"`
	MinInputs                     *uint64  `csv:"min_input_size,omitempty"`
	MaxInputs                     *uint64  `csv:"max_input_size,omitempty"`
	MeanInputs                    *float64 `csv:"mean_input_size,omitempty"`
	StdDevInputs                  *float64 `csv:"std_dev_of_input_size,omitempty"`
	Balance                       uint64   `csv:"final_balance"`
	UtxoCount                     int      `csv:"final_utxo_count"`
	CostToEmpty                   float64  `csv:"cost_to_empty_at_long_term_feerate"`
	TotalCost                     float64  `csv:"total_cost"`
	MeanFeePerWithdrawal          *float64 `csv:"mean_fee_per_withdrawal,omitempty"`
}

func newSummaryRow(s domain.SummarySnapshot) *summaryRow {
	return &summaryRow{
		ScenarioName:                  s.ScenarioName,
		WithdrawAttempts:              s.WithdrawAttempts,
		Withdrawals:                   s.Withdrawals,
		Deposits:                      s.Deposits,
		Failures:                      s.Failures,
		Usage:                         s.Usage(),
		TotalFees:                     s.TotalFees,
		NegativeEffectiveValuedInputs: s.NegativeEffectiveValuedInputs,
		InputsSpent:                   s.InputsSpent,
		ChangeOutputs:                 s.ChangeOutputs,
		ChangelessOutputs:             s.ChangelessOutputs,
		MinChange:                     s.MinChange,
		MaxChange:                     s.MaxChange,
		MeanChange:                    s.MeanChange,
		StdDevChange:                  s.StdDevChange,
		MinInputs:                     s.MinInputs,
		MaxInputs:                     s.MaxInputs,
		MeanInputs:                    s.MeanInputs,
		StdDevInputs:                  s.StdDevInputs,
		Balance:                       s.Balance,
		UtxoCount:                     s.UtxoCount,
		CostToEmpty:                   s.CostToEmpty,
		TotalCost:                     s.TotalCost,
		MeanFeePerWithdrawal:          s.MeanFeePerWithdrawal,
	}
}

func (r *summaryRow) toDomain() (*domain.SummarySnapshot, error) {
	usage, err := domain.ParseUsage(r.Usage)
	if err != nil {
		return nil, err
	}
	return &domain.SummarySnapshot{
		ScenarioName:                  r.ScenarioName,
		WithdrawAttempts:              r.WithdrawAttempts,
		Withdrawals:                   r.Withdrawals,
		Deposits:                      r.Deposits,
		Failures:                      r.Failures,
		AlgorithmFrequency:            usage,
		TotalFees:                     r.TotalFees,
		NegativeEffectiveValuedInputs: r.NegativeEffectiveValuedInputs,
		InputsSpent:                   r.InputsSpent,
		ChangeOutputs:                 r.ChangeOutputs,
		ChangelessOutputs:             r.ChangelessOutputs,
		MinChange:                     r.MinChange,
		MaxChange:                     r.MaxChange,
		MeanChange:                    r.MeanChange,
		StdDevChange:                  r.StdDevChange,
		MinInputs:                     r.MinInputs,
		MaxInputs:                     r.MaxInputs,
		MeanInputs:                    r.MeanInputs,
		StdDevInputs:                  r.StdDevInputs,
		Balance:                       r.Balance,
		UtxoCount:                     r.UtxoCount,
		CostToEmpty:                   r.CostToEmpty,
		TotalCost:                     r.TotalCost,
		MeanFeePerWithdrawal:          r.MeanFeePerWithdrawal,
	}, nil
}
