package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/vulpemventures/coinsim/pkg/coinselect"
)

// SummarySnapshot is a point-in-time view of the statistics of a run.
// Optional fields are nil when there are not enough samples to compute them.
type SummarySnapshot struct {
	ScenarioName                  string                          `json:"scenario_name"`
	WithdrawAttempts              uint64                          `json:"withdraw_attempts"`
	Withdrawals                   uint64                          `json:"withdrawals"`
	Deposits                      uint64                          `json:"deposits"`
	Failures                      uint64                          `json:"failures"`
	AlgorithmFrequency            map[coinselect.Algorithm]uint64 `json:"algorithm_frequency"`
	TotalFees                     uint64                          `json:"total_fees"`
	NegativeEffectiveValuedInputs uint64                          `json:"negative_effective_valued_inputs"`
	InputsSpent                   uint64                          `json:"inputs_spent"`
	ChangeOutputs                 uint64                          `json:"change_outputs"`
	ChangelessOutputs             uint64                          `json:"changeless_outputs"`
	MinChange                     *uint64                         `json:"min_change,omitempty"`
	MaxChange                     *uint64                         `json:"max_change,omitempty"`
	MeanChange                    *float64                        `json:"mean_change,omitempty"`
	StdDevChange                  *float64                        `json:"std_dev_change,omitempty"`
	MinInputs                     *uint64                         `json:"min_inputs,omitempty"`
	MaxInputs                     *uint64                         `json:"max_inputs,omitempty"`
	MeanInputs                    *float64                        `json:"mean_inputs,omitempty"`
	StdDevInputs                  *float64                        `json:"std_dev_inputs,omitempty"`
	Balance                       uint64                          `json:"balance"`
	UtxoCount                     int                             `json:"utxo_count"`
	CostToEmpty                   float64                         `json:"cost_to_empty"`
	TotalCost                     float64                         `json:"total_cost"`
	MeanFeePerWithdrawal          *float64                        `json:"mean_fee_per_withdrawal,omitempty"`
}

// Usage returns the algorithm frequency table as "alg: n" pairs sorted by
// algorithm name.
func (s SummarySnapshot) Usage() string {
	algs := make([]string, 0, len(s.AlgorithmFrequency))
	for alg := range s.AlgorithmFrequency {
		algs = append(algs, string(alg))
	}
	sort.Strings(algs)

	pairs := make([]string, 0, len(algs))
	for _, alg := range algs {
		pairs = append(pairs, fmt.Sprintf(
			"%s: %d", alg, s.AlgorithmFrequency[coinselect.Algorithm(alg)],
		))
	}
	return strings.Join(pairs, ",")
}

// ParseUsage is the inverse of SummarySnapshot.Usage.
func ParseUsage(usage string) (map[coinselect.Algorithm]uint64, error) {
	freq := make(map[coinselect.Algorithm]uint64)
	if strings.TrimSpace(usage) == "" {
		return freq, nil
	}
	for _, pair := range strings.Split(usage, ",") {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid usage entry %q", pair)
		}
		n, err := strconv.ParseUint(strings.TrimSpace(kv[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid usage entry %q: %w", pair, err)
		}
		freq[coinselect.Algorithm(strings.TrimSpace(kv[0]))] = n
	}
	return freq, nil
}

// Summary aggregates the outcome records of a run.
type Summary struct {
	scenarioName     string
	withdrawAttempts uint64
	withdrawals      uint64
	deposits         uint64
	failures         uint64
	algorithms       map[coinselect.Algorithm]uint64
	totalFees        uint64
	negEffInputs     uint64
	inputsSpent      uint64
	changeOutputs    uint64
	changeless       uint64
	changes          welford
	inputs           welford
	balance          uint64
	utxoCount        int
	costToEmpty      float64
}

func NewSummary(scenarioName string) *Summary {
	return &Summary{
		scenarioName: scenarioName,
		algorithms:   make(map[coinselect.Algorithm]uint64),
	}
}

func (s *Summary) RecordDeposit() {
	s.deposits++
}

// Update accounts for a withdrawal attempt. Pool related fields take the
// values of the given record.
func (s *Summary) Update(record OutcomeRecord) {
	s.withdrawAttempts++
	s.algorithms[record.Algorithm]++
	s.balance = record.Balance
	s.utxoCount = record.UtxoCountAfter
	s.costToEmpty = record.CostToEmpty

	if record.IsFailed() {
		s.failures++
		return
	}

	s.withdrawals++
	if record.Fee != nil {
		s.totalFees += *record.Fee
	}
	if record.NegativeEffectiveValuedInputs != nil {
		s.negEffInputs += uint64(*record.NegativeEffectiveValuedInputs)
	}
	s.inputsSpent += uint64(len(record.Inputs))
	s.inputs.add(uint64(len(record.Inputs)))

	if record.ChangeAmount != nil {
		s.changeOutputs++
		s.changes.add(*record.ChangeAmount)
		return
	}
	s.changeless++
}

// Merge folds the statistics of other into s as if the records of both had
// been fed to a single summary. Pool related fields take other's values.
func (s *Summary) Merge(other *Summary) {
	s.withdrawAttempts += other.withdrawAttempts
	s.withdrawals += other.withdrawals
	s.deposits += other.deposits
	s.failures += other.failures
	for alg, n := range other.algorithms {
		s.algorithms[alg] += n
	}
	s.totalFees += other.totalFees
	s.negEffInputs += other.negEffInputs
	s.inputsSpent += other.inputsSpent
	s.changeOutputs += other.changeOutputs
	s.changeless += other.changeless
	s.changes = s.changes.merge(other.changes)
	s.inputs = s.inputs.merge(other.inputs)

	s.scenarioName = other.scenarioName
	s.balance = other.balance
	s.utxoCount = other.utxoCount
	s.costToEmpty = other.costToEmpty
}

func (s *Summary) Snapshot() SummarySnapshot {
	algorithms := make(map[coinselect.Algorithm]uint64, len(s.algorithms))
	for alg, n := range s.algorithms {
		algorithms[alg] = n
	}

	snapshot := SummarySnapshot{
		ScenarioName:                  s.scenarioName,
		WithdrawAttempts:              s.withdrawAttempts,
		Withdrawals:                   s.withdrawals,
		Deposits:                      s.deposits,
		Failures:                      s.failures,
		AlgorithmFrequency:            algorithms,
		TotalFees:                     s.totalFees,
		NegativeEffectiveValuedInputs: s.negEffInputs,
		InputsSpent:                   s.inputsSpent,
		ChangeOutputs:                 s.changeOutputs,
		ChangelessOutputs:             s.changeless,
		Balance:                       s.balance,
		UtxoCount:                     s.utxoCount,
		CostToEmpty:                   s.costToEmpty,
		TotalCost:                     float64(s.totalFees) + s.costToEmpty,
	}
	snapshot.MinChange, snapshot.MaxChange = s.changes.bounds()
	snapshot.MeanChange, snapshot.StdDevChange = s.changes.moments()
	snapshot.MinInputs, snapshot.MaxInputs = s.inputs.bounds()
	snapshot.MeanInputs, snapshot.StdDevInputs = s.inputs.moments()
	if s.withdrawals > 0 {
		mean := float64(s.totalFees) / float64(s.withdrawals)
		snapshot.MeanFeePerWithdrawal = &mean
	}
	return snapshot
}

// welford is an online accumulator of min, max, mean and variance.
type welford struct {
	count uint64
	mean  float64
	m2    float64
	min   uint64
	max   uint64
}

func (w *welford) add(v uint64) {
	if w.count == 0 || v < w.min {
		w.min = v
	}
	if w.count == 0 || v > w.max {
		w.max = v
	}
	w.count++
	x := float64(v)
	delta := x - w.mean
	w.mean += delta / float64(w.count)
	w.m2 += delta * (x - w.mean)
}

func (w welford) merge(o welford) welford {
	if o.count == 0 {
		return w
	}
	if w.count == 0 {
		return o
	}
	n := w.count + o.count
	na, nb := float64(w.count), float64(o.count)
	delta := o.mean - w.mean
	return welford{
		count: n,
		mean:  w.mean + delta*nb/float64(n),
		m2:    w.m2 + o.m2 + delta*delta*na*nb/float64(n),
		min:   minUint64(w.min, o.min),
		max:   maxUint64(w.max, o.max),
	}
}

func (w welford) bounds() (*uint64, *uint64) {
	if w.count == 0 {
		return nil, nil
	}
	min, max := w.min, w.max
	return &min, &max
}

// moments returns the mean and the sample standard deviation.
func (w welford) moments() (*float64, *float64) {
	if w.count == 0 {
		return nil, nil
	}
	mean := w.mean
	if w.count < 2 {
		return &mean, nil
	}
	stdDev := math.Sqrt(w.m2 / float64(w.count-1))
	return &mean, &stdDev
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxUint64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
