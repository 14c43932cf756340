package poolselector

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/internal/core/ports"
	"github.com/vulpemventures/coinsim/pkg/coinselect"
)

const (
	DefaultLongTermFeeRate = coinselect.FeeRate(10)
	DefaultDustLimit       = uint64(526)
	DefaultInputWeight     = uint32(68)
	DefaultOutputWeight    = uint32(31)
)

var (
	ErrInvalidInputWeight  = fmt.Errorf("input weight must be greater than zero")
	ErrInvalidOutputWeight = fmt.Errorf("output weight must be greater than zero")
	ErrInvalidFeeRate      = fmt.Errorf("long-term fee rate must not be negative")
)

// SelectorOpts are the parameters shared by all pool selectors. Change
// outputs are created with the output weight and spent with the input
// weight, like any other candidate.
type SelectorOpts struct {
	LongTermFeeRate coinselect.FeeRate
	DustLimit       uint64
	InputWeight     uint32
	OutputWeight    uint32
	MaxRounds       int
}

func (o SelectorOpts) validate() error {
	if o.InputWeight == 0 {
		return ErrInvalidInputWeight
	}
	if o.OutputWeight == 0 {
		return ErrInvalidOutputWeight
	}
	if o.LongTermFeeRate < 0 {
		return ErrInvalidFeeRate
	}
	return nil
}

func (o SelectorOpts) changePolicy() coinselect.ChangePolicy {
	return coinselect.ChangePolicy{
		DustLimit:       o.DustLimit,
		LongTermFeeRate: o.LongTermFeeRate,
		DrainWeights: coinselect.DrainWeights{
			OutputWeight: o.OutputWeight,
			SpendWeight:  o.InputWeight,
		},
	}
}

type selector struct {
	pool     *domain.Pool
	strategy coinselect.Strategy
	opts     SelectorOpts

	log func(format string, a ...interface{})
}

// NewBranchAndBoundCoinSelector returns a selector looking for the selection
// with the lowest waste, falling back to the highest effective values first.
func NewBranchAndBoundCoinSelector(opts SelectorOpts) (ports.CoinSelector, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	strategy := coinselect.NewBranchAndBound(opts.changePolicy(), opts.MaxRounds)
	return newSelector("bnb", strategy, opts), nil
}

// NewFifoCoinSelector returns a selector spending the oldest candidates
// first.
func NewFifoCoinSelector(opts SelectorOpts) (ports.CoinSelector, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	strategy := coinselect.NewFifo(opts.changePolicy())
	return newSelector("fifo", strategy, opts), nil
}

func newSelector(
	name string, strategy coinselect.Strategy, opts SelectorOpts,
) *selector {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("%s selector: %s", name, format)
		log.Debugf(format, a...)
	}
	return &selector{domain.NewPool(), strategy, opts, logFn}
}

func (s *selector) Deposit(value uint64) {
	id := s.pool.Deposit(value, s.opts.InputWeight)
	s.log("deposited candidate %d of value %d", id, value)
}

func (s *selector) Values() []uint64 {
	return s.pool.Values()
}

func (s *selector) Withdraw(
	payments domain.Payments, feeRate coinselect.FeeRate,
) domain.OutcomeRecord {
	target := coinselect.Target{
		Value:         payments.TotalAmount(),
		FeeRate:       feeRate,
		OutputWeights: payments.OutputWeights(),
	}
	record := domain.OutcomeRecord{
		Amount:          target.Value,
		TargetFeeRate:   feeRate,
		Algorithm:       coinselect.AlgorithmFailed,
		Inputs:          []uint64{},
		UtxoCountBefore: s.pool.Len(),
	}

	selection, err := s.strategy.Select(s.pool.All(), target)
	if err != nil {
		s.log("failed to fund %d at rate %v: %s", target.Value, feeRate, err)
		return s.withPoolState(record)
	}

	ids := make([]domain.CandidateID, 0, len(selection.Selected))
	for _, c := range selection.Selected {
		ids = append(ids, domain.CandidateID(c.CreationSequence))
	}
	if err := s.pool.Remove(ids...); err != nil {
		log.WithError(err).Warn("selected candidates could not be spent")
		return s.withPoolState(record)
	}

	eval := selection.Evaluation
	outputCount := len(payments)
	if eval.HasChange() {
		s.pool.Deposit(eval.Change, s.opts.InputWeight)
		change := eval.Change
		record.ChangeAmount = &change
		outputCount++
	}

	fee := eval.Fee
	negInputs := selection.Selected.CountNegativeEffectiveValue(feeRate)
	waste := eval.Waste
	record.Algorithm = selection.Algorithm
	record.Inputs = selection.Selected.Values()
	record.Fee = &fee
	record.NegativeEffectiveValuedInputs = &negInputs
	record.OutputCount = &outputCount
	record.WasteScore = &waste
	if realRate, ok := coinselect.Implied(fee, eval.TotalWeight); ok {
		record.RealFeeRate = &realRate
	}

	s.log(
		"funded %d with %d inputs via %s, fee %d, change %d",
		target.Value, len(record.Inputs), selection.Algorithm, fee, eval.Change,
	)
	return s.withPoolState(record)
}

// withPoolState fills the record with the state of the pool after the
// withdrawal.
func (s *selector) withPoolState(record domain.OutcomeRecord) domain.OutcomeRecord {
	record.UtxoCountAfter = s.pool.Len()
	record.Balance = s.pool.Balance()
	record.CostToEmpty = s.opts.LongTermFeeRate.Cost(
		uint64(s.pool.Len()) * uint64(s.opts.InputWeight),
	)
	return record
}
