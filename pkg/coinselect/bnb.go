package coinselect

import "errors"

// DefaultMaxRounds is the default round budget of a branch and bound search.
const DefaultMaxRounds = 100000

// BranchAndBound searches for the selection with the lowest waste and falls
// back to SelectSorted when the search does not find one.
type BranchAndBound struct {
	Policy    ChangePolicy
	MaxRounds int
}

// NewBranchAndBound returns a branch and bound strategy. A non-positive
// round budget is replaced by DefaultMaxRounds.
func NewBranchAndBound(policy ChangePolicy, maxRounds int) BranchAndBound {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return BranchAndBound{policy, maxRounds}
}

// Select implements Strategy.
func (b BranchAndBound) Select(
	candidates []Candidate, target Target,
) (*Selection, error) {
	selection, err := b.Search(candidates, target)
	if err == nil {
		return selection, nil
	}
	if !errors.Is(err, ErrNoBnbSolution) {
		return nil, err
	}
	return SelectSorted(candidates, target, b.Policy)
}

// Search runs the branch and bound search alone. It returns
// ErrNoBnbSolution if no feasible selection exists or if the round budget is
// exhausted before the search completes.
func (b BranchAndBound) Search(
	candidates []Candidate, target Target,
) (*Selection, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}

	s := newBnbSearch(candidates, target, b.Policy, b.MaxRounds)
	s.explore(0)
	if s.exhausted || s.best == nil {
		return nil, ErrNoBnbSolution
	}

	selected := make(Candidates, 0, len(s.bestIndexes))
	for _, i := range s.bestIndexes {
		selected = append(selected, s.candidates[i])
	}
	return &Selection{
		Algorithm:  AlgorithmBnb,
		Selected:   selected,
		Evaluation: *s.best,
	}, nil
}

type bnbSearch struct {
	candidates Candidates
	effValues  []float64
	// lookahead[i] is the sum of the positive effective values from i on.
	lookahead []float64

	target       Target
	policy       ChangePolicy
	required     float64
	wasteRate    float64
	pruneByWaste bool

	maxRounds int
	rounds    int
	exhausted bool

	included  []bool
	curValue  uint64
	curWeight uint64
	curEff    float64
	curCount  int

	best        *Evaluation
	bestIndexes []int
}

func newBnbSearch(
	candidates []Candidate, target Target, policy ChangePolicy, maxRounds int,
) *bnbSearch {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	rate := target.FeeRate
	sorted := Candidates(candidates).sortByEffectiveValue(rate)

	effValues := make([]float64, len(sorted))
	lookahead := make([]float64, len(sorted)+1)
	for i := len(sorted) - 1; i >= 0; i-- {
		effValues[i] = sorted[i].EffectiveValue(rate)
		lookahead[i] = lookahead[i+1]
		if effValues[i] > 0 {
			lookahead[i] += effValues[i]
		}
	}

	return &bnbSearch{
		candidates:   sorted,
		effValues:    effValues,
		lookahead:    lookahead,
		target:       target,
		policy:       policy,
		required:     float64(target.Value) + rate.Cost(target.BaseWeight()),
		wasteRate:    float64(rate - policy.LongTermFeeRate),
		pruneByWaste: rate >= policy.LongTermFeeRate,
		maxRounds:    maxRounds,
		included:     make([]bool, len(sorted)),
	}
}

func (s *bnbSearch) explore(i int) {
	if s.exhausted {
		return
	}
	if s.rounds >= s.maxRounds {
		s.exhausted = true
		return
	}
	s.rounds++

	// Once the target is covered, more inputs only add waste or change.
	if eval, ok := s.policy.Evaluate(s.curValue, s.curWeight, s.target); ok {
		s.consider(eval)
		return
	}
	// Candidates are sorted, so none of the remaining ones pays for itself.
	if i >= len(s.candidates) || s.effValues[i] <= 0 {
		return
	}
	if s.curEff+s.lookahead[i] < s.required {
		return
	}
	if s.pruneByWaste && s.best != nil &&
		float64(s.curWeight)*s.wasteRate > s.best.Waste {
		return
	}

	if !s.isOmittedDuplicate(i) {
		s.include(i)
		s.explore(i + 1)
		s.exclude(i)
	}
	s.explore(i + 1)
}

// isOmittedDuplicate returns whether the previous candidate is equivalent to
// the i-th one and was left out on the current branch.
func (s *bnbSearch) isOmittedDuplicate(i int) bool {
	if i == 0 || s.included[i-1] {
		return false
	}
	prev, cur := s.candidates[i-1], s.candidates[i]
	return s.effValues[i-1] == s.effValues[i] && prev.Weight == cur.Weight
}

func (s *bnbSearch) include(i int) {
	s.included[i] = true
	s.curValue += s.candidates[i].Value
	s.curWeight += uint64(s.candidates[i].Weight)
	s.curEff += s.effValues[i]
	s.curCount++
}

func (s *bnbSearch) exclude(i int) {
	s.included[i] = false
	s.curValue -= s.candidates[i].Value
	s.curWeight -= uint64(s.candidates[i].Weight)
	s.curEff -= s.effValues[i]
	s.curCount--
}

func (s *bnbSearch) consider(eval Evaluation) {
	if s.best != nil {
		if eval.Waste > s.best.Waste {
			return
		}
		if eval.Waste == s.best.Waste && s.curCount >= len(s.bestIndexes) {
			return
		}
	}
	best := eval
	s.best = &best
	s.bestIndexes = s.bestIndexes[:0]
	for i, ok := range s.included {
		if ok {
			s.bestIndexes = append(s.bestIndexes, i)
		}
	}
}
