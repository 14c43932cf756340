package coinselect

import "fmt"

var (
	// ErrInfeasibleTarget is returned when the candidates cannot cover the
	// target plus fees.
	ErrInfeasibleTarget = fmt.Errorf("candidates cannot cover target amount and fees")
	// ErrNoBnbSolution is returned when branch and bound finds no solution
	// within its round budget.
	ErrNoBnbSolution = fmt.Errorf("branch and bound found no solution")
	// ErrInvalidTarget is returned for a target of zero value.
	ErrInvalidTarget = fmt.Errorf("target value must be greater than zero")
)

// Algorithm tags the way a selection was found.
type Algorithm string

const (
	AlgorithmBnb          Algorithm = "bnb"
	AlgorithmSelectSorted Algorithm = "select_sorted"
	AlgorithmFifo         Algorithm = "fifo"
	AlgorithmFailed       Algorithm = "failed"
)

func (a Algorithm) String() string {
	return string(a)
}

// Selection is the set of candidates picked to fund a target, together with
// the change decision made for them.
type Selection struct {
	Algorithm  Algorithm
	Selected   Candidates
	Evaluation Evaluation
}

// Strategy selects candidates to fund a target.
type Strategy interface {
	Select(candidates []Candidate, target Target) (*Selection, error)
}

func validateTarget(target Target) error {
	if target.Value == 0 {
		return ErrInvalidTarget
	}
	return nil
}

// accumulate adds candidates in the given order until the target is met and
// returns the resulting selection.
func accumulate(
	candidates Candidates, target Target, policy ChangePolicy, alg Algorithm,
) (*Selection, error) {
	var value, weight uint64
	for i, c := range candidates {
		value += c.Value
		weight += uint64(c.Weight)
		if eval, ok := policy.Evaluate(value, weight, target); ok {
			selected := make(Candidates, i+1)
			copy(selected, candidates[:i+1])
			return &Selection{
				Algorithm:  alg,
				Selected:   selected,
				Evaluation: eval,
			}, nil
		}
	}
	return nil, ErrInfeasibleTarget
}
