package coinselect

// Fifo spends the oldest candidates first.
type Fifo struct {
	Policy ChangePolicy
}

// NewFifo returns a first-in-first-out strategy.
func NewFifo(policy ChangePolicy) Fifo {
	return Fifo{policy}
}

// Select picks candidates in creation order until the target is met. The
// selection is always a prefix of the candidates in creation order.
func (f Fifo) Select(candidates []Candidate, target Target) (*Selection, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}
	sorted := Candidates(candidates).sortByCreation()
	return accumulate(sorted, target, f.Policy, AlgorithmFifo)
}
