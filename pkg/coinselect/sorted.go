package coinselect

// SelectSorted picks candidates by descending effective value until the
// target is met.
func SelectSorted(
	candidates []Candidate, target Target, policy ChangePolicy,
) (*Selection, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}
	sorted := Candidates(candidates).sortByEffectiveValue(target.FeeRate)
	return accumulate(sorted, target, policy, AlgorithmSelectSorted)
}
