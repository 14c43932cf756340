package coinselect

import "sort"

// Candidate is a spendable output that may be picked as an input of a
// withdrawal.
type Candidate struct {
	Value            uint64
	Weight           uint32
	InputCount       uint32
	IsSegwit         bool
	CreationSequence uint64
}

// EffectiveValue returns the value of the candidate minus the cost of
// spending it at the given fee rate. It can be negative.
func (c Candidate) EffectiveValue(rate FeeRate) float64 {
	return float64(c.Value) - rate.Cost(uint64(c.Weight))
}

// Candidates is a list of Candidate.
type Candidates []Candidate

// Value returns the sum of the values of the candidates.
func (c Candidates) Value() uint64 {
	var total uint64
	for _, cand := range c {
		total += cand.Value
	}
	return total
}

// Weight returns the sum of the weights of the candidates.
func (c Candidates) Weight() uint64 {
	var total uint64
	for _, cand := range c {
		total += uint64(cand.Weight)
	}
	return total
}

// CountNegativeEffectiveValue returns how many candidates cost more to spend
// than they are worth at the given fee rate.
func (c Candidates) CountNegativeEffectiveValue(rate FeeRate) int {
	count := 0
	for _, cand := range c {
		if cand.EffectiveValue(rate) < 0 {
			count++
		}
	}
	return count
}

// Values returns the values of the candidates in order.
func (c Candidates) Values() []uint64 {
	values := make([]uint64, 0, len(c))
	for _, cand := range c {
		values = append(values, cand.Value)
	}
	return values
}

// sortByEffectiveValue returns a copy of the list sorted by descending
// effective value. Ties are broken by creation sequence so that the order
// does not depend on the order of the given list.
func (c Candidates) sortByEffectiveValue(rate FeeRate) Candidates {
	sorted := make(Candidates, len(c))
	copy(sorted, c)
	sort.SliceStable(sorted, func(i, j int) bool {
		evi, evj := sorted[i].EffectiveValue(rate), sorted[j].EffectiveValue(rate)
		if evi != evj {
			return evi > evj
		}
		return sorted[i].CreationSequence < sorted[j].CreationSequence
	})
	return sorted
}

// sortByCreation returns a copy of the list sorted from the oldest to the
// newest candidate.
func (c Candidates) sortByCreation() Candidates {
	sorted := make(Candidates, len(c))
	copy(sorted, c)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreationSequence < sorted[j].CreationSequence
	})
	return sorted
}
