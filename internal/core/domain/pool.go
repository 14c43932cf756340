package domain

import (
	"fmt"

	"github.com/vulpemventures/coinsim/pkg/coinselect"
)

var (
	ErrCandidateNotFound = fmt.Errorf("candidate not found in pool")
)

// CandidateID identifies a candidate within its pool. It is the creation
// sequence of the candidate.
type CandidateID uint64

// Pool holds the spendable candidates of a simulated wallet in creation
// order. It is not safe for concurrent use.
type Pool struct {
	candidates   []coinselect.Candidate
	nextSequence uint64
}

func NewPool() *Pool {
	return &Pool{}
}

// Deposit adds a new single-input segwit candidate to the pool.
func (p *Pool) Deposit(value uint64, weight uint32) CandidateID {
	id := p.nextSequence
	p.nextSequence++
	p.candidates = append(p.candidates, coinselect.Candidate{
		Value:            value,
		Weight:           weight,
		InputCount:       1,
		IsSegwit:         true,
		CreationSequence: id,
	})
	return CandidateID(id)
}

// All returns a copy of the candidates in creation order.
func (p *Pool) All() []coinselect.Candidate {
	candidates := make([]coinselect.Candidate, len(p.candidates))
	copy(candidates, p.candidates)
	return candidates
}

// Remove deletes the candidates with the given ids. If any of them is not in
// the pool nothing is removed.
func (p *Pool) Remove(ids ...CandidateID) error {
	toRemove := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		toRemove[uint64(id)] = struct{}{}
	}

	found := 0
	for _, c := range p.candidates {
		if _, ok := toRemove[c.CreationSequence]; ok {
			found++
		}
	}
	if found != len(toRemove) {
		return fmt.Errorf("%w: %d of %d ids unknown", ErrCandidateNotFound, len(toRemove)-found, len(toRemove))
	}

	kept := p.candidates[:0]
	for _, c := range p.candidates {
		if _, ok := toRemove[c.CreationSequence]; !ok {
			kept = append(kept, c)
		}
	}
	p.candidates = kept
	return nil
}

func (p *Pool) Balance() uint64 {
	return coinselect.Candidates(p.candidates).Value()
}

func (p *Pool) Values() []uint64 {
	return coinselect.Candidates(p.candidates).Values()
}

func (p *Pool) Len() int {
	return len(p.candidates)
}
