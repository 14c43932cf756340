package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/internal/core/ports"
)

type run struct {
	poolSnapshots map[int][]uint64
	inputs        map[int][]uint64
	outcomes      []domain.OutcomeRecord
	summaries     []domain.SummarySnapshot
}

type repoManager struct {
	runs map[string]*run
	lock *sync.RWMutex
}

func NewRepoManager() ports.RepoManager {
	return &repoManager{
		runs: make(map[string]*run),
		lock: &sync.RWMutex{},
	}
}

func (rm *repoManager) OpenRun(
	_ context.Context, runID string,
) (domain.ResultSink, error) {
	rm.lock.Lock()
	defer rm.lock.Unlock()

	if _, ok := rm.runs[runID]; ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunAlreadyExists, runID)
	}
	rm.runs[runID] = &run{
		poolSnapshots: make(map[int][]uint64),
		inputs:        make(map[int][]uint64),
	}
	return &resultSink{runID, rm}, nil
}

func (rm *repoManager) ResultRepository() domain.ResultRepository {
	return rm
}

func (rm *repoManager) Close() {}

func (rm *repoManager) GetOutcomes(
	_ context.Context, runID string,
) ([]domain.OutcomeRecord, error) {
	rm.lock.RLock()
	defer rm.lock.RUnlock()

	r, ok := rm.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	outcomes := make([]domain.OutcomeRecord, len(r.outcomes))
	copy(outcomes, r.outcomes)
	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].ID < outcomes[j].ID
	})
	return outcomes, nil
}

func (rm *repoManager) GetSummaries(
	_ context.Context, runID string,
) ([]domain.SummarySnapshot, error) {
	rm.lock.RLock()
	defer rm.lock.RUnlock()

	r, ok := rm.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	summaries := make([]domain.SummarySnapshot, len(r.summaries))
	copy(summaries, r.summaries)
	return summaries, nil
}

type resultSink struct {
	runID string
	rm    *repoManager
}

func (s *resultSink) AddPoolSnapshot(
	_ context.Context, attempt int, values []uint64,
) error {
	return s.withRun(func(r *run) {
		r.poolSnapshots[attempt] = copyValues(values)
	})
}

func (s *resultSink) AddInputs(
	_ context.Context, attempt int, values []uint64,
) error {
	return s.withRun(func(r *run) {
		r.inputs[attempt] = copyValues(values)
	})
}

func (s *resultSink) AddOutcome(
	_ context.Context, record domain.OutcomeRecord,
) error {
	return s.withRun(func(r *run) {
		record.Inputs = copyValues(record.Inputs)
		r.outcomes = append(r.outcomes, record)
	})
}

func (s *resultSink) AddSummary(
	_ context.Context, _ int, summary domain.SummarySnapshot,
) error {
	return s.withRun(func(r *run) {
		r.summaries = append(r.summaries, summary)
	})
}

func (s *resultSink) Close() error {
	return nil
}

func (s *resultSink) withRun(fn func(r *run)) error {
	s.rm.lock.Lock()
	defer s.rm.lock.Unlock()

	r, ok := s.rm.runs[s.runID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRunNotFound, s.runID)
	}
	fn(r)
	return nil
}

func copyValues(values []uint64) []uint64 {
	cp := make([]uint64, len(values))
	copy(cp, values)
	return cp
}
