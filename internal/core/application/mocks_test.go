package application_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/internal/core/ports"
)

// ports.RepoManager
type mockRepoManager struct {
	mock.Mock
}

func (m *mockRepoManager) OpenRun(
	ctx context.Context, runID string,
) (domain.ResultSink, error) {
	args := m.Called(ctx, runID)
	var sink domain.ResultSink
	if s := args.Get(0); s != nil {
		sink = s.(domain.ResultSink)
	}
	return sink, args.Error(1)
}

func (m *mockRepoManager) ResultRepository() domain.ResultRepository {
	args := m.Called()
	return args.Get(0).(domain.ResultRepository)
}

func (m *mockRepoManager) Close() {}

// domain.ResultSink
type mockResultSink struct {
	mock.Mock
	outcomes  []domain.OutcomeRecord
	summaries []domain.SummarySnapshot
}

func (m *mockResultSink) AddPoolSnapshot(
	ctx context.Context, attempt int, values []uint64,
) error {
	args := m.Called(ctx, attempt, values)
	return args.Error(0)
}

func (m *mockResultSink) AddInputs(
	ctx context.Context, attempt int, values []uint64,
) error {
	args := m.Called(ctx, attempt, values)
	return args.Error(0)
}

func (m *mockResultSink) AddOutcome(
	ctx context.Context, record domain.OutcomeRecord,
) error {
	args := m.Called(ctx, record)
	if args.Error(0) == nil {
		m.outcomes = append(m.outcomes, record)
	}
	return args.Error(0)
}

func (m *mockResultSink) AddSummary(
	ctx context.Context, attempt int, summary domain.SummarySnapshot,
) error {
	args := m.Called(ctx, attempt, summary)
	if args.Error(0) == nil {
		m.summaries = append(m.summaries, summary)
	}
	return args.Error(0)
}

func (m *mockResultSink) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ports.ScenarioReader
type mockScenarioReader struct {
	mock.Mock
}

func (m *mockScenarioReader) ReadScenario(
	ctx context.Context, path string,
) ([]domain.ScenarioEntry, error) {
	args := m.Called(ctx, path)
	var entries []domain.ScenarioEntry
	if e := args.Get(0); e != nil {
		entries = e.([]domain.ScenarioEntry)
	}
	return entries, args.Error(1)
}

var _ ports.RepoManager = (*mockRepoManager)(nil)

func newMockedResultSink() *mockResultSink {
	sink := &mockResultSink{}
	sink.On("AddPoolSnapshot", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sink.On("AddInputs", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sink.On("AddOutcome", mock.Anything, mock.Anything).Return(nil)
	sink.On("AddSummary", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sink.On("Close").Return(nil)
	return sink
}

func newMockedRepoManager(sink domain.ResultSink) *mockRepoManager {
	repoManager := &mockRepoManager{}
	repoManager.On("OpenRun", mock.Anything, mock.Anything).Return(sink, nil)
	return repoManager
}
