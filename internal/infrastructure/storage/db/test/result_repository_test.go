package db_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/internal/core/ports"
	dbbadger "github.com/vulpemventures/coinsim/internal/infrastructure/storage/db/badger"
	dbcsv "github.com/vulpemventures/coinsim/internal/infrastructure/storage/db/csv"
	"github.com/vulpemventures/coinsim/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/vulpemventures/coinsim/internal/infrastructure/storage/db/postgres"
	"github.com/vulpemventures/coinsim/pkg/coinselect"
)

var ctx = context.Background()

func TestResultRepository(t *testing.T) {
	repoManagers, err := newRepoManagers(t)
	require.NoError(t, err)

	for name, repoManager := range repoManagers {
		repoManager := repoManager
		t.Run(name, func(t *testing.T) {
			suite.Run(t, &resultRepositoryTestSuite{repoManager: repoManager})
		})
	}
}

type resultRepositoryTestSuite struct {
	suite.Suite

	repoManager ports.RepoManager
	runID       string
	records     []domain.OutcomeRecord
	summary     domain.SummarySnapshot
}

func (s *resultRepositoryTestSuite) SetupSuite() {
	s.runID = fmt.Sprintf("scenario-%d.csv", time.Now().UnixNano())
	s.records = []domain.OutcomeRecord{
		successRecord(1),
		failedRecord(2),
		successRecord(3),
	}

	summary := domain.NewSummary(s.runID)
	summary.RecordDeposit()
	for _, r := range s.records {
		summary.Update(r)
	}
	s.summary = summary.Snapshot()

	sink, err := s.repoManager.OpenRun(ctx, s.runID)
	s.Require().NoError(err)
	s.Require().NotNil(sink)

	for _, r := range s.records {
		err := sink.AddPoolSnapshot(ctx, r.ID, []uint64{100000000, 25000})
		s.Require().NoError(err)
		err = sink.AddInputs(ctx, r.ID, r.Inputs)
		s.Require().NoError(err)
		err = sink.AddOutcome(ctx, r)
		s.Require().NoError(err)
	}
	err = sink.AddSummary(ctx, 3, s.summary)
	s.Require().NoError(err)

	s.Require().NoError(sink.Close())
}

func (s *resultRepositoryTestSuite) TearDownSuite() {
	s.repoManager.Close()
}

func (s *resultRepositoryTestSuite) TestOpenExistingRun() {
	sink, err := s.repoManager.OpenRun(ctx, s.runID)
	s.Require().ErrorIs(err, domain.ErrRunAlreadyExists)
	s.Require().Nil(sink)
}

func (s *resultRepositoryTestSuite) TestGetOutcomes() {
	outcomes, err := s.repoManager.ResultRepository().GetOutcomes(ctx, s.runID)
	s.Require().NoError(err)
	s.Require().Len(outcomes, len(s.records))

	for i, outcome := range outcomes {
		s.Require().Exactly(s.records[i], outcome)
	}
	s.Require().True(outcomes[1].IsFailed())
	s.Require().Empty(outcomes[1].Inputs)
}

func (s *resultRepositoryTestSuite) TestGetSummaries() {
	summaries, err := s.repoManager.ResultRepository().GetSummaries(ctx, s.runID)
	s.Require().NoError(err)
	s.Require().Len(summaries, 1)

	expected := s.summary
	got := summaries[0]
	s.Require().Equal(expected.ScenarioName, got.ScenarioName)
	s.Require().Equal(expected.WithdrawAttempts, got.WithdrawAttempts)
	s.Require().Equal(expected.Failures, got.Failures)
	s.Require().Equal(expected.AlgorithmFrequency, got.AlgorithmFrequency)
	s.Require().Equal(expected.TotalFees, got.TotalFees)
	s.Require().Equal(expected.ChangeOutputs, got.ChangeOutputs)
	s.Require().Equal(expected.MinChange, got.MinChange)
	s.Require().Equal(expected.MaxChange, got.MaxChange)
	s.Require().Equal(expected.Balance, got.Balance)
	s.Require().Equal(expected.UtxoCount, got.UtxoCount)
	s.Require().NotNil(got.MeanChange)
	s.Require().InDelta(*expected.MeanChange, *got.MeanChange, 1e-9)
	s.Require().InDelta(expected.TotalCost, got.TotalCost, 1e-9)
}

func (s *resultRepositoryTestSuite) TestUnknownRun() {
	repo := s.repoManager.ResultRepository()

	outcomes, err := repo.GetOutcomes(ctx, "unknown.csv")
	s.Require().ErrorIs(err, domain.ErrRunNotFound)
	s.Require().Nil(outcomes)

	summaries, err := repo.GetSummaries(ctx, "unknown.csv")
	s.Require().ErrorIs(err, domain.ErrRunNotFound)
	s.Require().Nil(summaries)
}

func newRepoManagers(t *testing.T) (map[string]ports.RepoManager, error) {
	badgerRepoManager, err := dbbadger.NewRepoManager("", nil)
	if err != nil {
		return nil, err
	}
	csvRepoManager, err := dbcsv.NewRepoManager(t.TempDir())
	if err != nil {
		return nil, err
	}

	repoManagers := map[string]ports.RepoManager{
		"inmemory": inmemory.NewRepoManager(),
		"badger":   badgerRepoManager,
		"csv":      csvRepoManager,
	}

	if dataSource := os.Getenv("COINSIM_TEST_PG_URL"); dataSource != "" {
		pgRepoManager, err := postgresdb.NewRepoManager(postgresdb.DbConfig{
			DataSource: dataSource,
		})
		if err != nil {
			return nil, err
		}
		repoManagers["postgres"] = pgRepoManager
	}

	return repoManagers, nil
}

func successRecord(id int) domain.OutcomeRecord {
	fee := uint64(1400)
	realFeeRate := coinselect.FeeRate(10)
	negInputs := 0
	outputCount := 2
	change := uint64(49998600)
	waste := float64(990)
	return domain.OutcomeRecord{
		ID:                            id,
		Amount:                        50000000,
		Fee:                           &fee,
		TargetFeeRate:                 10,
		RealFeeRate:                   &realFeeRate,
		Algorithm:                     coinselect.AlgorithmBnb,
		Inputs:                        []uint64{100000000},
		NegativeEffectiveValuedInputs: &negInputs,
		OutputCount:                   &outputCount,
		ChangeAmount:                  &change,
		UtxoCountBefore:               1,
		UtxoCountAfter:                1,
		Balance:                       49998600,
		CostToEmpty:                   680,
		WasteScore:                    &waste,
	}
}

func failedRecord(id int) domain.OutcomeRecord {
	return domain.OutcomeRecord{
		ID:              id,
		Amount:          500000000,
		TargetFeeRate:   2.5,
		Algorithm:       coinselect.AlgorithmFailed,
		Inputs:          []uint64{},
		UtxoCountBefore: 1,
		UtxoCountAfter:  1,
		Balance:         49998600,
		CostToEmpty:     680,
	}
}
