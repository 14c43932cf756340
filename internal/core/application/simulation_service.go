package application

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/internal/core/ports"
)

const (
	DefaultSampleInterval = 500
)

var (
	ErrSinkWrite = fmt.Errorf("failed to write simulation results")
)

// SimulationOpts are the parameters of every run of a SimulationService.
type SimulationOpts struct {
	PaymentPolicy domain.PaymentPolicy
	// PaymentWeight is the weight of the output of every payment.
	PaymentWeight uint32
	// SampleInterval is the number of withdrawal attempts between two
	// summary snapshots written to the result sink.
	SampleInterval int
}

// SimulationService replays scenarios of deposits and withdrawals against a
// simulated wallet:
//   - every deposit adds a candidate to the wallet's pool.
//   - every withdrawal adds a payment to the pending ones and tries to fund
//     all of them with the coin selector. Pending payments are cleared
//     according to the payment policy.
//
// Every run gets a brand new coin selector and summary, and writes its
// results to a dedicated sink named after the scenario.
type SimulationService struct {
	repoManager     ports.RepoManager
	scenarioReader  ports.ScenarioReader
	newCoinSelector ports.CoinSelectorFactory
	opts            SimulationOpts
	metrics         *simulationMetrics

	log func(format string, a ...interface{})
}

// NewSimulationService returns a new service. Metrics are registered with
// the given registerer, if any.
func NewSimulationService(
	repoManager ports.RepoManager, scenarioReader ports.ScenarioReader,
	newCoinSelector ports.CoinSelectorFactory, opts SimulationOpts,
	registerer prometheus.Registerer,
) *SimulationService {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("simulation service: %s", format)
		log.Debugf(format, a...)
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = DefaultSampleInterval
	}
	var metrics *simulationMetrics
	if registerer != nil {
		metrics = newSimulationMetrics(registerer)
	}
	return &SimulationService{
		repoManager, scenarioReader, newCoinSelector, opts, metrics, logFn,
	}
}

// Run replays the scenario at the given path. The name of the file is used
// as run id.
func (s *SimulationService) Run(
	ctx context.Context, scenarioPath string,
) (*RunInfo, error) {
	entries, err := s.scenarioReader.ReadScenario(ctx, scenarioPath)
	if err != nil {
		return nil, err
	}
	return s.Replay(ctx, filepath.Base(scenarioPath), entries)
}

// Replay replays the given entries as the run with the given id.
func (s *SimulationService) Replay(
	ctx context.Context, runID string, entries []domain.ScenarioEntry,
) (info *RunInfo, err error) {
	selector, err := s.newCoinSelector()
	if err != nil {
		return nil, err
	}

	sink, err := s.repoManager.OpenRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSinkWrite, err)
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil && err == nil {
			info, err = nil, fmt.Errorf("%w: %w", ErrSinkWrite, closeErr)
		}
	}()

	s.log("starting run %s with %d entries", runID, len(entries))

	summary := domain.NewSummary(runID)
	var (
		pending  domain.Payments
		deposits int
		attempt  int
	)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if entry.Amount == 0 {
			return nil, fmt.Errorf(
				"%w: line %d: amount must not be zero",
				domain.ErrMalformedScenarioRecord, entry.Line,
			)
		}

		if entry.IsDeposit() {
			selector.Deposit(entry.Value())
			summary.RecordDeposit()
			s.metrics.observeDeposit()
			deposits++
			continue
		}

		attempt++
		pending = append(pending, domain.Payment{
			Amount: entry.Value(),
			Weight: s.opts.PaymentWeight,
		})

		if err := sink.AddPoolSnapshot(ctx, attempt, selector.Values()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSinkWrite, err)
		}

		record := selector.Withdraw(pending, entry.FeeRate)
		record.ID = attempt
		if s.opts.PaymentPolicy.ClearsPayments(record.IsFailed()) {
			pending = nil
		}

		summary.Update(record)
		s.metrics.observeOutcome(record)

		if err := sink.AddInputs(ctx, attempt, record.Inputs); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSinkWrite, err)
		}
		if attempt%s.opts.SampleInterval == 0 {
			if err := sink.AddSummary(ctx, attempt, summary.Snapshot()); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrSinkWrite, err)
			}
		}
		if err := sink.AddOutcome(ctx, record); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSinkWrite, err)
		}
	}

	snapshot := summary.Snapshot()
	if attempt%s.opts.SampleInterval != 0 {
		if err := sink.AddSummary(ctx, attempt, snapshot); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSinkWrite, err)
		}
	}

	s.log(
		"run %s completed: %d deposits, %d withdrawal attempts, %d failures",
		runID, deposits, attempt, snapshot.Failures,
	)

	return &RunInfo{
		RunID:            runID,
		Deposits:         deposits,
		WithdrawAttempts: attempt,
		Summary:          snapshot,
	}, nil
}

// GetOutcomes returns the outcome records of a past run.
func (s *SimulationService) GetOutcomes(
	ctx context.Context, runID string,
) ([]domain.OutcomeRecord, error) {
	return s.repoManager.ResultRepository().GetOutcomes(ctx, runID)
}

// GetSummaries returns the summary snapshots of a past run.
func (s *SimulationService) GetSummaries(
	ctx context.Context, runID string,
) ([]domain.SummarySnapshot, error) {
	return s.repoManager.ResultRepository().GetSummaries(ctx, runID)
}
