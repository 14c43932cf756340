package dbcsv

import (
	"context"

	"github.com/vulpemventures/coinsim/internal/core/domain"
)

type resultSink struct {
	outcomes      *fileWriter
	inputs        *fileWriter
	poolSnapshots *fileWriter
	summaries     *fileWriter
}

func (s *resultSink) AddPoolSnapshot(
	_ context.Context, attempt int, values []uint64,
) error {
	rows := []*valuesRow{newValuesRow(attempt, values)}
	return s.poolSnapshots.writeWithoutHeader(rows)
}

func (s *resultSink) AddInputs(
	_ context.Context, attempt int, values []uint64,
) error {
	rows := []*valuesRow{newValuesRow(attempt, values)}
	return s.inputs.writeWithoutHeader(rows)
}

func (s *resultSink) AddOutcome(
	_ context.Context, record domain.OutcomeRecord,
) error {
	rows := []*outcomeRow{newOutcomeRow(record)}
	return s.outcomes.writeWithHeader(rows)
}

func (s *resultSink) AddSummary(
	_ context.Context, _ int, summary domain.SummarySnapshot,
) error {
	rows := []*summaryRow{newSummaryRow(summary)}
	if err := s.summaries.writeWithHeader(rows); err != nil {
		return err
	}
	s.summaries.writer.Flush()
	return s.summaries.writer.Error()
}

// Close flushes and closes every file, returning the first error met.
func (s *resultSink) Close() error {
	var firstErr error
	for _, w := range []*fileWriter{
		s.outcomes, s.inputs, s.poolSnapshots, s.summaries,
	} {
		if w == nil {
			continue
		}
		if err := w.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
