package dbbadger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vulpemventures/coinsim/internal/core/domain"
)

const (
	valuesKindPool   = "pool"
	valuesKindInputs = "inputs"
)

type runEntry struct {
	RunID     string
	CreatedAt int64
}

type outcomeEntry struct {
	RunID   string `badgerholdIndex:"RunID"`
	Attempt int
	Record  domain.OutcomeRecord
}

type valuesEntry struct {
	RunID   string `badgerholdIndex:"RunID"`
	Attempt int
	Kind    string
	Values  []uint64
}

type summaryEntry struct {
	RunID   string `badgerholdIndex:"RunID"`
	Attempt int
	Summary domain.SummarySnapshot
}

type resultRepository struct {
	store *badgerhold.Store

	log func(format string, a ...interface{})
}

func newResultRepository(store *badgerhold.Store) *resultRepository {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("result repository: %s", format)
		log.Debugf(format, a...)
	}
	return &resultRepository{store, logFn}
}

func (r *resultRepository) GetOutcomes(
	ctx context.Context, runID string,
) ([]domain.OutcomeRecord, error) {
	if err := r.checkRun(ctx, runID); err != nil {
		return nil, err
	}

	var entries []outcomeEntry
	query := badgerhold.Where("RunID").Eq(runID).Index("RunID").SortBy("Attempt")
	if err := r.find(ctx, &entries, query); err != nil {
		return nil, err
	}

	outcomes := make([]domain.OutcomeRecord, 0, len(entries))
	for _, e := range entries {
		if e.Record.Inputs == nil {
			e.Record.Inputs = []uint64{}
		}
		outcomes = append(outcomes, e.Record)
	}
	return outcomes, nil
}

func (r *resultRepository) GetSummaries(
	ctx context.Context, runID string,
) ([]domain.SummarySnapshot, error) {
	if err := r.checkRun(ctx, runID); err != nil {
		return nil, err
	}

	var entries []summaryEntry
	query := badgerhold.Where("RunID").Eq(runID).Index("RunID").SortBy("Attempt")
	if err := r.find(ctx, &entries, query); err != nil {
		return nil, err
	}

	summaries := make([]domain.SummarySnapshot, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, e.Summary)
	}
	return summaries, nil
}

func (r *resultRepository) checkRun(ctx context.Context, runID string) error {
	var entry runEntry
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxGet(tx, runID, &entry)
	} else {
		err = r.store.Get(runID, &entry)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
		}
		return err
	}
	return nil
}

func (r *resultRepository) find(
	ctx context.Context, result interface{}, query *badgerhold.Query,
) error {
	var err error
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxFind(tx, result, query)
	} else {
		err = r.store.Find(result, query)
	}
	if err != nil && err != badgerhold.ErrNotFound {
		return err
	}
	return nil
}

func (r *resultRepository) insert(
	ctx context.Context, key string, data interface{},
) error {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.store.TxInsert(tx, key, data)
	}
	return r.store.Insert(key, data)
}

func (r *resultRepository) close() {
	r.store.Close()
}

type resultSink struct {
	runID string
	repo  *resultRepository
}

func (s *resultSink) AddPoolSnapshot(
	ctx context.Context, attempt int, values []uint64,
) error {
	return s.addValues(ctx, valuesKindPool, attempt, values)
}

func (s *resultSink) AddInputs(
	ctx context.Context, attempt int, values []uint64,
) error {
	return s.addValues(ctx, valuesKindInputs, attempt, values)
}

func (s *resultSink) AddOutcome(
	ctx context.Context, record domain.OutcomeRecord,
) error {
	entry := outcomeEntry{RunID: s.runID, Attempt: record.ID, Record: record}
	return s.repo.insert(ctx, s.key("outcome", record.ID), entry)
}

func (s *resultSink) AddSummary(
	ctx context.Context, attempt int, summary domain.SummarySnapshot,
) error {
	entry := summaryEntry{RunID: s.runID, Attempt: attempt, Summary: summary}
	return s.repo.insert(ctx, s.key("summary", attempt), entry)
}

func (s *resultSink) Close() error {
	return nil
}

func (s *resultSink) addValues(
	ctx context.Context, kind string, attempt int, values []uint64,
) error {
	entry := valuesEntry{
		RunID: s.runID, Attempt: attempt, Kind: kind, Values: values,
	}
	return s.repo.insert(ctx, s.key(kind, attempt), entry)
}

func (s *resultSink) key(kind string, attempt int) string {
	return fmt.Sprintf("%s/%s/%010d", s.runID, kind, attempt)
}
