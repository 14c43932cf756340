package postgresdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/pkg/coinselect"
)

const (
	valuesKindPool   = "pool"
	valuesKindInputs = "inputs"

	insertRunQuery = `INSERT INTO run (id, created_at) VALUES ($1, $2)`
	runExistsQuery = `SELECT EXISTS (SELECT 1 FROM run WHERE id = $1)`

	insertOutcomeQuery = `INSERT INTO outcome (
		run_id, attempt, amount, fee, target_fee_rate, real_fee_rate, algorithm,
		inputs, negative_effective_valued_inputs, output_count, change_amount,
		utxo_count_before_payment, utxo_count_after_payment, balance,
		cost_to_empty, waste_score
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	selectOutcomesQuery = `SELECT
		attempt, amount, fee, target_fee_rate, real_fee_rate, algorithm,
		inputs, negative_effective_valued_inputs, output_count, change_amount,
		utxo_count_before_payment, utxo_count_after_payment, balance,
		cost_to_empty, waste_score
	FROM outcome WHERE run_id = $1 ORDER BY attempt`

	insertValuesQuery = `INSERT INTO candidate_values (run_id, attempt, kind, vals)
		VALUES ($1, $2, $3, $4)`

	insertSummaryQuery = `INSERT INTO summary (run_id, attempt, data)
		VALUES ($1, $2, $3)`
	selectSummariesQuery = `SELECT data FROM summary
		WHERE run_id = $1 ORDER BY attempt`
)

type resultRepositoryPg struct {
	pgxPool *pgxpool.Pool

	log func(format string, a ...interface{})
}

func newResultRepositoryPg(pgxPool *pgxpool.Pool) *resultRepositoryPg {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("result repository: %s", format)
		log.Debugf(format, a...)
	}
	return &resultRepositoryPg{pgxPool, logFn}
}

func (r *resultRepositoryPg) openRun(
	ctx context.Context, runID string,
) (domain.ResultSink, error) {
	if _, err := r.pgxPool.Exec(
		ctx, insertRunQuery, runID, time.Now().Unix(),
	); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRunAlreadyExists, runID)
		}
		return nil, err
	}
	r.log("opened run %s", runID)
	return &resultSinkPg{runID, r.pgxPool}, nil
}

func (r *resultRepositoryPg) GetOutcomes(
	ctx context.Context, runID string,
) ([]domain.OutcomeRecord, error) {
	if err := r.checkRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := r.pgxPool.Query(ctx, selectOutcomesQuery, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	outcomes := make([]domain.OutcomeRecord, 0)
	for rows.Next() {
		record, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, *record)
	}
	return outcomes, rows.Err()
}

func (r *resultRepositoryPg) GetSummaries(
	ctx context.Context, runID string,
) ([]domain.SummarySnapshot, error) {
	if err := r.checkRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := r.pgxPool.Query(ctx, selectSummariesQuery, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]domain.SummarySnapshot, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var summary domain.SummarySnapshot
		if err := json.Unmarshal(data, &summary); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (r *resultRepositoryPg) checkRun(ctx context.Context, runID string) error {
	var exists bool
	if err := r.pgxPool.QueryRow(ctx, runExistsQuery, runID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	return nil
}

type resultSinkPg struct {
	runID   string
	pgxPool *pgxpool.Pool
}

func (s *resultSinkPg) AddPoolSnapshot(
	ctx context.Context, attempt int, values []uint64,
) error {
	return s.addValues(ctx, valuesKindPool, attempt, values)
}

func (s *resultSinkPg) AddInputs(
	ctx context.Context, attempt int, values []uint64,
) error {
	return s.addValues(ctx, valuesKindInputs, attempt, values)
}

func (s *resultSinkPg) AddOutcome(
	ctx context.Context, record domain.OutcomeRecord,
) error {
	var realFeeRate *float64
	if record.RealFeeRate != nil {
		rate := float64(*record.RealFeeRate)
		realFeeRate = &rate
	}
	_, err := s.pgxPool.Exec(
		ctx, insertOutcomeQuery,
		s.runID,
		int32(record.ID),
		int64(record.Amount),
		toNullInt64(record.Fee),
		float64(record.TargetFeeRate),
		realFeeRate,
		record.Algorithm.String(),
		toInt64s(record.Inputs),
		toNullInt32(record.NegativeEffectiveValuedInputs),
		toNullInt32(record.OutputCount),
		toNullInt64(record.ChangeAmount),
		int32(record.UtxoCountBefore),
		int32(record.UtxoCountAfter),
		int64(record.Balance),
		record.CostToEmpty,
		record.WasteScore,
	)
	return err
}

func (s *resultSinkPg) AddSummary(
	ctx context.Context, attempt int, summary domain.SummarySnapshot,
) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = s.pgxPool.Exec(
		ctx, insertSummaryQuery, s.runID, int32(attempt), string(data),
	)
	return err
}

func (s *resultSinkPg) Close() error {
	return nil
}

func (s *resultSinkPg) addValues(
	ctx context.Context, kind string, attempt int, values []uint64,
) error {
	_, err := s.pgxPool.Exec(
		ctx, insertValuesQuery, s.runID, int32(attempt), kind, toInt64s(values),
	)
	return err
}

func scanOutcome(rows pgx.Rows) (*domain.OutcomeRecord, error) {
	var (
		attempt, utxoCountBefore, utxoCountAfter int32
		amount, balance                          int64
		fee, changeAmount                        *int64
		negInputs, outputCount                   *int32
		targetFeeRate, costToEmpty               float64
		realFeeRate, wasteScore                  *float64
		algorithm                                string
		inputs                                   []int64
	)
	if err := rows.Scan(
		&attempt, &amount, &fee, &targetFeeRate, &realFeeRate, &algorithm,
		&inputs, &negInputs, &outputCount, &changeAmount,
		&utxoCountBefore, &utxoCountAfter, &balance, &costToEmpty, &wasteScore,
	); err != nil {
		return nil, err
	}

	record := &domain.OutcomeRecord{
		ID:                            int(attempt),
		Amount:                        uint64(amount),
		Fee:                           fromNullInt64(fee),
		TargetFeeRate:                 coinselect.FeeRate(targetFeeRate),
		Algorithm:                     coinselect.Algorithm(algorithm),
		Inputs:                        fromInt64s(inputs),
		NegativeEffectiveValuedInputs: fromNullInt32(negInputs),
		OutputCount:                   fromNullInt32(outputCount),
		ChangeAmount:                  fromNullInt64(changeAmount),
		UtxoCountBefore:               int(utxoCountBefore),
		UtxoCountAfter:                int(utxoCountAfter),
		Balance:                       uint64(balance),
		CostToEmpty:                   costToEmpty,
		WasteScore:                    wasteScore,
	}
	if realFeeRate != nil {
		rate := coinselect.FeeRate(*realFeeRate)
		record.RealFeeRate = &rate
	}
	return record, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func toInt64s(values []uint64) []int64 {
	list := make([]int64, 0, len(values))
	for _, v := range values {
		list = append(list, int64(v))
	}
	return list
}

func fromInt64s(values []int64) []uint64 {
	list := make([]uint64, 0, len(values))
	for _, v := range values {
		list = append(list, uint64(v))
	}
	return list
}

func toNullInt64(v *uint64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

func fromNullInt64(v *int64) *uint64 {
	if v == nil {
		return nil
	}
	n := uint64(*v)
	return &n
}

func toNullInt32(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

func fromNullInt32(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
