package dbcsv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/internal/core/ports"
)

const (
	outcomesFile      = "full_results.csv"
	inputsFile        = "inputs.csv"
	poolSnapshotsFile = "utxos.csv"
	summariesFile     = "results.csv"
)

var (
	ErrInvalidRunID = fmt.Errorf("run id must be a plain file name")
)

type repoManager struct {
	outputDir string

	log func(format string, a ...interface{})
}

// NewRepoManager returns a repo manager writing the results of every run as
// csv files in a dedicated folder under outputDir.
func NewRepoManager(outputDir string) (ports.RepoManager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("csv repository: %s", format)
		log.Debugf(format, a...)
	}
	return &repoManager{outputDir, logFn}, nil
}

func (rm *repoManager) OpenRun(
	_ context.Context, runID string,
) (domain.ResultSink, error) {
	runDir, err := rm.runDir(runID)
	if err != nil {
		return nil, err
	}
	if err := os.Mkdir(runDir, 0755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRunAlreadyExists, runID)
		}
		return nil, err
	}

	sink := &resultSink{}
	for _, f := range []struct {
		name string
		w    **fileWriter
	}{
		{outcomesFile, &sink.outcomes},
		{inputsFile, &sink.inputs},
		{poolSnapshotsFile, &sink.poolSnapshots},
		{summariesFile, &sink.summaries},
	} {
		w, err := newFileWriter(filepath.Join(runDir, f.name))
		if err != nil {
			sink.Close()
			return nil, err
		}
		*f.w = w
	}

	rm.log("writing results of run %s to %s", runID, runDir)
	return sink, nil
}

func (rm *repoManager) ResultRepository() domain.ResultRepository {
	return rm
}

func (rm *repoManager) Close() {}

func (rm *repoManager) GetOutcomes(
	_ context.Context, runID string,
) ([]domain.OutcomeRecord, error) {
	runDir, err := rm.existingRunDir(runID)
	if err != nil {
		return nil, err
	}

	var outcomeRows []*outcomeRow
	if err := unmarshalFile(
		filepath.Join(runDir, outcomesFile), &outcomeRows, true,
	); err != nil {
		return nil, err
	}
	var inputRows []*valuesRow
	if err := unmarshalFile(
		filepath.Join(runDir, inputsFile), &inputRows, false,
	); err != nil {
		return nil, err
	}

	inputsByAttempt := make(map[int][]uint64, len(inputRows))
	for _, row := range inputRows {
		values, err := row.values()
		if err != nil {
			return nil, err
		}
		inputsByAttempt[row.ID] = values
	}

	outcomes := make([]domain.OutcomeRecord, 0, len(outcomeRows))
	for _, row := range outcomeRows {
		record := row.toDomain()
		if inputs, ok := inputsByAttempt[row.ID]; ok {
			record.Inputs = inputs
		}
		outcomes = append(outcomes, record)
	}
	return outcomes, nil
}

func (rm *repoManager) GetSummaries(
	_ context.Context, runID string,
) ([]domain.SummarySnapshot, error) {
	runDir, err := rm.existingRunDir(runID)
	if err != nil {
		return nil, err
	}

	var rows []*summaryRow
	if err := unmarshalFile(
		filepath.Join(runDir, summariesFile), &rows, true,
	); err != nil {
		return nil, err
	}

	summaries := make([]domain.SummarySnapshot, 0, len(rows))
	for _, row := range rows {
		summary, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

func (rm *repoManager) runDir(runID string) (string, error) {
	if runID == "" || runID == "." || runID == ".." ||
		strings.ContainsAny(runID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return filepath.Join(rm.outputDir, runID), nil
}

func (rm *repoManager) existingRunDir(runID string) (string, error) {
	runDir, err := rm.runDir(runID)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(runDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
		}
		return "", err
	}
	return runDir, nil
}

func unmarshalFile(path string, out interface{}, withHeaders bool) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if withHeaders {
		err = gocsv.UnmarshalFile(file, out)
	} else {
		err = gocsv.UnmarshalWithoutHeaders(file, out)
	}
	if err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return nil
}

// fileWriter is a csv file created exclusively, whose header is written along
// with the first row.
type fileWriter struct {
	file          *os.File
	writer        *gocsv.SafeCSVWriter
	headerWritten bool
}

func newFileWriter(path string) (*fileWriter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &fileWriter{
		file:   file,
		writer: gocsv.NewSafeCSVWriter(csv.NewWriter(file)),
	}, nil
}

func (w *fileWriter) writeWithHeader(rows interface{}) error {
	if w.headerWritten {
		return w.writeWithoutHeader(rows)
	}
	if err := gocsv.MarshalCSV(rows, w.writer); err != nil {
		return err
	}
	w.headerWritten = true
	return nil
}

func (w *fileWriter) writeWithoutHeader(rows interface{}) error {
	return gocsv.MarshalCSVWithoutHeaders(rows, w.writer)
}

func (w *fileWriter) close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
