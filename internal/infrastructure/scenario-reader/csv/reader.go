package scenariocsv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/internal/core/ports"
)

// scenarioRow is a record of a scenario file: a signed amount in coin units
// and a fee rate.
type scenarioRow struct {
	Amount  string `csv:"amount"`
	FeeRate string `csv:"fee_rate"`
}

type reader struct {
	feeRateMultiplier decimal.Decimal

	log func(format string, a ...interface{})
}

// NewScenarioReader returns a reader of headerless csv scenario files. Fee
// rates are multiplied by feeRateMultiplier.
func NewScenarioReader(feeRateMultiplier decimal.Decimal) ports.ScenarioReader {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("scenario reader: %s", format)
		log.Debugf(format, a...)
	}
	return &reader{feeRateMultiplier, logFn}
}

func (r *reader) ReadScenario(
	ctx context.Context, path string,
) ([]domain.ScenarioEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows := make([]*scenarioRow, 0)
	if err := gocsv.UnmarshalWithoutHeaders(file, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []domain.ScenarioEntry{}, nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf(
				"%w: line %d: %s",
				domain.ErrMalformedScenarioRecord, parseErr.Line, parseErr.Err,
			)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrMalformedScenarioRecord, err)
	}

	entries := make([]domain.ScenarioEntry, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := domain.NewScenarioEntry(
			i+1, row.Amount, row.FeeRate, r.feeRateMultiplier,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	r.log("read %d entries from %s", len(entries), path)
	return entries, nil
}
