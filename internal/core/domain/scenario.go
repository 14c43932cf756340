package domain

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
	"github.com/vulpemventures/coinsim/pkg/coinselect"
)

var (
	ErrMalformedScenarioRecord = fmt.Errorf("malformed scenario record")

	maxAmount = decimal.NewFromInt(int64(btcutil.MaxSatoshi))
)

// ScenarioEntry is a deposit, if Amount is positive, or a withdrawal.
type ScenarioEntry struct {
	Line    int
	Amount  int64
	FeeRate coinselect.FeeRate
}

// NewScenarioEntry parses an amount expressed in coin units and a fee rate
// that is scaled by feeRateMultiplier.
func NewScenarioEntry(
	line int, amount, feeRate string, feeRateMultiplier decimal.Decimal,
) (*ScenarioEntry, error) {
	malformed := func(reason string) error {
		return fmt.Errorf("%w: line %d: %s", ErrMalformedScenarioRecord, line, reason)
	}

	amt, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, malformed(fmt.Sprintf("invalid amount %q", amount))
	}
	sats := amt.Shift(8)
	if !sats.Equal(sats.Truncate(0)) {
		return nil, malformed(fmt.Sprintf("amount %s has more than 8 decimals", amount))
	}
	if sats.IsZero() {
		return nil, malformed("amount must not be zero")
	}
	if sats.Abs().GreaterThan(maxAmount) {
		return nil, malformed(fmt.Sprintf("amount %s exceeds max supply", amount))
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(feeRate))
	if err != nil {
		return nil, malformed(fmt.Sprintf("invalid fee rate %q", feeRate))
	}
	if rate.IsNegative() {
		return nil, malformed(fmt.Sprintf("fee rate %s must not be negative", feeRate))
	}
	rateF, _ := rate.Mul(feeRateMultiplier).Float64()

	return &ScenarioEntry{
		Line:    line,
		Amount:  sats.IntPart(),
		FeeRate: coinselect.FeeRate(rateF),
	}, nil
}

func (e ScenarioEntry) IsDeposit() bool {
	return e.Amount > 0
}

// Value returns the absolute amount of the entry.
func (e ScenarioEntry) Value() uint64 {
	if e.Amount < 0 {
		return uint64(-e.Amount)
	}
	return uint64(e.Amount)
}
