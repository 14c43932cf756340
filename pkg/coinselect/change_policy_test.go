package coinselect_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinsim/pkg/coinselect"
)

var (
	testPolicy = coinselect.ChangePolicy{
		DustLimit:       526,
		LongTermFeeRate: 10,
		DrainWeights: coinselect.DrainWeights{
			OutputWeight: 31,
			SpendWeight:  68,
		},
	}
	testOutputWeights = []uint32{31}
)

func TestBaseWeight(t *testing.T) {
	t.Parallel()

	// version + locktime + 1 byte per count varint + outputs.
	require.Equal(t, uint64(10), coinselect.BaseWeight(nil))
	require.Equal(t, uint64(41), coinselect.BaseWeight([]uint32{31}))
	require.Equal(t, uint64(72), coinselect.BaseWeight([]uint32{31, 31}))
}

func TestFeeRate(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint64(1090), coinselect.FeeRate(10).Fee(109))
	require.Equal(t, uint64(3), coinselect.FeeRate(0.3).Fee(10))
	require.Equal(t, uint64(4), coinselect.FeeRate(0.31).Fee(10))
	require.Zero(t, coinselect.FeeRate(0).Fee(100))

	rate, ok := coinselect.Implied(1400, 140)
	require.True(t, ok)
	require.Equal(t, coinselect.FeeRate(10), rate)

	_, ok = coinselect.Implied(1400, 0)
	require.False(t, ok)
}

func TestChangePolicy(t *testing.T) {
	t.Parallel()

	target := coinselect.Target{
		Value:         10000,
		FeeRate:       10,
		OutputWeights: testOutputWeights,
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name          string
			selectedValue uint64
			target        coinselect.Target
			change        uint64
			fee           uint64
			waste         float64
		}{
			{
				name:          "exact match",
				selectedValue: 11090,
				target:        target,
				fee:           1090,
				waste:         0,
			},
			{
				name:          "change below dust",
				selectedValue: 11900,
				target:        target,
				fee:           1900,
				waste:         810,
			},
			{
				name:          "change costs more than excess",
				selectedValue: 11990,
				target:        target,
				fee:           1990,
				waste:         900,
			},
			{
				name:          "with change",
				selectedValue: 20000,
				target:        target,
				change:        8600,
				fee:           1400,
				waste:         990,
			},
			{
				name:          "rate below long-term",
				selectedValue: 10545,
				target: coinselect.Target{
					Value:         10000,
					FeeRate:       5,
					OutputWeights: testOutputWeights,
				},
				fee:   545,
				waste: -340,
			},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				eval, ok := testPolicy.Evaluate(tt.selectedValue, 68, tt.target)
				require.True(t, ok)
				require.Equal(t, tt.change, eval.Change)
				require.Equal(t, tt.fee, eval.Fee)
				require.Equal(t, tt.waste, eval.Waste)
				require.Equal(
					t, tt.selectedValue, tt.target.Value+eval.Change+eval.Fee,
				)
				if eval.HasChange() {
					require.GreaterOrEqual(t, eval.Change, testPolicy.DustLimit)
				}
			})
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		_, ok := testPolicy.Evaluate(11089, 68, target)
		require.False(t, ok)
	})
}

func TestChangeNeverBelowDust(t *testing.T) {
	t.Parallel()

	target := coinselect.Target{
		Value:         50000,
		FeeRate:       3,
		OutputWeights: testOutputWeights,
	}
	for value := uint64(50000); value < 53000; value++ {
		eval, ok := testPolicy.Evaluate(value, 136, target)
		if !ok {
			continue
		}
		if eval.HasChange() {
			require.GreaterOrEqual(t, eval.Change, testPolicy.DustLimit)
		}
	}
}
