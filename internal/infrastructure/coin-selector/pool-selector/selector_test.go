package poolselector_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinsim/internal/core/domain"
	poolselector "github.com/vulpemventures/coinsim/internal/infrastructure/coin-selector/pool-selector"
	"github.com/vulpemventures/coinsim/pkg/coinselect"
)

var testOpts = poolselector.SelectorOpts{
	LongTermFeeRate: poolselector.DefaultLongTermFeeRate,
	DustLimit:       poolselector.DefaultDustLimit,
	InputWeight:     poolselector.DefaultInputWeight,
	OutputWeight:    poolselector.DefaultOutputWeight,
}

func TestBranchAndBoundCoinSelector(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		s, err := poolselector.NewBranchAndBoundCoinSelector(testOpts)
		require.NoError(t, err)

		s.Deposit(100000000)
		require.Equal(t, []uint64{100000000}, s.Values())

		record := s.Withdraw(payments(50000000), 10)
		require.Equal(t, coinselect.AlgorithmBnb, record.Algorithm)
		require.Equal(t, uint64(50000000), record.Amount)
		require.Equal(t, []uint64{100000000}, record.Inputs)
		require.Equal(t, 1, *record.InputCount())
		require.Equal(t, uint64(1400), *record.Fee)
		require.Equal(t, uint64(49998600), *record.ChangeAmount)
		require.Equal(t, coinselect.FeeRate(10), *record.RealFeeRate)
		require.Equal(t, 2, *record.OutputCount)
		require.Zero(t, *record.NegativeEffectiveValuedInputs)
		require.Equal(t, float64(990), *record.WasteScore)
		require.Equal(t, 1, record.UtxoCountBefore)
		require.Equal(t, 1, record.UtxoCountAfter)
		require.Equal(t, uint64(49998600), record.Balance)
		require.Equal(t, float64(680), record.CostToEmpty)
		require.Equal(t, []uint64{49998600}, s.Values())
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		s, err := poolselector.NewBranchAndBoundCoinSelector(testOpts)
		require.NoError(t, err)

		record := s.Withdraw(payments(10000000), 10)
		require.True(t, record.IsFailed())
		require.Equal(t, coinselect.AlgorithmFailed, record.Algorithm)
		require.Nil(t, record.Fee)
		require.Nil(t, record.RealFeeRate)
		require.Nil(t, record.ChangeAmount)
		require.Nil(t, record.WasteScore)
		require.Nil(t, record.InputCount())
		require.Empty(t, record.Inputs)
		require.Zero(t, record.UtxoCountBefore)
		require.Zero(t, record.UtxoCountAfter)
		require.Empty(t, s.Values())
	})
}

func TestFifoCoinSelector(t *testing.T) {
	t.Parallel()

	s, err := poolselector.NewFifoCoinSelector(testOpts)
	require.NoError(t, err)

	s.Deposit(10000)
	s.Deposit(20000)
	s.Deposit(90000)

	record := s.Withdraw(payments(25000), 10)
	require.Equal(t, coinselect.AlgorithmFifo, record.Algorithm)
	require.Equal(t, []uint64{10000, 20000}, record.Inputs)
	require.Equal(t, uint64(2080), *record.Fee)
	require.Equal(t, uint64(2920), *record.ChangeAmount)
	require.Equal(t, 3, record.UtxoCountBefore)
	require.Equal(t, 2, record.UtxoCountAfter)
	require.Equal(t, uint64(92920), record.Balance)
	require.Equal(t, []uint64{90000, 2920}, s.Values())

	record = s.Withdraw(payments(1000000), 10)
	require.True(t, record.IsFailed())
	require.Equal(t, []uint64{90000, 2920}, s.Values())
}

func TestInvalidSelectorOpts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts poolselector.SelectorOpts
		err  error
	}{
		{
			name: "missing input weight",
			opts: poolselector.SelectorOpts{OutputWeight: 31},
			err:  poolselector.ErrInvalidInputWeight,
		},
		{
			name: "missing output weight",
			opts: poolselector.SelectorOpts{InputWeight: 68},
			err:  poolselector.ErrInvalidOutputWeight,
		},
		{
			name: "negative long-term fee rate",
			opts: poolselector.SelectorOpts{
				InputWeight: 68, OutputWeight: 31, LongTermFeeRate: -1,
			},
			err: poolselector.ErrInvalidFeeRate,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s, err := poolselector.NewBranchAndBoundCoinSelector(tt.opts)
			require.ErrorIs(t, err, tt.err)
			require.Nil(t, s)

			s, err = poolselector.NewFifoCoinSelector(tt.opts)
			require.ErrorIs(t, err, tt.err)
			require.Nil(t, s)
		})
	}
}

func payments(amounts ...uint64) domain.Payments {
	list := make(domain.Payments, 0, len(amounts))
	for _, amount := range amounts {
		list = append(list, domain.Payment{
			Amount: amount,
			Weight: poolselector.DefaultOutputWeight,
		})
	}
	return list
}
