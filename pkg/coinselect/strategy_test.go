package coinselect_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinsim/pkg/coinselect"
)

func TestBranchAndBound(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		t.Run("single candidate with change", func(t *testing.T) {
			bnb := coinselect.NewBranchAndBound(testPolicy, 0)
			target := coinselect.Target{
				Value:         50000000,
				FeeRate:       10,
				OutputWeights: testOutputWeights,
			}

			selection, err := bnb.Select(newCandidates(100000000), target)
			require.NoError(t, err)
			require.Equal(t, coinselect.AlgorithmBnb, selection.Algorithm)
			require.Len(t, selection.Selected, 1)
			require.Equal(t, uint64(49998600), selection.Evaluation.Change)
			require.Equal(t, uint64(1400), selection.Evaluation.Fee)
		})

		t.Run("prefers changeless combination", func(t *testing.T) {
			policy := testPolicy
			policy.LongTermFeeRate = 1
			bnb := coinselect.NewBranchAndBound(policy, 0)
			target := coinselect.Target{
				Value:         4823,
				FeeRate:       1,
				OutputWeights: testOutputWeights,
			}
			candidates := newCandidates(1000, 2000, 3000, 5000)

			selection, err := bnb.Select(candidates, target)
			require.NoError(t, err)
			require.Equal(t, coinselect.AlgorithmBnb, selection.Algorithm)
			require.ElementsMatch(
				t, []uint64{2000, 3000}, selection.Selected.Values(),
			)
			require.Zero(t, selection.Evaluation.Waste)
			require.False(t, selection.Evaluation.HasChange())

			sorted, err := coinselect.SelectSorted(candidates, target, policy)
			require.NoError(t, err)
			require.Equal(t, []uint64{5000}, sorted.Selected.Values())
			require.Greater(t, sorted.Evaluation.Waste, selection.Evaluation.Waste)
		})

		t.Run("falls back to sorted selection", func(t *testing.T) {
			bnb := coinselect.NewBranchAndBound(testPolicy, 1)
			target := coinselect.Target{
				Value:         25000,
				FeeRate:       10,
				OutputWeights: testOutputWeights,
			}
			candidates := newCandidates(10000, 20000, 30000)

			_, err := bnb.Search(candidates, target)
			require.ErrorIs(t, err, coinselect.ErrNoBnbSolution)

			selection, err := bnb.Select(candidates, target)
			require.NoError(t, err)
			require.Equal(t, coinselect.AlgorithmSelectSorted, selection.Algorithm)
			require.Equal(t, []uint64{30000}, selection.Selected.Values())
		})
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		bnb := coinselect.NewBranchAndBound(testPolicy, 0)
		tests := []struct {
			name       string
			candidates []coinselect.Candidate
			target     coinselect.Target
			err        error
		}{
			{
				name:       "empty pool",
				candidates: nil,
				target: coinselect.Target{
					Value: 10000000, FeeRate: 10, OutputWeights: testOutputWeights,
				},
				err: coinselect.ErrInfeasibleTarget,
			},
			{
				name:       "not enough funds",
				candidates: newCandidates(1000, 2000),
				target: coinselect.Target{
					Value: 3000, FeeRate: 1, OutputWeights: testOutputWeights,
				},
				err: coinselect.ErrInfeasibleTarget,
			},
			{
				name:       "zero target",
				candidates: newCandidates(1000),
				target:     coinselect.Target{FeeRate: 1},
				err:        coinselect.ErrInvalidTarget,
			},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				selection, err := bnb.Select(tt.candidates, tt.target)
				require.ErrorIs(t, err, tt.err)
				require.Nil(t, selection)
			})
		}
	})
}

func TestBranchAndBoundMinimalSelection(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(42))
	bnb := coinselect.NewBranchAndBound(testPolicy, 0)

	for i := 0; i < 50; i++ {
		candidates := randomCandidates(rnd, 12)
		target := coinselect.Target{
			Value:         uint64(rnd.Int63n(200000)) + 1,
			FeeRate:       coinselect.FeeRate(rnd.Intn(30) + 1),
			OutputWeights: testOutputWeights,
		}

		selection, err := bnb.Search(candidates, target)
		if err != nil {
			require.ErrorIs(t, err, coinselect.ErrNoBnbSolution)
			continue
		}

		selected := selection.Selected
		require.True(t, target.IsMetBy(selected.Value(), selected.Weight()))
		require.GreaterOrEqual(t, selected.Value(), target.Value)
		for skip := range selected {
			subset := make(coinselect.Candidates, 0, len(selected)-1)
			subset = append(subset, selected[:skip]...)
			subset = append(subset, selected[skip+1:]...)
			require.False(t, target.IsMetBy(subset.Value(), subset.Weight()))
		}
	}
}

func TestBranchAndBoundReorderInvariance(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(7))
	bnb := coinselect.NewBranchAndBound(testPolicy, 1<<30)

	for i := 0; i < 20; i++ {
		candidates := randomCandidates(rnd, 10)
		target := coinselect.Target{
			Value:         uint64(rnd.Int63n(150000)) + 1,
			FeeRate:       coinselect.FeeRate(rnd.Intn(20) + 1),
			OutputWeights: testOutputWeights,
		}

		expected, expectedErr := bnb.Search(candidates, target)

		shuffled := make([]coinselect.Candidate, len(candidates))
		copy(shuffled, candidates)
		rnd.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		got, err := bnb.Search(shuffled, target)

		require.Equal(t, expectedErr, err)
		if err != nil {
			continue
		}
		require.Equal(t, expected.Evaluation.Waste, got.Evaluation.Waste)
	}
}

func TestFifo(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		fifo := coinselect.NewFifo(testPolicy)
		candidates := []coinselect.Candidate{
			{Value: 40000, Weight: 68, InputCount: 1, CreationSequence: 3},
			{Value: 10000, Weight: 68, InputCount: 1, CreationSequence: 1},
			{Value: 90000, Weight: 68, InputCount: 1, CreationSequence: 4},
			{Value: 20000, Weight: 68, InputCount: 1, CreationSequence: 2},
		}
		target := coinselect.Target{
			Value:         25000,
			FeeRate:       10,
			OutputWeights: testOutputWeights,
		}

		selection, err := fifo.Select(candidates, target)
		require.NoError(t, err)
		require.Equal(t, coinselect.AlgorithmFifo, selection.Algorithm)
		require.Equal(t, []uint64{10000, 20000}, selection.Selected.Values())
	})

	t.Run("always selects a prefix", func(t *testing.T) {
		t.Parallel()

		rnd := rand.New(rand.NewSource(3))
		fifo := coinselect.NewFifo(testPolicy)
		for i := 0; i < 50; i++ {
			candidates := randomCandidates(rnd, 15)
			target := coinselect.Target{
				Value:         uint64(rnd.Int63n(300000)) + 1,
				FeeRate:       coinselect.FeeRate(rnd.Intn(20) + 1),
				OutputWeights: testOutputWeights,
			}

			selection, err := fifo.Select(candidates, target)
			if err != nil {
				require.ErrorIs(t, err, coinselect.ErrInfeasibleTarget)
				continue
			}
			for j, c := range selection.Selected {
				require.Equal(t, uint64(j), c.CreationSequence)
			}
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		fifo := coinselect.NewFifo(testPolicy)
		target := coinselect.Target{
			Value: 100000, FeeRate: 10, OutputWeights: testOutputWeights,
		}
		selection, err := fifo.Select(newCandidates(1000, 2000), target)
		require.ErrorIs(t, err, coinselect.ErrInfeasibleTarget)
		require.Nil(t, selection)
	})
}

func newCandidates(values ...uint64) []coinselect.Candidate {
	candidates := make([]coinselect.Candidate, 0, len(values))
	for i, v := range values {
		candidates = append(candidates, coinselect.Candidate{
			Value:            v,
			Weight:           68,
			InputCount:       1,
			IsSegwit:         true,
			CreationSequence: uint64(i),
		})
	}
	return candidates
}

func randomCandidates(rnd *rand.Rand, n int) []coinselect.Candidate {
	values := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		values = append(values, uint64(rnd.Int63n(100000))+100)
	}
	return newCandidates(values...)
}
