package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinsim/internal/core/domain"
)

func TestPaymentPolicy(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		policy, err := domain.ParsePaymentPolicy("drop")
		require.NoError(t, err)
		require.Equal(t, domain.PaymentPolicyDrop, policy)
		require.True(t, policy.ClearsPayments(true))
		require.True(t, policy.ClearsPayments(false))

		policy, err = domain.ParsePaymentPolicy("ROLL_FORWARD")
		require.NoError(t, err)
		require.Equal(t, domain.PaymentPolicyRollForward, policy)
		require.False(t, policy.ClearsPayments(true))
		require.True(t, policy.ClearsPayments(false))
		require.Equal(t, "roll_forward", policy.String())
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		_, err := domain.ParsePaymentPolicy("retry")
		require.ErrorIs(t, err, domain.ErrUnknownPaymentPolicy)
	})
}

func TestPayments(t *testing.T) {
	t.Parallel()

	payments := domain.Payments{{Amount: 1000, Weight: 31}, {Amount: 500, Weight: 43}}
	require.Equal(t, uint64(1500), payments.TotalAmount())
	require.Equal(t, []uint32{31, 43}, payments.OutputWeights())
}
