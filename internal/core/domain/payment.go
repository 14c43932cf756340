package domain

import (
	"fmt"
	"strings"
)

const (
	PaymentPolicyDrop PaymentPolicy = iota
	PaymentPolicyRollForward
)

var (
	ErrUnknownPaymentPolicy = fmt.Errorf("unknown payment policy")

	paymentPolicyString = map[PaymentPolicy]string{
		PaymentPolicyDrop:        "drop",
		PaymentPolicyRollForward: "roll_forward",
	}
)

// PaymentPolicy tells what happens to the pending payments after a failed
// withdrawal.
type PaymentPolicy int

func (p PaymentPolicy) String() string {
	return paymentPolicyString[p]
}

// ClearsPayments returns whether the pending payments must be discarded after
// a withdrawal attempt. Drop always clears them, RollForward only on success.
func (p PaymentPolicy) ClearsPayments(failed bool) bool {
	if p == PaymentPolicyRollForward {
		return !failed
	}
	return true
}

func ParsePaymentPolicy(policy string) (PaymentPolicy, error) {
	for p, str := range paymentPolicyString {
		if strings.EqualFold(str, policy) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownPaymentPolicy, policy)
}

// Payment is an output requested by a withdrawal.
type Payment struct {
	Amount uint64
	Weight uint32
}

type Payments []Payment

func (p Payments) TotalAmount() uint64 {
	var total uint64
	for _, payment := range p {
		total += payment.Amount
	}
	return total
}

func (p Payments) OutputWeights() []uint32 {
	weights := make([]uint32, 0, len(p))
	for _, payment := range p {
		weights = append(weights, payment.Weight)
	}
	return weights
}
