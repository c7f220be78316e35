package enums

import (
	"fmt"
	"strings"
)

// PaymentStatus is the explicit outcome the payment backend reports for a submission.
type PaymentStatus string

const (
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusError    PaymentStatus = "error"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusApproved,
	PaymentStatusRejected,
	PaymentStatusPending,
	PaymentStatusError,
}

// Gateway statuses that collapse into the explicit enum.
var paymentStatusAliases = map[string]PaymentStatus{
	"in_process":   PaymentStatusPending,
	"authorized":   PaymentStatusPending,
	"in_mediation": PaymentStatusPending,
	"cancelled":    PaymentStatusRejected,
	"refunded":     PaymentStatusRejected,
	"charged_back": PaymentStatusRejected,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// Settled reports whether the order was accepted and the cart can be cleared.
func (p PaymentStatus) Settled() bool {
	return p == PaymentStatusApproved || p == PaymentStatusPending
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	if alias, ok := paymentStatusAliases[normalized]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// PaymentStatusOrError parses value and degrades anything unknown to error.
func PaymentStatusOrError(value string) PaymentStatus {
	status, err := ParsePaymentStatus(value)
	if err != nil {
		return PaymentStatusError
	}
	return status
}
