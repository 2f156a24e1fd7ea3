package enums

import "fmt"

// PaymentStatus is the payment state recorded on an order.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusUnverified PaymentStatus = "unverified"
	PaymentStatusFailed     PaymentStatus = "failed"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusUnverified,
	PaymentStatusFailed,
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

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// PaymentSessionStatus tracks a Paystack transaction between initialise and order creation.
type PaymentSessionStatus string

const (
	PaymentSessionInitialized PaymentSessionStatus = "initialized"
	PaymentSessionPaid        PaymentSessionStatus = "paid"
	PaymentSessionFailed      PaymentSessionStatus = "failed"
	PaymentSessionAbandoned   PaymentSessionStatus = "abandoned"
	// PaymentSessionNeedsReview marks a paid session the sweep cannot turn
	// into an order (underpaid, bad snapshot, unknown products).
	PaymentSessionNeedsReview PaymentSessionStatus = "needs_review"
)

var validPaymentSessionStatuses = []PaymentSessionStatus{
	PaymentSessionInitialized,
	PaymentSessionPaid,
	PaymentSessionFailed,
	PaymentSessionAbandoned,
	PaymentSessionNeedsReview,
}

// IsValid reports whether the value is a known PaymentSessionStatus.
func (p PaymentSessionStatus) IsValid() bool {
	for _, candidate := range validPaymentSessionStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// PaymentSessionStatusFromGateway maps Paystack transaction statuses.
func PaymentSessionStatusFromGateway(status string) PaymentSessionStatus {
	switch status {
	case "success":
		return PaymentSessionPaid
	case "failed", "reversed":
		return PaymentSessionFailed
	case "abandoned":
		return PaymentSessionAbandoned
	default:
		return PaymentSessionInitialized
	}
}
