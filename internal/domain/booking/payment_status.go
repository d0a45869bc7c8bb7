package booking

import "fmt"

// PaymentStatus tracks whether the owner has confirmed payment for a completed booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentReceived PaymentStatus = "received"
)

// IsValid returns true if the payment status is recognized.
func (p PaymentStatus) IsValid() bool {
	return p == PaymentPending || p == PaymentReceived
}

// ParsePaymentStatus converts a string to a PaymentStatus.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	p := PaymentStatus(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid payment status %q, use %q or %q", s, PaymentPending, PaymentReceived)
	}
	return p, nil
}
