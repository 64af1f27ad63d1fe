package enums

import "fmt"

// BookingPaymentStatus is the payment axis on a booking. It moves
// independently of BookingStatus: a pending booking may carry a failed
// payment status while the participant retries.
type BookingPaymentStatus string

const (
	BookingPaymentPending  BookingPaymentStatus = "pending"
	BookingPaymentPaid     BookingPaymentStatus = "paid"
	BookingPaymentPartial  BookingPaymentStatus = "partial"
	BookingPaymentRefunded BookingPaymentStatus = "refunded"
	BookingPaymentFailed   BookingPaymentStatus = "failed"
)

var validBookingPaymentStatuses = []BookingPaymentStatus{
	BookingPaymentPending,
	BookingPaymentPaid,
	BookingPaymentPartial,
	BookingPaymentRefunded,
	BookingPaymentFailed,
}

// String implements fmt.Stringer.
func (b BookingPaymentStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BookingPaymentStatus.
func (b BookingPaymentStatus) IsValid() bool {
	for _, candidate := range validBookingPaymentStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBookingPaymentStatus converts raw input into a BookingPaymentStatus.
func ParseBookingPaymentStatus(value string) (BookingPaymentStatus, error) {
	for _, candidate := range validBookingPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking payment status %q", value)
}
