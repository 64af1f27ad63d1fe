package enums

import "fmt"

// RefundRequestStatus tracks the manual review of a refund request.
type RefundRequestStatus string

const (
	RefundRequestStatusPending   RefundRequestStatus = "pending"
	RefundRequestStatusProcessed RefundRequestStatus = "processed"
	RefundRequestStatusDenied    RefundRequestStatus = "denied"
)

var validRefundRequestStatuses = []RefundRequestStatus{
	RefundRequestStatusPending,
	RefundRequestStatusProcessed,
	RefundRequestStatusDenied,
}

// String implements fmt.Stringer.
func (r RefundRequestStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RefundRequestStatus.
func (r RefundRequestStatus) IsValid() bool {
	for _, candidate := range validRefundRequestStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRefundRequestStatus converts raw input into a RefundRequestStatus.
func ParseRefundRequestStatus(value string) (RefundRequestStatus, error) {
	for _, candidate := range validRefundRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund request status %q", value)
}
