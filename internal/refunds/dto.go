package refunds

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
)

// RefundRequestDTO is the API shape of a refund request.
type RefundRequestDTO struct {
	ID          uuid.UUID                 `json:"id"`
	PaymentID   uuid.UUID                 `json:"paymentId"`
	BookingID   uuid.UUID                 `json:"bookingId"`
	RequestedBy uuid.UUID                 `json:"requestedBy"`
	Amount      decimal.Decimal           `json:"amount"`
	Reason      string                    `json:"reason"`
	Status      enums.RefundRequestStatus `json:"status"`
	DecidedBy   *uuid.UUID                `json:"decidedBy,omitempty"`
	DecidedAt   *time.Time                `json:"decidedAt,omitempty"`
	CreatedAt   time.Time                 `json:"createdAt"`
}

// FromModel maps a stored refund request onto the API shape.
func FromModel(request *models.RefundRequest) *RefundRequestDTO {
	if request == nil {
		return nil
	}
	return &RefundRequestDTO{
		ID:          request.ID,
		PaymentID:   request.PaymentID,
		BookingID:   request.BookingID,
		RequestedBy: request.RequestedBy,
		Amount:      request.Amount,
		Reason:      request.Reason,
		Status:      request.Status,
		DecidedBy:   request.DecidedBy,
		DecidedAt:   request.DecidedAt,
		CreatedAt:   request.CreatedAt,
	}
}
