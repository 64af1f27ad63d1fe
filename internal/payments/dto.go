package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okarpenko/retreathub-backend/internal/payments/providers"
	"github.com/okarpenko/retreathub-backend/pkg/db/models"
)

// IntentDTO is returned to the client after an intent is persisted: the
// payment identity plus the signed checkout form for the chosen provider.
type IntentDTO struct {
	PaymentID      uuid.UUID         `json:"payment_id"`
	BookingID      uuid.UUID         `json:"booking_id"`
	Provider       string            `json:"provider"`
	OrderReference string            `json:"order_reference"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	Checkout       *providers.Intent `json:"checkout"`
}

// PaymentDTO is the transport shape of a payment attempt.
type PaymentDTO struct {
	ID             uuid.UUID       `json:"id"`
	BookingID      uuid.UUID       `json:"booking_id"`
	Provider       string          `json:"provider"`
	OrderReference string          `json:"order_reference"`
	TransactionID  *string         `json:"transaction_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// FromModel maps a persisted payment into its transport shape.
func FromModel(p *models.Payment) *PaymentDTO {
	if p == nil {
		return nil
	}
	return &PaymentDTO{
		ID:             p.ID,
		BookingID:      p.BookingID,
		Provider:       p.Provider.String(),
		OrderReference: p.OrderReference,
		TransactionID:  p.TransactionID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Status:         p.Status.String(),
		PaidAt:         p.PaidAt,
		CreatedAt:      p.CreatedAt,
	}
}

// Ack is the provider-expected acknowledgment body for a callback.
type Ack struct {
	ContentType string
	Body        []byte
}
