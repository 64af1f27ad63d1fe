package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okarpenko/retreathub-backend/pkg/enums"
)

// Payment is one payment attempt against a booking. A booking may accumulate
// several attempts; each carries its own provider order reference and is
// mutated exclusively by the provider's callback handler after signature
// verification.
type Payment struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID uuid.UUID `gorm:"column:booking_id;type:uuid;not null;index"`

	Provider       enums.PaymentProvider `gorm:"column:provider;not null"`
	OrderReference string                `gorm:"column:order_reference;not null;uniqueIndex"`
	TransactionID  *string               `gorm:"column:transaction_id"`

	Amount   decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency string          `gorm:"column:currency;not null;default:UAH"`

	Status      enums.PaymentStatus `gorm:"column:status;not null;default:pending"`
	Description string              `gorm:"column:description;not null"`

	// RawPayload keeps the last verified provider callback body for audit.
	RawPayload *string `gorm:"column:raw_payload"`

	Booking *Booking `gorm:"foreignKey:BookingID"`

	PaidAt    *time.Time `gorm:"column:paid_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
