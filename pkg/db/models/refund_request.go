package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okarpenko/retreathub-backend/pkg/enums"
)

// RefundRequest records a participant-initiated refund awaiting manual
// review. Creating one flags the payment refund_requested but never touches
// the booking; only an organizer/admin decision does.
type RefundRequest struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;not null;index"`
	BookingID uuid.UUID `gorm:"column:booking_id;type:uuid;not null;index"`

	RequestedBy uuid.UUID       `gorm:"column:requested_by;type:uuid;not null"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Reason      string          `gorm:"column:reason;not null"`

	Status    enums.RefundRequestStatus `gorm:"column:status;not null;default:pending"`
	DecidedBy *uuid.UUID                `gorm:"column:decided_by;type:uuid"`
	DecidedAt *time.Time                `gorm:"column:decided_at"`

	Payment *Payment `gorm:"foreignKey:PaymentID"`
	Booking *Booking `gorm:"foreignKey:BookingID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
