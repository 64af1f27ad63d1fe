package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okarpenko/retreathub-backend/pkg/enums"
)

// Booking is a participant's reservation against a retreat. Bookings are a
// financial audit record and are never deleted; Status and PaymentStatus are
// two loosely coupled axes that can disagree transiently while a payment
// callback is in flight.
type Booking struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RetreatID uuid.UUID `gorm:"column:retreat_id;type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	Participants int `gorm:"column:participants;not null"`

	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	FinalAmount    decimal.Decimal `gorm:"column:final_amount;type:numeric(12,2);not null"`
	Currency       string          `gorm:"column:currency;not null;default:UAH"`

	Status        enums.BookingStatus        `gorm:"column:status;not null;default:pending"`
	PaymentStatus enums.BookingPaymentStatus `gorm:"column:payment_status;not null;default:pending"`

	CancelReason *string `gorm:"column:cancel_reason"`

	Retreat *Retreat `gorm:"foreignKey:RetreatID"`
	User    *User    `gorm:"foreignKey:UserID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
