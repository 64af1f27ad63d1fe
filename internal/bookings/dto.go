package bookings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okarpenko/retreathub-backend/pkg/db/models"
)

// BookingDTO is the transport shape for a participant's booking.
type BookingDTO struct {
	ID             uuid.UUID          `json:"id"`
	RetreatID      uuid.UUID          `json:"retreat_id"`
	Participants   int                `json:"participants"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	FinalAmount    decimal.Decimal    `json:"final_amount"`
	Currency       string             `json:"currency"`
	Status         string             `json:"status"`
	PaymentStatus  string             `json:"payment_status"`
	CancelReason   *string            `json:"cancel_reason,omitempty"`
	Retreat        *BookedRetreatDTO  `json:"retreat,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// BookedRetreatDTO is the slim retreat summary attached to bookings.
type BookedRetreatDTO struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Country   string    `json:"country"`
	City      string    `json:"city"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// FromModel maps a persisted booking into its transport shape.
func FromModel(b *models.Booking) *BookingDTO {
	if b == nil {
		return nil
	}
	dto := &BookingDTO{
		ID:             b.ID,
		RetreatID:      b.RetreatID,
		Participants:   b.Participants,
		TotalAmount:    b.TotalAmount,
		DiscountAmount: b.DiscountAmount,
		FinalAmount:    b.FinalAmount,
		Currency:       b.Currency,
		Status:         b.Status.String(),
		PaymentStatus:  b.PaymentStatus.String(),
		CancelReason:   b.CancelReason,
		CreatedAt:      b.CreatedAt,
	}
	if b.Retreat != nil {
		dto.Retreat = &BookedRetreatDTO{
			ID:        b.Retreat.ID,
			Slug:      b.Retreat.Slug,
			Title:     b.Retreat.Title,
			Country:   b.Retreat.Country,
			City:      b.Retreat.City,
			StartDate: b.Retreat.StartDate,
			EndDate:   b.Retreat.EndDate,
		}
	}
	return dto
}
