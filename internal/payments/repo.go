package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
)

// Repository exposes payment persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a payments repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a payment row.
func (r *Repository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

// FindByID loads a payment with its booking.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Preload("Booking").First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByOrderReference resolves a payment from its provider order reference.
func (r *Repository) FindByOrderReference(ctx context.Context, orderReference string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Booking").
		First(&payment, "order_reference = ?", orderReference).
		Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByBooking lists the payment attempts against a booking, newest first.
func (r *Repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// MarkCompleted moves a pending payment to completed, recording the provider
// transaction id, the paid timestamp, and the verified raw payload. The
// status guard makes replayed callbacks no-ops.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, transactionID *string, rawPayload string, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Updates(map[string]any{
			"status":         enums.PaymentStatusCompleted,
			"transaction_id": transactionID,
			"raw_payload":    rawPayload,
			"paid_at":        paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkFailed moves a pending payment to failed, keeping the raw payload.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, rawPayload string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Updates(map[string]any{
			"status":      enums.PaymentStatusFailed,
			"raw_payload": rawPayload,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkRefundRequested flags a completed payment while a refund is pending.
func (r *Repository) MarkRefundRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusCompleted).
		Update("status", enums.PaymentStatusRefundRequested)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkRefunded settles a refund-requested payment after the request is
// processed.
func (r *Repository) MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusRefundRequested).
		Update("status", enums.PaymentStatusRefunded)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RestoreCompleted returns a refund-requested payment to completed after the
// request is denied, so the participant can file a new one.
func (r *Repository) RestoreCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusRefundRequested).
		Update("status", enums.PaymentStatusCompleted)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
