package refunds

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
)

// Repository exposes refund request persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a refunds repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a refund request row.
func (r *Repository) Create(ctx context.Context, request *models.RefundRequest) (*models.RefundRequest, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

// FindByID loads a refund request with its payment and booking.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RefundRequest, error) {
	var request models.RefundRequest
	err := r.db.WithContext(ctx).
		Preload("Payment").
		Preload("Booking").
		Preload("Booking.Retreat").
		First(&request, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FindPendingByPayment returns the open request for a payment, if any.
func (r *Repository) FindPendingByPayment(ctx context.Context, paymentID uuid.UUID) (*models.RefundRequest, error) {
	var request models.RefundRequest
	err := r.db.WithContext(ctx).
		Where("payment_id = ? AND status = ?", paymentID, enums.RefundRequestStatusPending).
		First(&request).
		Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Decide flips a pending request to its final status. The status guard keeps
// a racing double-decision from applying twice.
func (r *Repository) Decide(ctx context.Context, id uuid.UUID, status enums.RefundRequestStatus, decidedBy uuid.UUID, decidedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RefundRequest{}).
		Where("id = ? AND status = ?", id, enums.RefundRequestStatusPending).
		Updates(map[string]any{
			"status":     status,
			"decided_by": decidedBy,
			"decided_at": decidedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListPendingForOrganizer lists open requests against the organizer's retreats.
func (r *Repository) ListPendingForOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.RefundRequest, error) {
	var rows []models.RefundRequest
	err := r.db.WithContext(ctx).
		Preload("Booking").
		Joins("JOIN bookings ON bookings.id = refund_requests.booking_id").
		Joins("JOIN retreats ON retreats.id = bookings.retreat_id").
		Where("retreats.organizer_id = ? AND refund_requests.status = ?", organizerID, enums.RefundRequestStatusPending).
		Order("refund_requests.created_at ASC").
		Find(&rows).
		Error
	return rows, err
}
