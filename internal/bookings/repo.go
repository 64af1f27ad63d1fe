package bookings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
)

// Repository exposes booking persistence plus the retreat capacity counters
// that move with bookings.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a bookings repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a booking row.
func (r *Repository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

// FindByID loads a booking with its retreat.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Preload("Retreat").First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListByUser lists a participant's bookings, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Retreat").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListByRetreat lists all bookings against one retreat, newest first.
func (r *Repository) ListByRetreat(ctx context.Context, retreatID uuid.UUID) ([]models.Booking, error) {
	var rows []models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("retreat_id = ?", retreatID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ReserveCapacity claims seats with one conditional UPDATE. It returns false
// without touching state when the retreat is missing, inactive, or the seats
// would overflow max_participants.
func (r *Repository) ReserveCapacity(ctx context.Context, retreatID uuid.UUID, seats int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Retreat{}).
		Where("id = ? AND is_active = ? AND current_participants + ? <= max_participants", retreatID, true, seats).
		UpdateColumn("current_participants", gorm.Expr("current_participants + ?", seats))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReleaseCapacity returns seats, flooring the counter at zero.
func (r *Repository) ReleaseCapacity(ctx context.Context, retreatID uuid.UUID, seats int) error {
	return r.db.WithContext(ctx).
		Model(&models.Retreat{}).
		Where("id = ?", retreatID).
		UpdateColumn("current_participants", gorm.Expr(
			"CASE WHEN current_participants >= ? THEN current_participants - ? ELSE 0 END", seats, seats,
		)).
		Error
}

// Cancel flips a pending or confirmed booking to cancelled. The status guard
// makes the transition race-safe; zero rows means the booking was already
// terminal (or not found).
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID, reason *string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status IN ?", id, []enums.BookingStatus{
			enums.BookingStatusPending,
			enums.BookingStatusConfirmed,
		}).
		Updates(map[string]any{
			"status":        enums.BookingStatusCancelled,
			"cancel_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ConfirmPaid moves a pending booking to confirmed/paid. Guarded on the prior
// status so a replayed payment callback is a no-op.
func (r *Repository) ConfirmPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, enums.BookingStatusPending).
		Updates(map[string]any{
			"status":         enums.BookingStatusConfirmed,
			"payment_status": enums.BookingPaymentPaid,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkPaymentFailed records a failed attempt on a still-pending booking. The
// booking itself stays pending so the participant can retry.
func (r *Repository) MarkPaymentFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, enums.BookingStatusPending).
		Update("payment_status", enums.BookingPaymentFailed).
		Error
}

// MarkRefunded moves a confirmed or completed booking into the refunded
// terminal state on both axes.
func (r *Repository) MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status IN ?", id, []enums.BookingStatus{
			enums.BookingStatusConfirmed,
			enums.BookingStatusCompleted,
		}).
		Updates(map[string]any{
			"status":         enums.BookingStatusRefunded,
			"payment_status": enums.BookingPaymentRefunded,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasAttendedRetreat reports whether the user holds a confirmed or completed
// booking for the retreat. Review eligibility hangs off this check.
func (r *Repository) HasAttendedRetreat(ctx context.Context, userID, retreatID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("user_id = ? AND retreat_id = ? AND status IN ?", userID, retreatID,
			[]enums.BookingStatus{enums.BookingStatusConfirmed, enums.BookingStatusCompleted}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindRetreat loads the retreat a booking targets.
func (r *Repository) FindRetreat(ctx context.Context, id uuid.UUID) (*models.Retreat, error) {
	var retreat models.Retreat
	if err := r.db.WithContext(ctx).First(&retreat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &retreat, nil
}
