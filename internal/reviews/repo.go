package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/pkg/db/models"
)

// Repository persists reviews and keeps the retreat rating aggregates in
// step with them.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (r *Repository) FindByUserAndRetreat(ctx context.Context, userID, retreatID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND retreat_id = ?", userID, retreatID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) ListByRetreat(ctx context.Context, retreatID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("retreat_id = ?", retreatID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// RecomputeRetreatAggregates rewrites the retreat's average_rating and
// total_reviews from the reviews table. COALESCE covers the zero-review
// case so deletes would also settle to 0/0.
func (r *Repository) RecomputeRetreatAggregates(ctx context.Context, retreatID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
UPDATE retreats SET
  average_rating = COALESCE((SELECT AVG(rating) FROM reviews WHERE retreat_id = ?), 0),
  total_reviews = (SELECT COUNT(*) FROM reviews WHERE retreat_id = ?)
WHERE id = ?`, retreatID, retreatID, retreatID).Error
}
