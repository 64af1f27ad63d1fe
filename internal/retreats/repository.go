package retreats

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	"github.com/okarpenko/retreathub-backend/pkg/pagination"
)

// Repository wires together retreat persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

type listQuery struct {
	Filters    ListFilters
	Sort       enums.RetreatSort
	Order      enums.SortOrder
	Pagination pagination.Params
}

// List runs the page query and the count query under the same predicate and
// returns rows plus the total matching count.
func (r *Repository) List(ctx context.Context, query listQuery) ([]models.Retreat, int64, error) {
	params := pagination.Normalize(query.Pagination)

	countQ := query.Filters.apply(r.db.WithContext(ctx).Model(&models.Retreat{}))
	if query.Filters.hasCategoryJoin() {
		countQ = countQ.Distinct("retreats.id")
	}
	var total int64
	if err := countQ.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageQ := query.Filters.apply(r.db.WithContext(ctx).Model(&models.Retreat{}))
	if query.Filters.hasCategoryJoin() {
		pageQ = pageQ.Distinct("retreats.*")
	}

	direction := "DESC"
	if query.Order == enums.SortOrderAsc {
		direction = "ASC"
	}
	pageQ = pageQ.
		Order(fmt.Sprintf("%s %s", query.Sort.Column(), direction)).
		Order("retreats.id DESC"). // deterministic tiebreak
		Limit(params.Limit).
		Offset(params.Offset())

	var rows []models.Retreat
	if err := pageQ.Preload("Categories").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindByID loads the retreat without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Retreat, error) {
	var retreat models.Retreat
	if err := r.db.WithContext(ctx).First(&retreat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &retreat, nil
}

// FindDetail loads a retreat by id or slug with categories, reviews, and the organizer.
func (r *Repository) FindDetail(ctx context.Context, idOrSlug string) (*models.Retreat, error) {
	qb := r.db.WithContext(ctx).
		Preload("Categories").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Reviews.User").
		Preload("Organizer")

	var retreat models.Retreat
	var err error
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		err = qb.First(&retreat, "retreats.id = ?", id).Error
	} else {
		err = qb.First(&retreat, "retreats.slug = ?", idOrSlug).Error
	}
	if err != nil {
		return nil, err
	}
	return &retreat, nil
}

// IncrementViewCount bumps the view counter without touching updated_at.
func (r *Repository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Retreat{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).
		Error
}

// Create inserts a new retreat row.
func (r *Repository) Create(ctx context.Context, retreat *models.Retreat) (*models.Retreat, error) {
	if err := r.db.WithContext(ctx).Create(retreat).Error; err != nil {
		return nil, err
	}
	return retreat, nil
}

// Update persists the full retreat row.
func (r *Repository) Update(ctx context.Context, retreat *models.Retreat) (*models.Retreat, error) {
	if err := r.db.WithContext(ctx).Save(retreat).Error; err != nil {
		return nil, err
	}
	return retreat, nil
}

// SoftDelete hides the retreat from all listing queries.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Retreat{}).
		Where("id = ?", id).
		Update("is_active", false).
		Error
}

// ReplaceCategories replaces the junction rows for the retreat.
func (r *Repository) ReplaceCategories(ctx context.Context, retreatID uuid.UUID, categoryIDs []uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("retreat_id = ?", retreatID).Delete(&models.RetreatCategory{}).Error; err != nil {
		return err
	}
	if len(categoryIDs) == 0 {
		return nil
	}
	rows := make([]models.RetreatCategory, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		rows = append(rows, models.RetreatCategory{RetreatID: retreatID, CategoryID: categoryID})
	}
	return tx.Create(&rows).Error
}

// ListByOrganizer lists the retreats owned by an organizer, newest first.
func (r *Repository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Retreat, error) {
	var rows []models.Retreat
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Where("organizer_id = ?", organizerID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// SetFlag flips one of the moderation booleans (is_verified, is_featured).
func (r *Repository) SetFlag(ctx context.Context, id uuid.UUID, column string, value bool) error {
	switch column {
	case "is_verified", "is_featured":
	default:
		return fmt.Errorf("unsupported flag column %q", column)
	}
	return r.db.WithContext(ctx).
		Model(&models.Retreat{}).
		Where("id = ?", id).
		Update(column, value).
		Error
}
