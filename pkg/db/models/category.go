package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups retreats for discovery (e.g. yoga, meditation, detox).
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// RetreatCategory is the many-to-many junction between retreats and
// categories. No lifecycle of its own beyond cascade guards.
type RetreatCategory struct {
	RetreatID  uuid.UUID `gorm:"column:retreat_id;type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;primaryKey"`
}

// TableName pins the junction table name gorm derives for the many2many.
func (RetreatCategory) TableName() string {
	return "retreat_categories"
}
