package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a participant rating of a retreat. The retreat's aggregate
// rating fields are recomputed from reviews on every write.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RetreatID uuid.UUID `gorm:"column:retreat_id;type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null"`

	Rating  int     `gorm:"column:rating;not null"`
	Comment *string `gorm:"column:comment"`

	User *User `gorm:"foreignKey:UserID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
