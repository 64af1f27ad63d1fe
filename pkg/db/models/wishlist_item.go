package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem marks a retreat a participant saved for later. One row per
// (user, retreat) pair, enforced by a unique index.
type WishlistItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_wishlist_user_retreat"`
	RetreatID uuid.UUID `gorm:"column:retreat_id;type:uuid;not null;uniqueIndex:idx_wishlist_user_retreat"`

	Retreat *Retreat `gorm:"foreignKey:RetreatID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
