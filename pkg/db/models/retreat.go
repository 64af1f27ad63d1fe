package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/okarpenko/retreathub-backend/pkg/enums"
)

// Retreat is a bookable multi-day wellness program listed by an organizer.
//
// CurrentParticipants is a derived counter maintained by booking side effects
// and must stay within [0, MaxParticipants]; AverageRating and TotalReviews
// are derived from reviews and never authoritative.
type Retreat struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizerID uuid.UUID `gorm:"column:organizer_id;type:uuid;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description;not null"`

	Country  string `gorm:"column:country;not null"`
	City     string `gorm:"column:city;not null"`
	Location string `gorm:"column:location;not null"`

	Price         decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	OriginalPrice *decimal.Decimal `gorm:"column:original_price;type:numeric(12,2)"`
	Currency      string           `gorm:"column:currency;not null;default:UAH"`
	DurationDays  int              `gorm:"column:duration_days;not null"`

	MaxParticipants     int `gorm:"column:max_participants;not null"`
	CurrentParticipants int `gorm:"column:current_participants;not null;default:0"`

	StartDate       time.Time  `gorm:"column:start_date;not null"`
	EndDate         time.Time  `gorm:"column:end_date;not null"`
	BookingDeadline *time.Time `gorm:"column:booking_deadline"`

	Difficulty enums.Difficulty `gorm:"column:difficulty;not null;default:all_levels"`
	YogaStyles pq.StringArray   `gorm:"column:yoga_styles;type:text[]"`
	MinAge     *int             `gorm:"column:min_age"`
	MaxAge     *int             `gorm:"column:max_age"`

	IsActive   bool `gorm:"column:is_active;not null;default:true"`
	IsFeatured bool `gorm:"column:is_featured;not null;default:false"`
	IsVerified bool `gorm:"column:is_verified;not null;default:false"`

	ViewCount     int64   `gorm:"column:view_count;not null;default:0"`
	AverageRating float64 `gorm:"column:average_rating;type:numeric(3,2);not null;default:0"`
	TotalReviews  int     `gorm:"column:total_reviews;not null;default:0"`

	Organizer  *User      `gorm:"foreignKey:OrganizerID"`
	Categories []Category `gorm:"many2many:retreat_categories;joinForeignKey:RetreatID;joinReferences:CategoryID"`
	Reviews    []Review   `gorm:"foreignKey:RetreatID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// SpotsLeft returns the remaining bookable capacity.
func (r Retreat) SpotsLeft() int {
	left := r.MaxParticipants - r.CurrentParticipants
	if left < 0 {
		return 0
	}
	return left
}
