package retreats

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/pkg/enums"
)

// ListFilters is the full public search surface for the retreat listing.
// Every field is optional; controllers build it with lenient parsing so a
// malformed value widens the result set instead of failing the request.
type ListFilters struct {
	Search       *string
	Country      *string
	City         *string
	Difficulties []enums.Difficulty
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	StartDate    *time.Time
	EndDate      *time.Time
	MinDuration  *int
	MaxDuration  *int
	MinAge       *int
	MaxAge       *int
	CategoryIDs  []uuid.UUID
}

func (f ListFilters) hasCategoryJoin() bool {
	return len(f.CategoryIDs) > 0
}

func (f ListFilters) hasOrganizerJoin() bool {
	return f.Search != nil && strings.TrimSpace(*f.Search) != ""
}

// apply composes the WHERE clause onto qb. The same function feeds both the
// page query and the count query so the two can never drift apart.
func (f ListFilters) apply(qb *gorm.DB) *gorm.DB {
	qb = qb.Where("retreats.is_active = ?", true)

	if f.hasOrganizerJoin() {
		pattern := "%" + strings.ToLower(strings.TrimSpace(*f.Search)) + "%"
		qb = qb.Joins("JOIN users organizer ON organizer.id = retreats.organizer_id").
			Where(
				"(LOWER(retreats.title) LIKE ? OR LOWER(retreats.description) LIKE ? OR LOWER(retreats.location) LIKE ? OR LOWER(retreats.city) LIKE ? OR LOWER(retreats.country) LIKE ? OR LOWER(organizer.first_name || ' ' || organizer.last_name) LIKE ?)",
				pattern, pattern, pattern, pattern, pattern, pattern,
			)
	}

	if f.Country != nil {
		qb = qb.Where("retreats.country = ?", *f.Country)
	}
	if f.City != nil {
		qb = qb.Where("retreats.city = ?", *f.City)
	}
	if len(f.Difficulties) > 0 {
		qb = qb.Where("retreats.difficulty IN ?", f.Difficulties)
	}
	if f.MinPrice != nil {
		qb = qb.Where("retreats.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		qb = qb.Where("retreats.price <= ?", *f.MaxPrice)
	}
	if f.StartDate != nil {
		qb = qb.Where("retreats.start_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		qb = qb.Where("retreats.end_date <= ?", *f.EndDate)
	}
	if f.MinDuration != nil {
		qb = qb.Where("retreats.duration_days >= ?", *f.MinDuration)
	}
	if f.MaxDuration != nil {
		qb = qb.Where("retreats.duration_days <= ?", *f.MaxDuration)
	}

	// NULL stored age limits mean "no restriction", so they match any bound.
	if f.MinAge != nil {
		qb = qb.Where("(retreats.min_age IS NULL OR retreats.min_age >= ?)", *f.MinAge)
	}
	if f.MaxAge != nil {
		qb = qb.Where("(retreats.max_age IS NULL OR retreats.max_age <= ?)", *f.MaxAge)
	}

	if f.hasCategoryJoin() {
		qb = qb.Joins("JOIN retreat_categories rc ON rc.retreat_id = retreats.id").
			Where("rc.category_id IN ?", f.CategoryIDs)
	}

	return qb
}

// Echo returns the filter set in the shape echoed back on list responses.
func (f ListFilters) Echo(sort enums.RetreatSort, order enums.SortOrder) map[string]any {
	echo := map[string]any{
		"sortBy":    sort.String(),
		"sortOrder": string(order),
	}
	if f.Search != nil {
		echo["search"] = *f.Search
	}
	if f.Country != nil {
		echo["country"] = *f.Country
	}
	if f.City != nil {
		echo["city"] = *f.City
	}
	if len(f.Difficulties) > 0 {
		echo["difficulty"] = f.Difficulties
	}
	if f.MinPrice != nil {
		echo["minPrice"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		echo["maxPrice"] = *f.MaxPrice
	}
	if f.StartDate != nil {
		echo["startDate"] = f.StartDate.Format(time.RFC3339)
	}
	if f.EndDate != nil {
		echo["endDate"] = f.EndDate.Format(time.RFC3339)
	}
	if f.MinDuration != nil {
		echo["minDuration"] = *f.MinDuration
	}
	if f.MaxDuration != nil {
		echo["maxDuration"] = *f.MaxDuration
	}
	if f.MinAge != nil {
		echo["minAge"] = *f.MinAge
	}
	if f.MaxAge != nil {
		echo["maxAge"] = *f.MaxAge
	}
	if len(f.CategoryIDs) > 0 {
		echo["categories"] = f.CategoryIDs
	}
	return echo
}
