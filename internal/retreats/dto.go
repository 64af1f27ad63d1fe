package retreats

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okarpenko/retreathub-backend/pkg/db/models"
)

// RetreatSummaryDTO is the listing row returned by the search surface.
type RetreatSummaryDTO struct {
	ID              uuid.UUID        `json:"id"`
	Slug            string           `json:"slug"`
	Title           string           `json:"title"`
	Country         string           `json:"country"`
	City            string           `json:"city"`
	Location        string           `json:"location"`
	Price           decimal.Decimal  `json:"price"`
	OriginalPrice   *decimal.Decimal `json:"original_price,omitempty"`
	Currency        string           `json:"currency"`
	DurationDays    int              `json:"duration_days"`
	MaxParticipants int              `json:"max_participants"`
	SpotsLeft       int              `json:"spots_left"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	Difficulty      string           `json:"difficulty"`
	YogaStyles      []string         `json:"yoga_styles"`
	IsFeatured      bool             `json:"is_featured"`
	IsVerified      bool             `json:"is_verified"`
	AverageRating   float64          `json:"average_rating"`
	TotalReviews    int              `json:"total_reviews"`
	Categories      []CategoryDTO    `json:"categories"`
	CreatedAt       time.Time        `json:"created_at"`
}

// RetreatDetailDTO adds the long-form fields and relations to the summary.
type RetreatDetailDTO struct {
	RetreatSummaryDTO
	Description     string               `json:"description"`
	BookingDeadline *time.Time           `json:"booking_deadline,omitempty"`
	MinAge          *int                 `json:"min_age,omitempty"`
	MaxAge          *int                 `json:"max_age,omitempty"`
	ViewCount       int64                `json:"view_count"`
	Organizer       *OrganizerSummaryDTO `json:"organizer,omitempty"`
	Reviews         []ReviewDTO          `json:"reviews"`
}

// CategoryDTO surfaces category rows attached to a retreat.
type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// OrganizerSummaryDTO surfaces limited organizer data on public pages.
type OrganizerSummaryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ReviewDTO is a public review entry on the retreat detail page.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment,omitempty"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListResult is the paginated outcome of the listing query.
type ListResult struct {
	Retreats []RetreatSummaryDTO
	Total    int64
}

// NewRetreatSummaryDTO maps the persisted model into the listing shape.
func NewRetreatSummaryDTO(retreat *models.Retreat) RetreatSummaryDTO {
	categories := make([]CategoryDTO, 0, len(retreat.Categories))
	for _, category := range retreat.Categories {
		categories = append(categories, CategoryDTO{
			ID:   category.ID,
			Name: category.Name,
			Slug: category.Slug,
		})
	}
	return RetreatSummaryDTO{
		ID:              retreat.ID,
		Slug:            retreat.Slug,
		Title:           retreat.Title,
		Country:         retreat.Country,
		City:            retreat.City,
		Location:        retreat.Location,
		Price:           retreat.Price,
		OriginalPrice:   retreat.OriginalPrice,
		Currency:        retreat.Currency,
		DurationDays:    retreat.DurationDays,
		MaxParticipants: retreat.MaxParticipants,
		SpotsLeft:       retreat.SpotsLeft(),
		StartDate:       retreat.StartDate,
		EndDate:         retreat.EndDate,
		Difficulty:      retreat.Difficulty.String(),
		YogaStyles:      append([]string{}, retreat.YogaStyles...),
		IsFeatured:      retreat.IsFeatured,
		IsVerified:      retreat.IsVerified,
		AverageRating:   retreat.AverageRating,
		TotalReviews:    retreat.TotalReviews,
		Categories:      categories,
		CreatedAt:       retreat.CreatedAt,
	}
}

// NewRetreatDetailDTO maps the fully preloaded model into the detail shape.
func NewRetreatDetailDTO(retreat *models.Retreat) *RetreatDetailDTO {
	dto := &RetreatDetailDTO{
		RetreatSummaryDTO: NewRetreatSummaryDTO(retreat),
		Description:       retreat.Description,
		BookingDeadline:   retreat.BookingDeadline,
		MinAge:            retreat.MinAge,
		MaxAge:            retreat.MaxAge,
		ViewCount:         retreat.ViewCount,
		Reviews:           make([]ReviewDTO, 0, len(retreat.Reviews)),
	}
	if retreat.Organizer != nil {
		dto.Organizer = &OrganizerSummaryDTO{
			ID:   retreat.Organizer.ID,
			Name: retreat.Organizer.FullName(),
		}
	}
	for _, review := range retreat.Reviews {
		entry := ReviewDTO{
			ID:        review.ID,
			Rating:    review.Rating,
			Comment:   review.Comment,
			CreatedAt: review.CreatedAt,
		}
		if review.User != nil {
			entry.AuthorName = review.User.FullName()
		}
		dto.Reviews = append(dto.Reviews, entry)
	}
	return dto
}
