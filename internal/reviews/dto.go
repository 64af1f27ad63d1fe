package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/okarpenko/retreathub-backend/pkg/db/models"
)

// CreateReviewInput is the request body for posting a review.
type CreateReviewInput struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// ReviewDTO is the API shape of a review.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	RetreatID uuid.UUID `json:"retreatId"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromModel maps a stored review onto the API shape.
func FromModel(review *models.Review) *ReviewDTO {
	if review == nil {
		return nil
	}
	dto := &ReviewDTO{
		ID:        review.ID,
		RetreatID: review.RetreatID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}
	if review.User != nil {
		dto.Author = review.User.FullName()
	}
	return dto
}
