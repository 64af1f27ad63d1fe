package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/internal/retreats"
	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
)

// Service exposes business rules for the saved-retreats list.
type Service interface {
	Add(ctx context.Context, userID, retreatID uuid.UUID) (*WishlistItemDTO, error)
	Remove(ctx context.Context, userID, retreatID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]WishlistItemDTO, error)
}

// WishlistItemDTO is the API shape of one saved retreat.
type WishlistItemDTO struct {
	ID        uuid.UUID        `json:"id"`
	RetreatID uuid.UUID        `json:"retreatId"`
	Retreat   *SavedRetreatDTO `json:"retreat,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// SavedRetreatDTO is the retreat summary embedded in a wishlist row.
type SavedRetreatDTO struct {
	Slug      string          `json:"slug"`
	Title     string          `json:"title"`
	Country   string          `json:"country"`
	City      string          `json:"city"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	StartDate time.Time       `json:"startDate"`
	IsActive  bool            `json:"isActive"`
}

func fromModel(item *models.WishlistItem) *WishlistItemDTO {
	dto := &WishlistItemDTO{
		ID:        item.ID,
		RetreatID: item.RetreatID,
		CreatedAt: item.CreatedAt,
	}
	if item.Retreat != nil {
		dto.Retreat = &SavedRetreatDTO{
			Slug:      item.Retreat.Slug,
			Title:     item.Retreat.Title,
			Country:   item.Retreat.Country,
			City:      item.Retreat.City,
			Price:     item.Retreat.Price,
			Currency:  item.Retreat.Currency,
			StartDate: item.Retreat.StartDate,
			IsActive:  item.Retreat.IsActive,
		}
	}
	return dto
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repo     *Repository
	Retreats *retreats.Repository
}

type service struct {
	repo     *Repository
	retreats *retreats.Repository
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if params.Retreats == nil {
		return nil, fmt.Errorf("retreats repository required")
	}
	return &service{repo: params.Repo, retreats: params.Retreats}, nil
}

func (s *service) Add(ctx context.Context, userID, retreatID uuid.UUID) (*WishlistItemDTO, error) {
	retreat, err := s.retreats.FindByID(ctx, retreatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retreat not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load retreat")
	}
	if !retreat.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retreat not found")
	}

	exists, err := s.repo.Exists(ctx, userID, retreatID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check wishlist")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "retreat already saved")
	}

	item := &models.WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		RetreatID: retreatID,
		Retreat:   retreat,
	}
	if _, err := s.repo.Create(ctx, item); err != nil {
		if pkgerrors.IsUniqueViolation(err, "idx_wishlist_user_retreat") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "retreat already saved")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save retreat")
	}
	return fromModel(item), nil
}

func (s *service) Remove(ctx context.Context, userID, retreatID uuid.UUID) error {
	removed, err := s.repo.Remove(ctx, userID, retreatID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove saved retreat")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "retreat not in wishlist")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]WishlistItemDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	out := make([]WishlistItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i]))
	}
	return out, nil
}
