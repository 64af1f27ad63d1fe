package categories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
)

// CategoryDTO is the public category shape.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
}

// Service lists the public category catalog.
type Service interface {
	ListActive(ctx context.Context) ([]CategoryDTO, error)
	ValidateIDs(ctx context.Context, ids []uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService constructs a categories service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("categories repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListActive(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, CategoryDTO{
			ID:          row.ID,
			Name:        row.Name,
			Slug:        row.Slug,
			Description: row.Description,
		})
	}
	return out, nil
}

// ValidateIDs rejects requests referencing unknown or inactive categories.
func (s *service) ValidateIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := s.repo.FindActiveByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve categories")
	}
	if len(rows) != len(uniqueIDs(ids)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown category id")
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
