package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/internal/bookings"
	"github.com/okarpenko/retreathub-backend/internal/retreats"
	"github.com/okarpenko/retreathub-backend/pkg/db"
	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
)

// Service lets participants review retreats they attended and keeps the
// retreat rating aggregates derived from the reviews table.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, retreatID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error)
	ListForRetreat(ctx context.Context, retreatID uuid.UUID) ([]ReviewDTO, error)
}

type service struct {
	repo     *Repository
	bookings *bookings.Repository
	retreats *retreats.Repository
	dbClient *db.Client
	logg     *logger.Logger
}

// ServiceParams bundles the review service dependencies.
type ServiceParams struct {
	Repo     *Repository
	Bookings *bookings.Repository
	Retreats *retreats.Repository
	DB       *db.Client
	Logger   *logger.Logger
}

// NewService constructs a reviews service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if params.Retreats == nil {
		return nil, fmt.Errorf("retreats repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		repo:     params.Repo,
		bookings: params.Bookings,
		retreats: params.Retreats,
		dbClient: params.DB,
		logg:     params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, retreatID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

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

	attended, err := s.bookings.HasAttendedRetreat(ctx, userID, retreatID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check booking history")
	}
	if !attended {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only booked participants can review")
	}

	if _, err := s.repo.FindByUserAndRetreat(ctx, userID, retreatID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "retreat already reviewed")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
	}

	review := &models.Review{
		ID:        uuid.New(),
		RetreatID: retreatID,
		UserID:    userID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, review); err != nil {
			if pkgerrors.IsUniqueViolation(err, "idx_reviews_user_retreat") {
				return pkgerrors.New(pkgerrors.CodeConflict, "retreat already reviewed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert review")
		}
		if err := repo.RecomputeRetreatAggregates(ctx, retreatID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute rating")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"review_id":  review.ID.String(),
			"retreat_id": retreatID.String(),
			"rating":     input.Rating,
		}), "review.created")
	}
	return FromModel(review), nil
}

func (s *service) ListForRetreat(ctx context.Context, retreatID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := s.repo.ListByRetreat(ctx, retreatID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}
