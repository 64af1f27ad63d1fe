package retreats

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/pkg/db"
	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
	"github.com/okarpenko/retreathub-backend/pkg/pagination"
)

// Service exposes the retreat search and organizer catalog operations.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListOutput, error)
	GetDetail(ctx context.Context, idOrSlug string) (*RetreatDetailDTO, error)
	Create(ctx context.Context, organizerID uuid.UUID, input CreateRetreatInput) (*RetreatDetailDTO, error)
	Update(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, retreatID uuid.UUID, input UpdateRetreatInput) (*RetreatDetailDTO, error)
	Delete(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, retreatID uuid.UUID) error
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]RetreatSummaryDTO, error)
	SetVerified(ctx context.Context, retreatID uuid.UUID, verified bool) error
	SetFeatured(ctx context.Context, retreatID uuid.UUID, featured bool) error
}

// ListInput carries the raw listing parameters after lenient parsing.
type ListInput struct {
	Filters    ListFilters
	SortBy     string
	SortOrder  string
	Pagination pagination.Params
}

// ListOutput is the assembled listing response body.
type ListOutput struct {
	Retreats   []RetreatSummaryDTO
	Pagination pagination.Meta
	Filters    map[string]any
}

// CreateRetreatInput holds the validated payload to create a retreat.
type CreateRetreatInput struct {
	Title           string
	Description     string
	Country         string
	City            string
	Location        string
	Price           decimal.Decimal
	OriginalPrice   *decimal.Decimal
	Currency        string
	MaxParticipants int
	StartDate       time.Time
	EndDate         time.Time
	BookingDeadline *time.Time
	Difficulty      enums.Difficulty
	YogaStyles      []string
	MinAge          *int
	MaxAge          *int
	CategoryIDs     []uuid.UUID
}

// UpdateRetreatInput holds optional mutation values for a retreat.
type UpdateRetreatInput struct {
	Title           *string
	Description     *string
	Country         *string
	City            *string
	Location        *string
	Price           *decimal.Decimal
	OriginalPrice   *decimal.Decimal
	Currency        *string
	MaxParticipants *int
	StartDate       *time.Time
	EndDate         *time.Time
	BookingDeadline *time.Time
	Difficulty      *enums.Difficulty
	YogaStyles      *[]string
	MinAge          *int
	MaxAge          *int
	CategoryIDs     *[]uuid.UUID
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	logg     *logger.Logger
}

// NewService constructs a retreat service instance.
func NewService(repo *Repository, dbClient *db.Client, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("retreat repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient, logg: logg}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	sort := enums.ParseRetreatSort(input.SortBy)
	order := enums.ParseSortOrder(input.SortOrder)
	params := pagination.Normalize(input.Pagination)

	rows, total, err := s.repo.List(ctx, listQuery{
		Filters:    input.Filters,
		Sort:       sort,
		Order:      order,
		Pagination: params,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list retreats")
	}

	summaries := make([]RetreatSummaryDTO, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, NewRetreatSummaryDTO(&rows[i]))
	}

	return &ListOutput{
		Retreats:   summaries,
		Pagination: pagination.MetaFor(params, total),
		Filters:    input.Filters.Echo(sort, order),
	}, nil
}

func (s *service) GetDetail(ctx context.Context, idOrSlug string) (*RetreatDetailDTO, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retreat identifier required")
	}

	retreat, err := s.repo.FindDetail(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retreat not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load retreat")
	}
	if !retreat.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retreat not found")
	}

	// Best effort; a failed counter bump never fails the read.
	if err := s.repo.IncrementViewCount(ctx, retreat.ID); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "retreat_id", retreat.ID.String()), "retreat.view_count.increment_failed")
	}

	return NewRetreatDetailDTO(retreat), nil
}

func (s *service) Create(ctx context.Context, organizerID uuid.UUID, input CreateRetreatInput) (*RetreatDetailDTO, error) {
	if err := validateSchedule(input.StartDate, input.EndDate, input.BookingDeadline); err != nil {
		return nil, err
	}
	if input.MaxParticipants <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "maxParticipants must be positive")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Difficulty != "" && !input.Difficulty.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown difficulty")
	}
	if err := validateAgeBounds(input.MinAge, input.MaxAge); err != nil {
		return nil, err
	}

	difficulty := input.Difficulty
	if difficulty == "" {
		difficulty = enums.DifficultyAllLevels
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "UAH"
	}

	retreat := &models.Retreat{
		ID:              uuid.New(),
		OrganizerID:     organizerID,
		Slug:            buildSlug(input.Title),
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Country:         strings.TrimSpace(input.Country),
		City:            strings.TrimSpace(input.City),
		Location:        strings.TrimSpace(input.Location),
		Price:           input.Price,
		OriginalPrice:   input.OriginalPrice,
		Currency:        currency,
		DurationDays:    durationDays(input.StartDate, input.EndDate),
		MaxParticipants: input.MaxParticipants,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		BookingDeadline: input.BookingDeadline,
		Difficulty:      difficulty,
		YogaStyles:      input.YogaStyles,
		MinAge:          input.MinAge,
		MaxAge:          input.MaxAge,
		IsActive:        true,
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, retreat); err != nil {
			if pkgerrors.IsUniqueViolation(err, "idx_retreats_slug") {
				return pkgerrors.New(pkgerrors.CodeConflict, "retreat slug already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert retreat")
		}
		if len(input.CategoryIDs) > 0 {
			if err := repo.ReplaceCategories(ctx, retreat.ID, input.CategoryIDs); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach categories")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadDetail(ctx, retreat.ID)
}

func (s *service) Update(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, retreatID uuid.UUID, input UpdateRetreatInput) (*RetreatDetailDTO, error) {
	retreat, err := s.repo.FindByID(ctx, retreatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retreat not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load retreat")
	}
	if retreat.OrganizerID != actorID && actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the retreat owner")
	}

	applyUpdate(retreat, input)

	if err := validateSchedule(retreat.StartDate, retreat.EndDate, retreat.BookingDeadline); err != nil {
		return nil, err
	}
	if retreat.MaxParticipants < retreat.CurrentParticipants {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "maxParticipants below current bookings")
	}
	if retreat.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if !retreat.Difficulty.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown difficulty")
	}
	if err := validateAgeBounds(retreat.MinAge, retreat.MaxAge); err != nil {
		return nil, err
	}
	retreat.DurationDays = durationDays(retreat.StartDate, retreat.EndDate)

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Update(ctx, retreat); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update retreat")
		}
		if input.CategoryIDs != nil {
			if err := repo.ReplaceCategories(ctx, retreat.ID, *input.CategoryIDs); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace categories")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadDetail(ctx, retreat.ID)
}

func (s *service) Delete(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, retreatID uuid.UUID) error {
	retreat, err := s.repo.FindByID(ctx, retreatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "retreat not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load retreat")
	}
	if retreat.OrganizerID != actorID && actorRole != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not the retreat owner")
	}
	if err := s.repo.SoftDelete(ctx, retreatID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate retreat")
	}
	return nil
}

func (s *service) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]RetreatSummaryDTO, error) {
	rows, err := s.repo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list organizer retreats")
	}
	summaries := make([]RetreatSummaryDTO, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, NewRetreatSummaryDTO(&rows[i]))
	}
	return summaries, nil
}

func (s *service) SetVerified(ctx context.Context, retreatID uuid.UUID, verified bool) error {
	return s.setFlag(ctx, retreatID, "is_verified", verified)
}

func (s *service) SetFeatured(ctx context.Context, retreatID uuid.UUID, featured bool) error {
	return s.setFlag(ctx, retreatID, "is_featured", featured)
}

func (s *service) setFlag(ctx context.Context, retreatID uuid.UUID, column string, value bool) error {
	if _, err := s.repo.FindByID(ctx, retreatID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "retreat not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load retreat")
	}
	if err := s.repo.SetFlag(ctx, retreatID, column, value); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update retreat flag")
	}
	return nil
}

func (s *service) loadDetail(ctx context.Context, id uuid.UUID) (*RetreatDetailDTO, error) {
	retreat, err := s.repo.FindDetail(ctx, id.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload retreat")
	}
	return NewRetreatDetailDTO(retreat), nil
}

func applyUpdate(retreat *models.Retreat, input UpdateRetreatInput) {
	if input.Title != nil {
		retreat.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		retreat.Description = strings.TrimSpace(*input.Description)
	}
	if input.Country != nil {
		retreat.Country = strings.TrimSpace(*input.Country)
	}
	if input.City != nil {
		retreat.City = strings.TrimSpace(*input.City)
	}
	if input.Location != nil {
		retreat.Location = strings.TrimSpace(*input.Location)
	}
	if input.Price != nil {
		retreat.Price = *input.Price
	}
	if input.OriginalPrice != nil {
		retreat.OriginalPrice = input.OriginalPrice
	}
	if input.Currency != nil {
		retreat.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}
	if input.MaxParticipants != nil {
		retreat.MaxParticipants = *input.MaxParticipants
	}
	if input.StartDate != nil {
		retreat.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		retreat.EndDate = *input.EndDate
	}
	if input.BookingDeadline != nil {
		retreat.BookingDeadline = input.BookingDeadline
	}
	if input.Difficulty != nil {
		retreat.Difficulty = *input.Difficulty
	}
	if input.YogaStyles != nil {
		retreat.YogaStyles = *input.YogaStyles
	}
	if input.MinAge != nil {
		retreat.MinAge = input.MinAge
	}
	if input.MaxAge != nil {
		retreat.MaxAge = input.MaxAge
	}
}

func validateSchedule(start, end time.Time, deadline *time.Time) error {
	if start.IsZero() || end.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "startDate and endDate are required")
	}
	if !start.Before(end) {
		return pkgerrors.New(pkgerrors.CodeValidation, "startDate must precede endDate")
	}
	if deadline != nil && deadline.After(start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "bookingDeadline must not be after startDate")
	}
	return nil
}

func validateAgeBounds(minAge, maxAge *int) error {
	if minAge != nil && *minAge < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "minAge cannot be negative")
	}
	if minAge != nil && maxAge != nil && *minAge > *maxAge {
		return pkgerrors.New(pkgerrors.CodeValidation, "minAge cannot exceed maxAge")
	}
	return nil
}

func durationDays(start, end time.Time) int {
	days := int(end.Sub(start).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

var slugInvalidRe = regexp.MustCompile(`[^a-z0-9]+`)

func buildSlug(title string) string {
	base := strings.ToLower(strings.TrimSpace(title))
	base = slugInvalidRe.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "retreat"
	}
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return base + "-" + suffix
}
