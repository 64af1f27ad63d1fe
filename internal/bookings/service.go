package bookings

import (
	"context"
	"errors"
	"fmt"
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
)

// Service drives the booking lifecycle: creation with atomic seat
// reservation, listing, and participant cancellation.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateBookingInput) (*BookingDTO, error)
	ListOwn(ctx context.Context, userID uuid.UUID) ([]BookingDTO, error)
	Cancel(ctx context.Context, userID uuid.UUID, bookingID uuid.UUID, reason *string) (*BookingDTO, error)
	ListForRetreat(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, retreatID uuid.UUID) ([]BookingDTO, error)
}

// CreateBookingInput is the validated create payload.
type CreateBookingInput struct {
	RetreatID      uuid.UUID
	Participants   int
	DiscountAmount decimal.Decimal
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	logg     *logger.Logger
}

// NewService constructs a bookings service.
func NewService(repo *Repository, dbClient *db.Client, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateBookingInput) (*BookingDTO, error) {
	if input.Participants < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "participants must be at least 1")
	}
	if input.DiscountAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discountAmount cannot be negative")
	}

	retreat, err := s.repo.FindRetreat(ctx, input.RetreatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retreat not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load retreat")
	}
	if !retreat.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retreat not found")
	}

	now := time.Now().UTC()
	deadline := retreat.StartDate
	if retreat.BookingDeadline != nil {
		deadline = *retreat.BookingDeadline
	}
	if now.After(deadline) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking deadline has passed")
	}

	total := retreat.Price.Mul(decimal.NewFromInt(int64(input.Participants)))
	if input.DiscountAmount.GreaterThan(total) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discountAmount exceeds total")
	}
	final := total.Sub(input.DiscountAmount)

	booking := &models.Booking{
		ID:             uuid.New(),
		RetreatID:      retreat.ID,
		UserID:         userID,
		Participants:   input.Participants,
		TotalAmount:    total,
		DiscountAmount: input.DiscountAmount,
		FinalAmount:    final,
		Currency:       retreat.Currency,
		Status:         enums.BookingStatusPending,
		PaymentStatus:  enums.BookingPaymentPending,
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		reserved, err := repo.ReserveCapacity(ctx, retreat.ID, input.Participants)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve capacity")
		}
		if !reserved {
			return pkgerrors.New(pkgerrors.CodeCapacityExceeded, "not enough spots left")
		}

		if _, err := repo.Create(ctx, booking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert booking")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"booking_id":   booking.ID.String(),
			"retreat_id":   retreat.ID.String(),
			"participants": input.Participants,
		}), "booking.created")
	}

	booking.Retreat = retreat
	return FromModel(booking), nil
}

func (s *service) ListOwn(ctx context.Context, userID uuid.UUID) ([]BookingDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return toDTOs(rows), nil
}

func (s *service) Cancel(ctx context.Context, userID uuid.UUID, bookingID uuid.UUID, reason *string) (*BookingDTO, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your booking")
	}
	if booking.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking is already finalized")
	}
	if booking.Retreat != nil && time.Now().UTC().After(booking.Retreat.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "retreat has already started")
	}
	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		reason = &trimmed
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cancelled, err := repo.Cancel(ctx, bookingID, reason)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel booking")
		}
		if !cancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking is already finalized")
		}
		if err := repo.ReleaseCapacity(ctx, booking.RetreatID, booking.Participants); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release capacity")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload booking")
	}
	return FromModel(updated), nil
}

func (s *service) ListForRetreat(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, retreatID uuid.UUID) ([]BookingDTO, error) {
	retreat, err := s.repo.FindRetreat(ctx, retreatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retreat not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load retreat")
	}
	if retreat.OrganizerID != actorID && actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the retreat owner")
	}

	rows, err := s.repo.ListByRetreat(ctx, retreatID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list retreat bookings")
	}
	return toDTOs(rows), nil
}

func toDTOs(rows []models.Booking) []BookingDTO {
	out := make([]BookingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
