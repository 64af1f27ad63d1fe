package bookings

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/pkg/db"
	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
)

func setupBookingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:bookings_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'participant',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	retreats := `
CREATE TABLE IF NOT EXISTS retreats (
  id TEXT PRIMARY KEY,
  organizer_id TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  country TEXT NOT NULL,
  city TEXT NOT NULL,
  location TEXT NOT NULL,
  price NUMERIC NOT NULL,
  original_price NUMERIC,
  currency TEXT NOT NULL DEFAULT 'UAH',
  duration_days INTEGER NOT NULL,
  max_participants INTEGER NOT NULL,
  current_participants INTEGER NOT NULL DEFAULT 0,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  booking_deadline DATETIME,
  difficulty TEXT NOT NULL DEFAULT 'all_levels',
  yoga_styles TEXT,
  min_age INTEGER,
  max_age INTEGER,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_featured INTEGER NOT NULL DEFAULT 0,
  is_verified INTEGER NOT NULL DEFAULT 0,
  view_count INTEGER NOT NULL DEFAULT 0,
  average_rating NUMERIC NOT NULL DEFAULT 0,
  total_reviews INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	bookings := `
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  retreat_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  participants INTEGER NOT NULL,
  total_amount NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  final_amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'UAH',
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  cancel_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(users).Error)
	require.NoError(t, conn.Exec(retreats).Error)
	require.NoError(t, conn.Exec(bookings).Error)
	return conn
}

func newBookingsService(t *testing.T, conn *gorm.DB) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(conn)
	svc, err := NewService(repo, db.NewFromGorm(conn), logger.NewNop())
	require.NoError(t, err)
	return svc, repo
}

func seedUser(t *testing.T, conn *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("u_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

type retreatSeed struct {
	Price    string
	MaxSpots int
	Booked   int
	Start    time.Time
	Deadline *time.Time
	Active   bool
}

func seedRetreat(t *testing.T, conn *gorm.DB, organizerID uuid.UUID, seed retreatSeed) *models.Retreat {
	t.Helper()
	if seed.Price == "" {
		seed.Price = "500.00"
	}
	if seed.MaxSpots == 0 {
		seed.MaxSpots = 10
	}
	if seed.Start.IsZero() {
		seed.Start = time.Now().UTC().AddDate(0, 1, 0)
	}
	retreat := &models.Retreat{
		ID:                  uuid.New(),
		OrganizerID:         organizerID,
		Slug:                fmt.Sprintf("retreat-%s", uuid.NewString()),
		Title:               "Seeded Retreat",
		Description:         "desc",
		Country:             "Ukraine",
		City:                "Lviv",
		Location:            "hills",
		Price:               decimal.RequireFromString(seed.Price),
		Currency:            "UAH",
		DurationDays:        7,
		MaxParticipants:     seed.MaxSpots,
		CurrentParticipants: seed.Booked,
		StartDate:           seed.Start,
		EndDate:             seed.Start.AddDate(0, 0, 7),
		BookingDeadline:     seed.Deadline,
		Difficulty:          enums.DifficultyAllLevels,
		IsActive:            seed.Active,
	}
	require.NoError(t, conn.Create(retreat).Error)
	return retreat
}

func currentParticipants(t *testing.T, conn *gorm.DB, retreatID uuid.UUID) int {
	t.Helper()
	var retreat models.Retreat
	require.NoError(t, conn.First(&retreat, "id = ?", retreatID).Error)
	return retreat.CurrentParticipants
}

func wantCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, want, typed.Code())
}

func TestCreateBooking(t *testing.T) {
	conn := setupBookingsTestDB(t)
	svc, _ := newBookingsService(t, conn)
	organizer := seedUser(t, conn, enums.UserRoleOrganizer)
	participant := seedUser(t, conn, enums.UserRoleParticipant)
	retreat := seedRetreat(t, conn, organizer.ID, retreatSeed{Price: "250.00", MaxSpots: 10, Active: true})

	dto, err := svc.Create(context.Background(), participant.ID, CreateBookingInput{
		RetreatID:      retreat.ID,
		Participants:   3,
		DiscountAmount: decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)
	require.Equal(t, "pending", dto.Status)
	require.Equal(t, "pending", dto.PaymentStatus)
	require.True(t, dto.TotalAmount.Equal(decimal.RequireFromString("750.00")))
	require.True(t, dto.FinalAmount.Equal(decimal.RequireFromString("700.00")))
	require.Equal(t, "UAH", dto.Currency)
	require.Equal(t, 3, currentParticipants(t, conn, retreat.ID))
}

func TestCreateBookingCapacityExceeded(t *testing.T) {
	conn := setupBookingsTestDB(t)
	svc, _ := newBookingsService(t, conn)
	organizer := seedUser(t, conn, enums.UserRoleOrganizer)
	participant := seedUser(t, conn, enums.UserRoleParticipant)
	retreat := seedRetreat(t, conn, organizer.ID, retreatSeed{MaxSpots: 5, Booked: 3, Active: true})

	// Exactly filling the remaining seats succeeds.
	_, err := svc.Create(context.Background(), participant.ID, CreateBookingInput{
		RetreatID:    retreat.ID,
		Participants: 2,
	})
	require.NoError(t, err)
	require.Equal(t, 5, currentParticipants(t, conn, retreat.ID))

	// One more seat overflows: typed error, counter untouched, no row.
	_, err = svc.Create(context.Background(), participant.ID, CreateBookingInput{
		RetreatID:    retreat.ID,
		Participants: 1,
	})
	wantCode(t, err, pkgerrors.CodeCapacityExceeded)
	require.Equal(t, 5, currentParticipants(t, conn, retreat.ID))

	var count int64
	require.NoError(t, conn.Model(&models.Booking{}).Where("retreat_id = ?", retreat.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCreateBookingValidation(t *testing.T) {
	conn := setupBookingsTestDB(t)
	svc, _ := newBookingsService(t, conn)
	organizer := seedUser(t, conn, enums.UserRoleOrganizer)
	participant := seedUser(t, conn, enums.UserRoleParticipant)
	retreat := seedRetreat(t, conn, organizer.ID, retreatSeed{Price: "100.00", Active: true})

	_, err := svc.Create(context.Background(), participant.ID, CreateBookingInput{
		RetreatID:    retreat.ID,
		Participants: 0,
	})
	wantCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(context.Background(), participant.ID, CreateBookingInput{
		RetreatID:      retreat.ID,
		Participants:   1,
		DiscountAmount: decimal.RequireFromString("150.00"),
	})
	wantCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateBookingDeadlinePassed(t *testing.T) {
	conn := setupBookingsTestDB(t)
	svc, _ := newBookingsService(t, conn)
	organizer := seedUser(t, conn, enums.UserRoleOrganizer)
	participant := seedUser(t, conn, enums.UserRoleParticipant)

	past := time.Now().UTC().AddDate(0, 0, -1)
	retreat := seedRetreat(t, conn, organizer.ID, retreatSeed{Deadline: &past, Active: true})

	_, err := svc.Create(context.Background(), participant.ID, CreateBookingInput{
		RetreatID:    retreat.ID,
		Participants: 1,
	})
	wantCode(t, err, pkgerrors.CodeStateConflict)
	require.Equal(t, 0, currentParticipants(t, conn, retreat.ID))
}

func TestCreateBookingInactiveRetreat(t *testing.T) {
	conn := setupBookingsTestDB(t)
	svc, _ := newBookingsService(t, conn)
	organizer := seedUser(t, conn, enums.UserRoleOrganizer)
	participant := seedUser(t, conn, enums.UserRoleParticipant)
	retreat := seedRetreat(t, conn, organizer.ID, retreatSeed{Active: false})

	_, err := svc.Create(context.Background(), participant.ID, CreateBookingInput{
		RetreatID:    retreat.ID,
		Participants: 1,
	})
	wantCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.Create(context.Background(), participant.ID, CreateBookingInput{
		RetreatID:    uuid.New(),
		Participants: 1,
	})
	wantCode(t, err, pkgerrors.CodeNotFound)
}

func TestCancelBookingReleasesCapacity(t *testing.T) {
	conn := setupBookingsTestDB(t)
	svc, _ := newBookingsService(t, conn)
	organizer := seedUser(t, conn, enums.UserRoleOrganizer)
	participant := seedUser(t, conn, enums.UserRoleParticipant)
	retreat := seedRetreat(t, conn, organizer.ID, retreatSeed{MaxSpots: 10, Active: true})

	created, err := svc.Create(context.Background(), participant.ID, CreateBookingInput{
		RetreatID:    retreat.ID,
		Participants: 4,
	})
	require.NoError(t, err)
	require.Equal(t, 4, currentParticipants(t, conn, retreat.ID))

	reason := "change of plans"
	cancelled, err := svc.Cancel(context.Background(), participant.ID, created.ID, &reason)
	require.NoError(t, err)
	require.Equal(t, "cancelled", cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	require.Equal(t, "change of plans", *cancelled.CancelReason)
	require.Equal(t, 0, currentParticipants(t, conn, retreat.ID))

	// Second cancel hits the status guard.
	_, err = svc.Cancel(context.Background(), participant.ID, created.ID, nil)
	wantCode(t, err, pkgerrors.CodeStateConflict)
	require.Equal(t, 0, currentParticipants(t, conn, retreat.ID))
}

func TestCancelBookingOwnershipAndTiming(t *testing.T) {
	conn := setupBookingsTestDB(t)
	svc, _ := newBookingsService(t, conn)
	organizer := seedUser(t, conn, enums.UserRoleOrganizer)
	participant := seedUser(t, conn, enums.UserRoleParticipant)
	stranger := seedUser(t, conn, enums.UserRoleParticipant)
	retreat := seedRetreat(t, conn, organizer.ID, retreatSeed{Active: true})

	created, err := svc.Create(context.Background(), participant.ID, CreateBookingInput{
		RetreatID:    retreat.ID,
		Participants: 1,
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), stranger.ID, created.ID, nil)
	wantCode(t, err, pkgerrors.CodeForbidden)

	// Push the retreat into the past: cancellation window is closed.
	require.NoError(t, conn.Model(&models.Retreat{}).
		Where("id = ?", retreat.ID).
		Update("start_date", time.Now().UTC().AddDate(0, 0, -1)).Error)

	_, err = svc.Cancel(context.Background(), participant.ID, created.ID, nil)
	wantCode(t, err, pkgerrors.CodeStateConflict)
}

func TestListOwnBookings(t *testing.T) {
	conn := setupBookingsTestDB(t)
	svc, _ := newBookingsService(t, conn)
	organizer := seedUser(t, conn, enums.UserRoleOrganizer)
	participant := seedUser(t, conn, enums.UserRoleParticipant)
	other := seedUser(t, conn, enums.UserRoleParticipant)
	retreat := seedRetreat(t, conn, organizer.ID, retreatSeed{Active: true})

	_, err := svc.Create(context.Background(), participant.ID, CreateBookingInput{RetreatID: retreat.ID, Participants: 1})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), other.ID, CreateBookingInput{RetreatID: retreat.ID, Participants: 1})
	require.NoError(t, err)

	own, err := svc.ListOwn(context.Background(), participant.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.NotNil(t, own[0].Retreat)
	require.Equal(t, retreat.ID, own[0].Retreat.ID)
}

func TestListForRetreatOwnership(t *testing.T) {
	conn := setupBookingsTestDB(t)
	svc, _ := newBookingsService(t, conn)
	organizer := seedUser(t, conn, enums.UserRoleOrganizer)
	rival := seedUser(t, conn, enums.UserRoleOrganizer)
	participant := seedUser(t, conn, enums.UserRoleParticipant)
	retreat := seedRetreat(t, conn, organizer.ID, retreatSeed{Active: true})

	_, err := svc.Create(context.Background(), participant.ID, CreateBookingInput{RetreatID: retreat.ID, Participants: 2})
	require.NoError(t, err)

	_, err = svc.ListForRetreat(context.Background(), rival.ID, enums.UserRoleOrganizer, retreat.ID)
	wantCode(t, err, pkgerrors.CodeForbidden)

	rows, err := svc.ListForRetreat(context.Background(), organizer.ID, enums.UserRoleOrganizer, retreat.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = svc.ListForRetreat(context.Background(), rival.ID, enums.UserRoleAdmin, retreat.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestConfirmPaidGuardIsIdempotent(t *testing.T) {
	conn := setupBookingsTestDB(t)
	svc, repo := newBookingsService(t, conn)
	organizer := seedUser(t, conn, enums.UserRoleOrganizer)
	participant := seedUser(t, conn, enums.UserRoleParticipant)
	retreat := seedRetreat(t, conn, organizer.ID, retreatSeed{Active: true})

	created, err := svc.Create(context.Background(), participant.ID, CreateBookingInput{RetreatID: retreat.ID, Participants: 1})
	require.NoError(t, err)

	moved, err := repo.ConfirmPaid(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, moved)

	moved, err = repo.ConfirmPaid(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, moved, "replay must be a no-op")

	reloaded, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, enums.BookingStatusConfirmed, reloaded.Status)
	require.Equal(t, enums.BookingPaymentPaid, reloaded.PaymentStatus)
	// Capacity never moves in payment transitions.
	require.Equal(t, 1, currentParticipants(t, conn, retreat.ID))
}

func TestMarkRefundedGuard(t *testing.T) {
	conn := setupBookingsTestDB(t)
	svc, repo := newBookingsService(t, conn)
	organizer := seedUser(t, conn, enums.UserRoleOrganizer)
	participant := seedUser(t, conn, enums.UserRoleParticipant)
	retreat := seedRetreat(t, conn, organizer.ID, retreatSeed{Active: true})

	created, err := svc.Create(context.Background(), participant.ID, CreateBookingInput{RetreatID: retreat.ID, Participants: 1})
	require.NoError(t, err)

	// Still pending: refund transition refused.
	moved, err := repo.MarkRefunded(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, moved)

	_, err = repo.ConfirmPaid(context.Background(), created.ID)
	require.NoError(t, err)

	moved, err = repo.MarkRefunded(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, moved)
}

func TestReleaseCapacityFloorsAtZero(t *testing.T) {
	conn := setupBookingsTestDB(t)
	_, repo := newBookingsService(t, conn)
	organizer := seedUser(t, conn, enums.UserRoleOrganizer)
	retreat := seedRetreat(t, conn, organizer.ID, retreatSeed{MaxSpots: 10, Booked: 2, Active: true})

	require.NoError(t, repo.ReleaseCapacity(context.Background(), retreat.ID, 5))
	require.Equal(t, 0, currentParticipants(t, conn, retreat.ID))
}
