package reviews

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

	"github.com/okarpenko/retreathub-backend/internal/bookings"
	"github.com/okarpenko/retreathub-backend/internal/retreats"
	"github.com/okarpenko/retreathub-backend/pkg/db"
	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
)

func setupReviewsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:reviews_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'participant',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS retreats (
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
);`,
		`CREATE TABLE IF NOT EXISTS bookings (
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
);`,
		`CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  retreat_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  rating INTEGER NOT NULL,
  comment TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_user_retreat ON reviews (user_id, retreat_id);`,
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type reviewsFixture struct {
	conn    *gorm.DB
	svc     Service
	retreat *models.Retreat
	user    *models.User
}

func newReviewsFixture(t *testing.T) *reviewsFixture {
	t.Helper()
	conn := setupReviewsTestDB(t)

	user := seedReviewer(t, conn, "Olena", "Kovalenko")

	start := time.Now().UTC().AddDate(0, -1, 0)
	retreat := &models.Retreat{
		ID:              uuid.New(),
		OrganizerID:     uuid.New(),
		Slug:            fmt.Sprintf("retreat-%s", uuid.NewString()),
		Title:           "Carpathian Stillness",
		Description:     "desc",
		Country:         "Ukraine",
		City:            "Lviv",
		Location:        "hills",
		Price:           decimal.RequireFromString("250.00"),
		Currency:        "UAH",
		DurationDays:    7,
		MaxParticipants: 10,
		StartDate:       start,
		EndDate:         start.AddDate(0, 0, 7),
		Difficulty:      enums.DifficultyAllLevels,
		IsActive:        true,
	}
	require.NoError(t, conn.Create(retreat).Error)

	seedAttendedBooking(t, conn, user.ID, retreat.ID, enums.BookingStatusCompleted)

	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Bookings: bookings.NewRepository(conn),
		Retreats: retreats.NewRepository(conn),
		DB:       db.NewFromGorm(conn),
		Logger:   logger.NewNop(),
	})
	require.NoError(t, err)

	return &reviewsFixture{conn: conn, svc: svc, retreat: retreat, user: user}
}

func seedReviewer(t *testing.T, conn *gorm.DB, first, last string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("u_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    first,
		LastName:     last,
		Role:         enums.UserRoleParticipant,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func seedAttendedBooking(t *testing.T, conn *gorm.DB, userID, retreatID uuid.UUID, status enums.BookingStatus) {
	t.Helper()
	booking := &models.Booking{
		ID:             uuid.New(),
		RetreatID:      retreatID,
		UserID:         userID,
		Participants:   1,
		TotalAmount:    decimal.RequireFromString("250.00"),
		DiscountAmount: decimal.Zero,
		FinalAmount:    decimal.RequireFromString("250.00"),
		Currency:       "UAH",
		Status:         status,
		PaymentStatus:  enums.BookingPaymentPaid,
	}
	require.NoError(t, conn.Create(booking).Error)
}

func requireReviewCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, want, typed.Code())
}

func comment(text string) *string { return &text }

func TestCreateReviewRecomputesAggregates(t *testing.T) {
	fx := newReviewsFixture(t)

	review, err := fx.svc.Create(context.Background(), fx.user.ID, fx.retreat.ID, CreateReviewInput{
		Rating:  5,
		Comment: comment("quiet mornings, strong teachers"),
	})
	require.NoError(t, err)
	require.Equal(t, 5, review.Rating)

	var retreat models.Retreat
	require.NoError(t, fx.conn.First(&retreat, "id = ?", fx.retreat.ID).Error)
	require.Equal(t, 1, retreat.TotalReviews)
	require.InDelta(t, 5.0, retreat.AverageRating, 1e-9)

	// A second reviewer shifts the average, derived purely from reviews.
	second := seedReviewer(t, fx.conn, "Iryna", "Shevchenko")
	seedAttendedBooking(t, fx.conn, second.ID, fx.retreat.ID, enums.BookingStatusConfirmed)
	_, err = fx.svc.Create(context.Background(), second.ID, fx.retreat.ID, CreateReviewInput{Rating: 4})
	require.NoError(t, err)

	require.NoError(t, fx.conn.First(&retreat, "id = ?", fx.retreat.ID).Error)
	require.Equal(t, 2, retreat.TotalReviews)
	require.InDelta(t, 4.5, retreat.AverageRating, 1e-9)
}

func TestCreateReviewValidatesRating(t *testing.T) {
	fx := newReviewsFixture(t)

	for _, rating := range []int{0, -1, 6} {
		_, err := fx.svc.Create(context.Background(), fx.user.ID, fx.retreat.ID, CreateReviewInput{Rating: rating})
		requireReviewCode(t, err, pkgerrors.CodeValidation)
	}
}

func TestCreateReviewRequiresAttendance(t *testing.T) {
	fx := newReviewsFixture(t)

	stranger := seedReviewer(t, fx.conn, "Marko", "Bondar")
	_, err := fx.svc.Create(context.Background(), stranger.ID, fx.retreat.ID, CreateReviewInput{Rating: 5})
	requireReviewCode(t, err, pkgerrors.CodeForbidden)

	// A pending booking is not attendance.
	seedAttendedBooking(t, fx.conn, stranger.ID, fx.retreat.ID, enums.BookingStatusPending)
	_, err = fx.svc.Create(context.Background(), stranger.ID, fx.retreat.ID, CreateReviewInput{Rating: 5})
	requireReviewCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreateReviewDuplicateConflicts(t *testing.T) {
	fx := newReviewsFixture(t)

	_, err := fx.svc.Create(context.Background(), fx.user.ID, fx.retreat.ID, CreateReviewInput{Rating: 4})
	require.NoError(t, err)

	_, err = fx.svc.Create(context.Background(), fx.user.ID, fx.retreat.ID, CreateReviewInput{Rating: 2})
	requireReviewCode(t, err, pkgerrors.CodeConflict)

	var retreat models.Retreat
	require.NoError(t, fx.conn.First(&retreat, "id = ?", fx.retreat.ID).Error)
	require.Equal(t, 1, retreat.TotalReviews)
}

func TestCreateReviewUnknownOrInactiveRetreat(t *testing.T) {
	fx := newReviewsFixture(t)

	_, err := fx.svc.Create(context.Background(), fx.user.ID, uuid.New(), CreateReviewInput{Rating: 4})
	requireReviewCode(t, err, pkgerrors.CodeNotFound)

	require.NoError(t, fx.conn.Model(&models.Retreat{}).
		Where("id = ?", fx.retreat.ID).
		Update("is_active", false).Error)
	_, err = fx.svc.Create(context.Background(), fx.user.ID, fx.retreat.ID, CreateReviewInput{Rating: 4})
	requireReviewCode(t, err, pkgerrors.CodeNotFound)
}

func TestListForRetreatIncludesAuthor(t *testing.T) {
	fx := newReviewsFixture(t)

	_, err := fx.svc.Create(context.Background(), fx.user.ID, fx.retreat.ID, CreateReviewInput{
		Rating:  5,
		Comment: comment("worth the drive"),
	})
	require.NoError(t, err)

	rows, err := fx.svc.ListForRetreat(context.Background(), fx.retreat.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Olena Kovalenko", rows[0].Author)
	require.NotNil(t, rows[0].Comment)
}
