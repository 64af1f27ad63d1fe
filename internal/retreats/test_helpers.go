package retreats

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
)

func setupRetreatsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:retreats_%s?mode=memory&cache=shared", uuid.NewString())
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
	categories := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`
	retreatCategories := `
CREATE TABLE IF NOT EXISTS retreat_categories (
  retreat_id TEXT NOT NULL,
  category_id TEXT NOT NULL,
  PRIMARY KEY (retreat_id, category_id)
);`
	reviews := `
CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  retreat_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  rating INTEGER NOT NULL,
  comment TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(users).Error)
	require.NoError(t, conn.Exec(retreats).Error)
	require.NoError(t, conn.Exec(categories).Error)
	require.NoError(t, conn.Exec(retreatCategories).Error)
	require.NoError(t, conn.Exec(reviews).Error)
	return conn
}

func mustCreateTestOrganizer(t *testing.T, tx *gorm.DB, firstName, lastName string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("rh_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    firstName,
		LastName:     lastName,
		Role:         enums.UserRoleOrganizer,
		IsActive:     true,
	}
	require.NoError(t, tx.Create(user).Error)
	return user
}

type testRetreatOpts struct {
	Title      string
	Country    string
	City       string
	Price      string
	Duration   int
	StartDate  time.Time
	Difficulty enums.Difficulty
	MinAge     *int
	MaxAge     *int
	IsActive   bool
	MaxSpots   int
}

func mustCreateTestRetreat(t *testing.T, tx *gorm.DB, organizerID uuid.UUID, opts testRetreatOpts) *models.Retreat {
	t.Helper()

	if opts.Title == "" {
		opts.Title = "Test Retreat"
	}
	if opts.Country == "" {
		opts.Country = "Ukraine"
	}
	if opts.City == "" {
		opts.City = "Lviv"
	}
	if opts.Price == "" {
		opts.Price = "500.00"
	}
	if opts.Duration == 0 {
		opts.Duration = 7
	}
	if opts.StartDate.IsZero() {
		opts.StartDate = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	}
	if opts.Difficulty == "" {
		opts.Difficulty = enums.DifficultyAllLevels
	}
	if opts.MaxSpots == 0 {
		opts.MaxSpots = 20
	}

	retreat := &models.Retreat{
		ID:              uuid.New(),
		OrganizerID:     organizerID,
		Slug:            fmt.Sprintf("retreat-%s", uuid.NewString()),
		Title:           opts.Title,
		Description:     "A calm place in the mountains",
		Country:         opts.Country,
		City:            opts.City,
		Location:        opts.City + " hills",
		Price:           decimal.RequireFromString(opts.Price),
		Currency:        "UAH",
		DurationDays:    opts.Duration,
		MaxParticipants: opts.MaxSpots,
		StartDate:       opts.StartDate,
		EndDate:         opts.StartDate.AddDate(0, 0, opts.Duration),
		Difficulty:      opts.Difficulty,
		MinAge:          opts.MinAge,
		MaxAge:          opts.MaxAge,
		IsActive:        opts.IsActive,
	}
	require.NoError(t, tx.Create(retreat).Error)
	return retreat
}

func mustCreateTestCategory(t *testing.T, tx *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{
		ID:       uuid.New(),
		Name:     name,
		Slug:     fmt.Sprintf("%s-%s", name, uuid.NewString()),
		IsActive: true,
	}
	require.NoError(t, tx.Create(category).Error)
	return category
}

func mustAttachCategory(t *testing.T, tx *gorm.DB, retreatID, categoryID uuid.UUID) {
	t.Helper()
	require.NoError(t, tx.Create(&models.RetreatCategory{RetreatID: retreatID, CategoryID: categoryID}).Error)
}
