package payments

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/internal/bookings"
	"github.com/okarpenko/retreathub-backend/internal/payments/providers"
	"github.com/okarpenko/retreathub-backend/pkg/config"
	"github.com/okarpenko/retreathub-backend/pkg/db"
	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
)

const testLiqPayPrivate = "test-private"

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:payments_%s?mode=memory&cache=shared", uuid.NewString())
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
		`CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  provider TEXT NOT NULL,
  order_reference TEXT NOT NULL UNIQUE,
  transaction_id TEXT,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'UAH',
  status TEXT NOT NULL DEFAULT 'pending',
  description TEXT NOT NULL,
  raw_payload TEXT,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type fakeReplayGuard struct {
	claimed map[string]bool
	err     error
}

func newFakeReplayGuard() *fakeReplayGuard {
	return &fakeReplayGuard{claimed: map[string]bool{}}
}

func (f *fakeReplayGuard) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.claimed[key] {
		return false, nil
	}
	f.claimed[key] = true
	return true, nil
}

func (f *fakeReplayGuard) Del(_ context.Context, keys ...string) error {
	if f.err != nil {
		return f.err
	}
	for _, key := range keys {
		delete(f.claimed, key)
	}
	return nil
}

func (f *fakeReplayGuard) WebhookKey(provider, orderReference string) string {
	return fmt.Sprintf("rh:webhook:%s:%s", provider, orderReference)
}

type paymentsFixture struct {
	conn    *gorm.DB
	svc     Service
	repo    *Repository
	booking *models.Booking
	retreat *models.Retreat
	user    *models.User
	guard   *fakeReplayGuard
}

func newPaymentsFixture(t *testing.T) *paymentsFixture {
	t.Helper()
	conn := setupPaymentsTestDB(t)

	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("u_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "User",
		Role:         enums.UserRoleParticipant,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)

	start := time.Now().UTC().AddDate(0, 1, 0)
	retreat := &models.Retreat{
		ID:                  uuid.New(),
		OrganizerID:         uuid.New(),
		Slug:                fmt.Sprintf("retreat-%s", uuid.NewString()),
		Title:               "Carpathian Stillness",
		Description:         "desc",
		Country:             "Ukraine",
		City:                "Lviv",
		Location:            "hills",
		Price:               decimal.RequireFromString("250.00"),
		Currency:            "UAH",
		DurationDays:        7,
		MaxParticipants:     10,
		CurrentParticipants: 2,
		StartDate:           start,
		EndDate:             start.AddDate(0, 0, 7),
		Difficulty:          enums.DifficultyAllLevels,
		IsActive:            true,
	}
	require.NoError(t, conn.Create(retreat).Error)

	booking := &models.Booking{
		ID:             uuid.New(),
		RetreatID:      retreat.ID,
		UserID:         user.ID,
		Participants:   2,
		TotalAmount:    decimal.RequireFromString("500.00"),
		DiscountAmount: decimal.Zero,
		FinalAmount:    decimal.RequireFromString("500.00"),
		Currency:       "UAH",
		Status:         enums.BookingStatusPending,
		PaymentStatus:  enums.BookingPaymentPending,
	}
	require.NoError(t, conn.Create(booking).Error)

	repo := NewRepository(conn)
	guard := newFakeReplayGuard()
	registry := providers.NewRegistry(
		providers.NewLiqPay(config.LiqPayConfig{PublicKey: "pub", PrivateKey: testLiqPayPrivate}),
	)
	svc, err := NewService(ServiceParams{
		Repo:        repo,
		Bookings:    bookings.NewRepository(conn),
		Registry:    registry,
		DB:          db.NewFromGorm(conn),
		ReplayGuard: guard,
		Config:      config.PaymentsConfig{CallbackTTL: time.Hour},
		Logger:      logger.NewNop(),
	})
	require.NoError(t, err)

	return &paymentsFixture{
		conn:    conn,
		svc:     svc,
		repo:    repo,
		booking: booking,
		retreat: retreat,
		user:    user,
		guard:   guard,
	}
}

func liqpayCallbackForm(orderReference, status string) url.Values {
	payload := fmt.Sprintf(`{"order_id":%q,"status":%q,"payment_id":5577}`, orderReference, status)
	data := base64.StdEncoding.EncodeToString([]byte(payload))
	sum := sha1.Sum([]byte(testLiqPayPrivate + data + testLiqPayPrivate))

	form := url.Values{}
	form.Set("data", data)
	form.Set("signature", base64.StdEncoding.EncodeToString(sum[:]))
	return form
}

func assertCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, want, typed.Code())
}

func TestCreateIntentPersistsPaymentFirst(t *testing.T) {
	fx := newPaymentsFixture(t)

	intent, err := fx.svc.CreateIntent(context.Background(), fx.user.ID, CreateIntentInput{
		BookingID: fx.booking.ID,
		Provider:  "liqpay",
	})
	require.NoError(t, err)
	require.Equal(t, "liqpay", intent.Provider)
	require.NotEmpty(t, intent.OrderReference)
	require.True(t, intent.Amount.Equal(decimal.RequireFromString("500.00")))
	require.NotNil(t, intent.Checkout)
	require.NotEmpty(t, intent.Checkout.Fields["signature"])

	stored, err := fx.repo.FindByOrderReference(context.Background(), intent.OrderReference)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPending, stored.Status)
	require.Equal(t, fx.booking.ID, stored.BookingID)
}

func TestCreateIntentGuards(t *testing.T) {
	fx := newPaymentsFixture(t)

	_, err := fx.svc.CreateIntent(context.Background(), fx.user.ID, CreateIntentInput{
		BookingID: fx.booking.ID,
		Provider:  "paypal",
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = fx.svc.CreateIntent(context.Background(), uuid.New(), CreateIntentInput{
		BookingID: fx.booking.ID,
		Provider:  "liqpay",
	})
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = fx.svc.CreateIntent(context.Background(), fx.user.ID, CreateIntentInput{
		BookingID: uuid.New(),
		Provider:  "liqpay",
	})
	assertCode(t, err, pkgerrors.CodeNotFound)

	require.NoError(t, fx.conn.Model(&models.Booking{}).
		Where("id = ?", fx.booking.ID).
		Update("status", enums.BookingStatusConfirmed).Error)
	_, err = fx.svc.CreateIntent(context.Background(), fx.user.ID, CreateIntentInput{
		BookingID: fx.booking.ID,
		Provider:  "liqpay",
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCallbackSuccessCascades(t *testing.T) {
	fx := newPaymentsFixture(t)

	intent, err := fx.svc.CreateIntent(context.Background(), fx.user.ID, CreateIntentInput{
		BookingID: fx.booking.ID,
		Provider:  "liqpay",
	})
	require.NoError(t, err)

	ack, err := fx.svc.HandleCallback(context.Background(), enums.PaymentProviderLiqPay,
		nil, liqpayCallbackForm(intent.OrderReference, "success"))
	require.NoError(t, err)
	require.Equal(t, "OK", string(ack.Body))

	payment, err := fx.repo.FindByOrderReference(context.Background(), intent.OrderReference)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusCompleted, payment.Status)
	require.NotNil(t, payment.TransactionID)
	require.Equal(t, "5577", *payment.TransactionID)
	require.NotNil(t, payment.PaidAt)
	require.NotNil(t, payment.RawPayload)

	var booking models.Booking
	require.NoError(t, fx.conn.First(&booking, "id = ?", fx.booking.ID).Error)
	require.Equal(t, enums.BookingStatusConfirmed, booking.Status)
	require.Equal(t, enums.BookingPaymentPaid, booking.PaymentStatus)

	// Participant counts never move in callbacks.
	var retreat models.Retreat
	require.NoError(t, fx.conn.First(&retreat, "id = ?", fx.retreat.ID).Error)
	require.Equal(t, 2, retreat.CurrentParticipants)
}

func TestCallbackFailureKeepsBookingPending(t *testing.T) {
	fx := newPaymentsFixture(t)

	intent, err := fx.svc.CreateIntent(context.Background(), fx.user.ID, CreateIntentInput{
		BookingID: fx.booking.ID,
		Provider:  "liqpay",
	})
	require.NoError(t, err)

	_, err = fx.svc.HandleCallback(context.Background(), enums.PaymentProviderLiqPay,
		nil, liqpayCallbackForm(intent.OrderReference, "failure"))
	require.NoError(t, err)

	payment, err := fx.repo.FindByOrderReference(context.Background(), intent.OrderReference)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusFailed, payment.Status)

	var booking models.Booking
	require.NoError(t, fx.conn.First(&booking, "id = ?", fx.booking.ID).Error)
	require.Equal(t, enums.BookingStatusPending, booking.Status, "failed payment leaves the booking retryable")
	require.Equal(t, enums.BookingPaymentFailed, booking.PaymentStatus)
}

func TestCallbackRejectsTamperedSignature(t *testing.T) {
	fx := newPaymentsFixture(t)

	intent, err := fx.svc.CreateIntent(context.Background(), fx.user.ID, CreateIntentInput{
		BookingID: fx.booking.ID,
		Provider:  "liqpay",
	})
	require.NoError(t, err)

	form := liqpayCallbackForm(intent.OrderReference, "success")
	form.Set("signature", "Ym9ndXM=")

	_, err = fx.svc.HandleCallback(context.Background(), enums.PaymentProviderLiqPay, nil, form)
	assertCode(t, err, pkgerrors.CodeSignature)

	payment, err := fx.repo.FindByOrderReference(context.Background(), intent.OrderReference)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPending, payment.Status, "rejected callback must not mutate state")

	var booking models.Booking
	require.NoError(t, fx.conn.First(&booking, "id = ?", fx.booking.ID).Error)
	require.Equal(t, enums.BookingStatusPending, booking.Status)
}

func TestCallbackUnknownOrderReference(t *testing.T) {
	fx := newPaymentsFixture(t)

	_, err := fx.svc.HandleCallback(context.Background(), enums.PaymentProviderLiqPay,
		nil, liqpayCallbackForm("rh-ghost-order", "success"))
	assertCode(t, err, pkgerrors.CodeNotFound)

	var count int64
	require.NoError(t, fx.conn.Model(&models.Payment{}).Count(&count).Error)
	require.EqualValues(t, 0, count, "unknown order reference must not create phantom rows")
}

func TestCallbackReplayIsNoOp(t *testing.T) {
	fx := newPaymentsFixture(t)

	intent, err := fx.svc.CreateIntent(context.Background(), fx.user.ID, CreateIntentInput{
		BookingID: fx.booking.ID,
		Provider:  "liqpay",
	})
	require.NoError(t, err)

	form := liqpayCallbackForm(intent.OrderReference, "success")
	_, err = fx.svc.HandleCallback(context.Background(), enums.PaymentProviderLiqPay, nil, form)
	require.NoError(t, err)

	// Redis suppression replies with the ack and touches nothing.
	ack, err := fx.svc.HandleCallback(context.Background(), enums.PaymentProviderLiqPay, nil, form)
	require.NoError(t, err)
	require.Equal(t, "OK", string(ack.Body))

	// Even with the guard unavailable the DB status guard holds.
	fx.guard.err = fmt.Errorf("redis down")
	_, err = fx.svc.HandleCallback(context.Background(), enums.PaymentProviderLiqPay, nil, form)
	require.NoError(t, err)

	payment, err := fx.repo.FindByOrderReference(context.Background(), intent.OrderReference)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusCompleted, payment.Status)

	var booking models.Booking
	require.NoError(t, fx.conn.First(&booking, "id = ?", fx.booking.ID).Error)
	require.Equal(t, enums.BookingStatusConfirmed, booking.Status)
}

func TestCallbackFailureReleasesReplayClaim(t *testing.T) {
	fx := newPaymentsFixture(t)

	intent, err := fx.svc.CreateIntent(context.Background(), fx.user.ID, CreateIntentInput{
		BookingID: fx.booking.ID,
		Provider:  "liqpay",
	})
	require.NoError(t, err)

	form := liqpayCallbackForm(intent.OrderReference, "success")

	// First delivery fails mid-transaction: the booking confirmation cannot
	// be written, so everything rolls back.
	require.NoError(t, fx.conn.Exec("ALTER TABLE bookings RENAME TO bookings_hidden").Error)
	_, err = fx.svc.HandleCallback(context.Background(), enums.PaymentProviderLiqPay, nil, form)
	require.Error(t, err)
	require.NoError(t, fx.conn.Exec("ALTER TABLE bookings_hidden RENAME TO bookings").Error)

	payment, err := fx.repo.FindByOrderReference(context.Background(), intent.OrderReference)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPending, payment.Status)

	// The failed delivery must not hold the replay key, or the gateway's
	// retry would be swallowed and the confirmation lost.
	require.Empty(t, fx.guard.claimed)

	ack, err := fx.svc.HandleCallback(context.Background(), enums.PaymentProviderLiqPay, nil, form)
	require.NoError(t, err)
	require.Equal(t, "OK", string(ack.Body))

	payment, err = fx.repo.FindByOrderReference(context.Background(), intent.OrderReference)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusCompleted, payment.Status)

	var booking models.Booking
	require.NoError(t, fx.conn.First(&booking, "id = ?", fx.booking.ID).Error)
	require.Equal(t, enums.BookingStatusConfirmed, booking.Status)
	require.Equal(t, enums.BookingPaymentPaid, booking.PaymentStatus)
}

func TestListForBooking(t *testing.T) {
	fx := newPaymentsFixture(t)

	_, err := fx.svc.CreateIntent(context.Background(), fx.user.ID, CreateIntentInput{
		BookingID: fx.booking.ID,
		Provider:  "liqpay",
	})
	require.NoError(t, err)

	rows, err := fx.svc.ListForBooking(context.Background(), fx.user.ID, fx.booking.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "liqpay", rows[0].Provider)

	_, err = fx.svc.ListForBooking(context.Background(), uuid.New(), fx.booking.ID)
	assertCode(t, err, pkgerrors.CodeForbidden)
}
