package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/internal/bookings"
	"github.com/okarpenko/retreathub-backend/internal/payments/providers"
	"github.com/okarpenko/retreathub-backend/pkg/config"
	"github.com/okarpenko/retreathub-backend/pkg/db"
	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
	pkgredis "github.com/okarpenko/retreathub-backend/pkg/redis"
)

// Service drives payment intents and provider callback processing.
type Service interface {
	CreateIntent(ctx context.Context, userID uuid.UUID, input CreateIntentInput) (*IntentDTO, error)
	HandleCallback(ctx context.Context, provider enums.PaymentProvider, body []byte, form url.Values) (*Ack, error)
	ListForBooking(ctx context.Context, userID uuid.UUID, bookingID uuid.UUID) ([]PaymentDTO, error)
}

// CreateIntentInput selects the booking and gateway for a payment attempt.
type CreateIntentInput struct {
	BookingID uuid.UUID
	Provider  string
}

type service struct {
	repo        *Repository
	bookings    *bookings.Repository
	registry    *providers.Registry
	dbClient    *db.Client
	replayGuard pkgredis.ReplayGuard
	cfg         config.PaymentsConfig
	logg        *logger.Logger
	now         func() time.Time
}

// ServiceParams bundles the payment service dependencies.
type ServiceParams struct {
	Repo        *Repository
	Bookings    *bookings.Repository
	Registry    *providers.Registry
	DB          *db.Client
	ReplayGuard pkgredis.ReplayGuard
	Config      config.PaymentsConfig
	Logger      *logger.Logger
}

// NewService constructs a payments service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("provider registry required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		repo:        params.Repo,
		bookings:    params.Bookings,
		registry:    params.Registry,
		dbClient:    params.DB,
		replayGuard: params.ReplayGuard,
		cfg:         params.Config,
		logg:        params.Logger,
		now:         time.Now,
	}, nil
}

func (s *service) CreateIntent(ctx context.Context, userID uuid.UUID, input CreateIntentInput) (*IntentDTO, error) {
	providerName, err := enums.ParsePaymentProvider(input.Provider)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}
	gateway, ok := s.registry.Lookup(providerName)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment provider not enabled")
	}

	booking, err := s.bookings.FindByID(ctx, input.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your booking")
	}
	if booking.Status != enums.BookingStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking is not awaiting payment")
	}

	description := fmt.Sprintf("Retreat booking %s", booking.ID)
	if booking.Retreat != nil {
		description = fmt.Sprintf("Retreat booking: %s", booking.Retreat.Title)
	}

	payment := &models.Payment{
		ID:             uuid.New(),
		BookingID:      booking.ID,
		Provider:       providerName,
		OrderReference: fmt.Sprintf("rh-%s", uuid.NewString()),
		Amount:         booking.FinalAmount,
		Currency:       booking.Currency,
		Status:         enums.PaymentStatusPending,
		Description:    description,
	}

	var intent *providers.Intent
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert payment")
		}
		intent, err = gateway.BuildIntent(providers.IntentRequest{
			OrderReference: payment.OrderReference,
			Amount:         payment.Amount,
			Currency:       payment.Currency,
			Description:    payment.Description,
			CreatedAt:      s.now().UTC(),
		})
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"payment_id":      payment.ID.String(),
			"booking_id":      booking.ID.String(),
			"provider":        providerName.String(),
			"order_reference": payment.OrderReference,
		}), "payment.intent.created")
	}

	return &IntentDTO{
		PaymentID:      payment.ID,
		BookingID:      booking.ID,
		Provider:       providerName.String(),
		OrderReference: payment.OrderReference,
		Amount:         payment.Amount,
		Currency:       payment.Currency,
		Checkout:       intent,
	}, nil
}

func (s *service) HandleCallback(ctx context.Context, providerName enums.PaymentProvider, body []byte, form url.Values) (*Ack, error) {
	gateway, ok := s.registry.Lookup(providerName)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown payment provider")
	}

	event, err := gateway.ParseCallback(body, form)
	if err != nil {
		return nil, err
	}

	// Cheap replay suppression; the DB status guard below stays
	// authoritative when Redis is unavailable. A claimed key must be
	// released on any failure, otherwise the provider's retry of a valid
	// callback would be suppressed and the confirmation lost.
	claimedKey := ""
	if s.replayGuard != nil {
		key := s.replayGuard.WebhookKey(providerName.String(), event.OrderReference)
		claimed, guardErr := s.replayGuard.SetNX(ctx, key, s.now().UTC().Format(time.RFC3339), s.callbackTTL())
		if guardErr != nil {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "order_reference", event.OrderReference), "payment.callback.replay_guard_unavailable")
			}
		} else if !claimed {
			if s.logg != nil {
				s.logg.Info(s.logg.WithField(ctx, "order_reference", event.OrderReference), "payment.callback.replay_suppressed")
			}
			return s.ack(gateway, event), nil
		} else {
			claimedKey = key
		}
	}

	payment, err := s.repo.FindByOrderReference(ctx, event.OrderReference)
	if err != nil {
		s.releaseReplayClaim(ctx, claimedKey)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown order reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		paymentsRepo := s.repo.WithTx(tx)
		bookingsRepo := s.bookings.WithTx(tx)

		if event.Succeeded {
			moved, err := paymentsRepo.MarkCompleted(ctx, payment.ID, event.TransactionID, event.RawBody, s.now().UTC())
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete payment")
			}
			if !moved {
				// Already processed; nothing cascades.
				return nil
			}
			if _, err := bookingsRepo.ConfirmPaid(ctx, payment.BookingID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm booking")
			}
			return nil
		}

		moved, err := paymentsRepo.MarkFailed(ctx, payment.ID, event.RawBody)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail payment")
		}
		if !moved {
			return nil
		}
		if err := bookingsRepo.MarkPaymentFailed(ctx, payment.BookingID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark booking payment failed")
		}
		return nil
	})
	if err != nil {
		s.releaseReplayClaim(ctx, claimedKey)
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"payment_id":      payment.ID.String(),
			"order_reference": event.OrderReference,
			"provider":        providerName.String(),
			"succeeded":       event.Succeeded,
		}), "payment.callback.processed")
	}

	return s.ack(gateway, event), nil
}

func (s *service) ListForBooking(ctx context.Context, userID uuid.UUID, bookingID uuid.UUID) ([]PaymentDTO, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your booking")
	}

	rows, err := s.repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	out := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) ack(gateway providers.Provider, event *providers.CallbackEvent) *Ack {
	contentType, body := gateway.AckBody(event)
	return &Ack{ContentType: contentType, Body: body}
}

// releaseReplayClaim frees a claimed webhook key after a failed callback so
// the provider's retry is not mistaken for a replay. Best effort: if the
// delete fails too, the TTL eventually clears the key.
func (s *service) releaseReplayClaim(ctx context.Context, key string) {
	if key == "" || s.replayGuard == nil {
		return
	}
	if err := s.replayGuard.Del(ctx, key); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "webhook_key", key), "payment.callback.replay_claim_release_failed")
	}
}

func (s *service) callbackTTL() time.Duration {
	if s.cfg.CallbackTTL > 0 {
		return s.cfg.CallbackTTL
	}
	return 72 * time.Hour
}
