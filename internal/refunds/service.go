package refunds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okarpenko/retreathub-backend/internal/bookings"
	"github.com/okarpenko/retreathub-backend/internal/payments"
	"github.com/okarpenko/retreathub-backend/pkg/db"
	"github.com/okarpenko/retreathub-backend/pkg/db/models"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
)

// Service handles refund requests and their organizer/admin decisions.
type Service interface {
	Request(ctx context.Context, userID uuid.UUID, paymentID uuid.UUID, reason string) (*RefundRequestDTO, error)
	Decide(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, requestID uuid.UUID, input DecisionInput) (*RefundRequestDTO, error)
	ListPendingForOrganizer(ctx context.Context, organizerID uuid.UUID) ([]RefundRequestDTO, error)
}

// Decision names the two possible outcomes of a review.
type Decision string

const (
	DecisionProcess Decision = "process"
	DecisionDeny    Decision = "deny"
)

// DecisionInput carries a reviewer's verdict.
type DecisionInput struct {
	Decision Decision
}

type service struct {
	repo     *Repository
	payments *payments.Repository
	bookings *bookings.Repository
	dbClient *db.Client
	logg     *logger.Logger
}

// ServiceParams bundles the refund service dependencies.
type ServiceParams struct {
	Repo     *Repository
	Payments *payments.Repository
	Bookings *bookings.Repository
	DB       *db.Client
	Logger   *logger.Logger
}

// NewService constructs a refunds service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("refunds repository required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		repo:     params.Repo,
		payments: params.Payments,
		bookings: params.Bookings,
		dbClient: params.DB,
		logg:     params.Logger,
	}, nil
}

func (s *service) Request(ctx context.Context, userID uuid.UUID, paymentID uuid.UUID, reason string) (*RefundRequestDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Booking == nil || payment.Booking.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your payment")
	}
	if payment.Status != enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only completed payments can be refunded")
	}
	if _, err := s.repo.FindPendingByPayment(ctx, paymentID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "refund already requested")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open requests")
	}

	request := &models.RefundRequest{
		ID:          uuid.New(),
		PaymentID:   payment.ID,
		BookingID:   payment.BookingID,
		RequestedBy: userID,
		Amount:      payment.Amount,
		Reason:      reason,
		Status:      enums.RefundRequestStatusPending,
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert refund request")
		}
		if _, err := s.payments.WithTx(tx).MarkRefundRequested(ctx, payment.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"refund_request_id": request.ID.String(),
			"payment_id":        payment.ID.String(),
		}), "refund.requested")
	}
	return FromModel(request), nil
}

func (s *service) Decide(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, requestID uuid.UUID, input DecisionInput) (*RefundRequestDTO, error) {
	if input.Decision != DecisionProcess && input.Decision != DecisionDeny {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be process or deny")
	}

	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund request")
	}
	if request.Status != enums.RefundRequestStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "refund request already decided")
	}
	if actorRole != enums.UserRoleAdmin {
		if request.Booking == nil || request.Booking.Retreat == nil || request.Booking.Retreat.OrganizerID != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the retreat owner")
		}
	}

	now := time.Now().UTC()
	finalStatus := enums.RefundRequestStatusDenied
	if input.Decision == DecisionProcess {
		finalStatus = enums.RefundRequestStatusProcessed
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		refundsRepo := s.repo.WithTx(tx)
		paymentsRepo := s.payments.WithTx(tx)

		decided, err := refundsRepo.Decide(ctx, requestID, finalStatus, actorID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decide refund request")
		}
		if !decided {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "refund request already decided")
		}
		if finalStatus != enums.RefundRequestStatusProcessed {
			// Denial frees the payment for a fresh request.
			if _, err := paymentsRepo.RestoreCompleted(ctx, request.PaymentID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore payment")
			}
			return nil
		}

		if _, err := paymentsRepo.MarkRefunded(ctx, request.PaymentID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle payment")
		}

		bookingsRepo := s.bookings.WithTx(tx)
		refunded, err := bookingsRepo.MarkRefunded(ctx, request.BookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund booking")
		}
		if refunded && request.Booking != nil {
			if err := bookingsRepo.ReleaseCapacity(ctx, request.Booking.RetreatID, request.Booking.Participants); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release capacity")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"refund_request_id": requestID.String(),
			"decision":          string(input.Decision),
		}), "refund.decided")
	}

	updated, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload refund request")
	}
	return FromModel(updated), nil
}

func (s *service) ListPendingForOrganizer(ctx context.Context, organizerID uuid.UUID) ([]RefundRequestDTO, error) {
	rows, err := s.repo.ListPendingForOrganizer(ctx, organizerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refund requests")
	}
	out := make([]RefundRequestDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}
