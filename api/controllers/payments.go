package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/okarpenko/retreathub-backend/api/responses"
	"github.com/okarpenko/retreathub-backend/api/validators"
	"github.com/okarpenko/retreathub-backend/internal/payments"
	"github.com/okarpenko/retreathub-backend/internal/refunds"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
)

type createIntentPayload struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Provider  string `json:"provider" validate:"required"`
}

// PaymentIntentCreate persists a payment attempt and returns the provider
// checkout form data.
func PaymentIntentCreate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorID, _, err := actor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createIntentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bookingID, err := uuid.Parse(payload.BookingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking id"))
			return
		}

		intent, err := svc.CreateIntent(ctx, actorID, payments.CreateIntentInput{
			BookingID: bookingID,
			Provider:  payload.Provider,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, intent)
	}
}

// PaymentListForBooking returns the caller's payment attempts on a booking.
func PaymentListForBooking(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorID, _, err := actor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bookingID, err := pathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListForBooking(ctx, actorID, bookingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type refundRequestPayload struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// PaymentRefundRequest opens a manual-review refund against a completed
// payment.
func PaymentRefundRequest(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorID, _, err := actor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		paymentID, err := pathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload refundRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := svc.Request(ctx, actorID, paymentID, payload.Reason)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}
