package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okarpenko/retreathub-backend/api/responses"
	"github.com/okarpenko/retreathub-backend/api/validators"
	"github.com/okarpenko/retreathub-backend/internal/bookings"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
)

type createBookingPayload struct {
	RetreatID      string  `json:"retreat_id" validate:"required,uuid"`
	Participants   int     `json:"participants" validate:"required,min=1"`
	DiscountAmount *string `json:"discount_amount"`
}

// BookingCreate reserves spots on a retreat for the caller.
func BookingCreate(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorID, _, err := actor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createBookingPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		retreatID, err := uuid.Parse(payload.RetreatID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid retreat id"))
			return
		}

		input := bookings.CreateBookingInput{
			RetreatID:      retreatID,
			Participants:   payload.Participants,
			DiscountAmount: decimal.Zero,
		}
		if payload.DiscountAmount != nil {
			discount, err := decimal.NewFromString(strings.TrimSpace(*payload.DiscountAmount))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "discount_amount must be a decimal number"))
				return
			}
			input.DiscountAmount = discount
		}

		booking, err := svc.Create(ctx, actorID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, booking)
	}
}

// BookingList returns the caller's bookings.
func BookingList(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorID, _, err := actor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListOwn(ctx, actorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type cancelBookingPayload struct {
	Reason *string `json:"reason"`
}

// BookingCancel cancels the caller's booking and releases its seats.
func BookingCancel(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
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

		// The cancellation reason is optional, and so is the body itself.
		var payload cancelBookingPayload
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		if payload.Reason != nil {
			trimmed := validators.SanitizeString(*payload.Reason, 2000)
			payload.Reason = &trimmed
		}

		booking, err := svc.Cancel(ctx, actorID, bookingID, payload.Reason)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}
