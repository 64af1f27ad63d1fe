package controllers

import (
	"net/http"

	"github.com/okarpenko/retreathub-backend/api/responses"
	"github.com/okarpenko/retreathub-backend/api/validators"
	"github.com/okarpenko/retreathub-backend/internal/refunds"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
)

// RefundRequestList returns refund requests awaiting the organizer's decision.
func RefundRequestList(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorID, _, err := actor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListPendingForOrganizer(ctx, actorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type refundDecisionPayload struct {
	Decision string `json:"decision" validate:"required,oneof=process deny"`
}

// RefundDecision applies an organizer/admin verdict to a pending request.
func RefundDecision(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorID, role, err := actor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		requestID, err := pathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload refundDecisionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := svc.Decide(ctx, actorID, role, requestID, refunds.DecisionInput{
			Decision: refunds.Decision(payload.Decision),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}
