package controllers

import (
	"net/http"

	"github.com/okarpenko/retreathub-backend/api/responses"
	"github.com/okarpenko/retreathub-backend/api/validators"
	"github.com/okarpenko/retreathub-backend/internal/reviews"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
)

// ReviewCreate posts a review on a retreat the caller attended.
func ReviewCreate(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorID, _, err := actor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		retreatID, err := pathUUID(r, "retreatId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input reviews.CreateReviewInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		review, err := svc.Create(ctx, actorID, retreatID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}
