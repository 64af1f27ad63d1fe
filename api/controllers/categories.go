package controllers

import (
	"net/http"

	"github.com/okarpenko/retreathub-backend/api/responses"
	"github.com/okarpenko/retreathub-backend/internal/categories"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
)

// CategoryList serves the active category directory.
func CategoryList(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rows, err := svc.ListActive(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
