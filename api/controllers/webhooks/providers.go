package webhooks

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okarpenko/retreathub-backend/api/responses"
	"github.com/okarpenko/retreathub-backend/internal/payments"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
)

// Providers cap their callback payloads well below this.
const maxCallbackBody = 1 << 20

// ProviderCallback receives a payment gateway callback. The provider name
// comes from the URL; LiqPay posts form-encoded data, the others JSON. The
// response body is whatever ack shape the provider expects, so a gateway
// retry loop settles on the first 200.
func ProviderCallback(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		provider, err := enums.ParsePaymentProvider(chi.URLParam(r, "provider"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "unknown payment provider"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable callback body"))
			return
		}

		var form url.Values
		contentType := r.Header.Get("Content-Type")
		if strings.Contains(contentType, "application/x-www-form-urlencoded") {
			form, err = url.ParseQuery(string(body))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed callback form"))
				return
			}
		}

		ack, err := svc.HandleCallback(ctx, provider, body, form)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set("Content-Type", ack.ContentType)
		w.WriteHeader(http.StatusOK)
		w.Write(ack.Body)
	}
}
