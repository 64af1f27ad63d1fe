package webhooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/okarpenko/retreathub-backend/internal/payments"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
)

type stubPaymentService struct {
	callbackFn func(ctx context.Context, provider enums.PaymentProvider, body []byte, form url.Values) (*payments.Ack, error)
}

func (s stubPaymentService) CreateIntent(context.Context, uuid.UUID, payments.CreateIntentInput) (*payments.IntentDTO, error) {
	return nil, nil
}

func (s stubPaymentService) HandleCallback(ctx context.Context, provider enums.PaymentProvider, body []byte, form url.Values) (*payments.Ack, error) {
	return s.callbackFn(ctx, provider, body, form)
}

func (s stubPaymentService) ListForBooking(context.Context, uuid.UUID, uuid.UUID) ([]payments.PaymentDTO, error) {
	return nil, nil
}

func newCallbackRouter(svc payments.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/webhooks/{provider}", ProviderCallback(svc, logger.NewNop()))
	return r
}

func TestProviderCallbackParsesFormBody(t *testing.T) {
	var gotProvider enums.PaymentProvider
	var gotForm url.Values
	svc := stubPaymentService{
		callbackFn: func(ctx context.Context, provider enums.PaymentProvider, body []byte, form url.Values) (*payments.Ack, error) {
			gotProvider = provider
			gotForm = form
			return &payments.Ack{ContentType: "text/plain", Body: []byte("OK")}, nil
		},
	}

	body := strings.NewReader("data=eyJmb28iOiJiYXIifQ==&signature=c2ln")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/liqpay", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	newCallbackRouter(svc).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "OK", resp.Body.String())
	require.Equal(t, "text/plain", resp.Header().Get("Content-Type"))
	require.Equal(t, enums.PaymentProviderLiqPay, gotProvider)
	require.Equal(t, "eyJmb28iOiJiYXIifQ==", gotForm.Get("data"))
	require.Equal(t, "c2ln", gotForm.Get("signature"))
}

func TestProviderCallbackPassesRawJSONBody(t *testing.T) {
	var gotBody []byte
	var gotForm url.Values
	svc := stubPaymentService{
		callbackFn: func(ctx context.Context, provider enums.PaymentProvider, body []byte, form url.Values) (*payments.Ack, error) {
			gotBody = body
			gotForm = form
			return &payments.Ack{ContentType: "application/json", Body: []byte(`{"status":"accept"}`)}, nil
		},
	}

	payload := `{"orderReference":"wfp-1","merchantSignature":"abc"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/wayforpay", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	newCallbackRouter(svc).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"status":"accept"}`, resp.Body.String())
	require.Equal(t, payload, string(gotBody))
	require.Nil(t, gotForm)
}

func TestProviderCallbackUnknownProvider(t *testing.T) {
	called := false
	svc := stubPaymentService{
		callbackFn: func(ctx context.Context, provider enums.PaymentProvider, body []byte, form url.Values) (*payments.Ack, error) {
			called = true
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paypal", strings.NewReader("{}"))
	resp := httptest.NewRecorder()
	newCallbackRouter(svc).ServeHTTP(resp, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
	require.False(t, called)
}
