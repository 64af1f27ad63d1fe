package providers

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okarpenko/retreathub-backend/pkg/enums"
)

// IntentRequest is the provider-independent payment intent.
type IntentRequest struct {
	OrderReference string
	Amount         decimal.Decimal
	Currency       string
	Description    string
	CreatedAt      time.Time
}

// Intent is what the client needs to hand the participant over to a
// provider's checkout: a URL plus the signed form fields to POST there.
type Intent struct {
	CheckoutURL string            `json:"checkout_url"`
	Method      string            `json:"method"`
	Fields      map[string]string `json:"fields"`
}

// CallbackEvent is the normalized outcome of a verified provider callback.
type CallbackEvent struct {
	OrderReference string
	TransactionID  *string
	Succeeded      bool
	// RawBody is stored on the payment row for audit.
	RawBody string
}

// Provider abstracts one payment gateway: building signed checkout payloads
// and verifying inbound callbacks.
type Provider interface {
	Name() enums.PaymentProvider
	BuildIntent(req IntentRequest) (*Intent, error)
	// ParseCallback verifies the signature and normalizes the payload.
	// body is the raw request body; form is non-nil when the provider
	// posts form-encoded callbacks.
	ParseCallback(body []byte, form url.Values) (*CallbackEvent, error)
	// AckBody renders the acknowledgment the provider expects in response
	// to a processed callback.
	AckBody(event *CallbackEvent) (contentType string, payload []byte)
}

// Registry resolves a provider by its enum name.
type Registry struct {
	providers map[enums.PaymentProvider]Provider
}

// NewRegistry indexes the given providers by name.
func NewRegistry(list ...Provider) *Registry {
	reg := &Registry{providers: make(map[enums.PaymentProvider]Provider, len(list))}
	for _, p := range list {
		reg.providers[p.Name()] = p
	}
	return reg
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name enums.PaymentProvider) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}
