package providers

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/okarpenko/retreathub-backend/pkg/config"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
)

const fondyCheckoutURL = "https://pay.fondy.eu/api/checkout/redirect/"

// Fondy signs requests with SHA1 over the secret key and all non-empty
// parameters sorted by name, joined with "|".
type Fondy struct {
	cfg config.FondyConfig
}

// NewFondy constructs the Fondy gateway adapter.
func NewFondy(cfg config.FondyConfig) *Fondy {
	return &Fondy{cfg: cfg}
}

// Name implements Provider.
func (p *Fondy) Name() enums.PaymentProvider {
	return enums.PaymentProviderFondy
}

// BuildIntent implements Provider.
func (p *Fondy) BuildIntent(req IntentRequest) (*Intent, error) {
	if p.cfg.MerchantID == "" || p.cfg.SecretKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "fondy is not configured")
	}

	// Fondy carries amounts in minor units.
	fields := map[string]string{
		"merchant_id": p.cfg.MerchantID,
		"order_id":    req.OrderReference,
		"order_desc":  req.Description,
		"amount":      req.Amount.Mul(decimalHundred).StringFixed(0),
		"currency":    req.Currency,
	}
	fields["signature"] = p.sign(fields)

	return &Intent{
		CheckoutURL: fondyCheckoutURL,
		Method:      "POST",
		Fields:      fields,
	}, nil
}

// ParseCallback implements Provider. Fondy posts a flat JSON object.
func (p *Fondy) ParseCallback(body []byte, _ url.Values) (*CallbackEvent, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "malformed callback payload")
	}

	fields := make(map[string]string, len(payload))
	for key, value := range payload {
		fields[key] = stringifyJSONValue(value)
	}
	received := fields["signature"]
	if received == "" {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "missing signature")
	}

	expected := p.sign(fields)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "invalid signature")
	}

	orderRef := fields["order_id"]
	if orderRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing order_id")
	}

	event := &CallbackEvent{
		OrderReference: orderRef,
		Succeeded:      fields["order_status"] == "approved",
		RawBody:        string(body),
	}
	if id := fields["payment_id"]; id != "" {
		event.TransactionID = &id
	}
	return event, nil
}

// AckBody implements Provider.
func (p *Fondy) AckBody(_ *CallbackEvent) (string, []byte) {
	return "text/plain", []byte("OK")
}

// sign computes the Fondy signature over every non-empty field except the
// signature fields themselves.
func (p *Fondy) sign(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for key, value := range fields {
		if key == "signature" || key == "response_signature_string" || value == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	parts = append(parts, p.cfg.SecretKey)
	for _, key := range keys {
		parts = append(parts, fields[key])
	}

	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
