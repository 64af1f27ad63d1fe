package providers

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/okarpenko/retreathub-backend/pkg/config"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
)

const liqpayCheckoutURL = "https://www.liqpay.ua/api/3/checkout"

// LiqPay signs payloads with base64(SHA1(private + data + private)) where
// data is the base64 of the JSON request.
type LiqPay struct {
	cfg config.LiqPayConfig
}

// NewLiqPay constructs the LiqPay gateway adapter.
func NewLiqPay(cfg config.LiqPayConfig) *LiqPay {
	return &LiqPay{cfg: cfg}
}

// Name implements Provider.
func (p *LiqPay) Name() enums.PaymentProvider {
	return enums.PaymentProviderLiqPay
}

type liqpayRequest struct {
	Version     int    `json:"version"`
	PublicKey   string `json:"public_key"`
	Action      string `json:"action"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	OrderID     string `json:"order_id"`
	Sandbox     string `json:"sandbox,omitempty"`
}

type liqpayCallback struct {
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	PaymentID     int64  `json:"payment_id"`
	TransactionID int64  `json:"transaction_id"`
}

// BuildIntent implements Provider.
func (p *LiqPay) BuildIntent(req IntentRequest) (*Intent, error) {
	if p.cfg.PublicKey == "" || p.cfg.PrivateKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "liqpay is not configured")
	}

	payload := liqpayRequest{
		Version:     3,
		PublicKey:   p.cfg.PublicKey,
		Action:      "pay",
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Description: req.Description,
		OrderID:     req.OrderReference,
	}
	if p.cfg.Sandbox {
		payload.Sandbox = "1"
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal liqpay payload")
	}
	data := base64.StdEncoding.EncodeToString(raw)

	return &Intent{
		CheckoutURL: liqpayCheckoutURL,
		Method:      "POST",
		Fields: map[string]string{
			"data":      data,
			"signature": p.sign(data),
		},
	}, nil
}

// ParseCallback implements Provider. LiqPay posts form fields data+signature.
func (p *LiqPay) ParseCallback(_ []byte, form url.Values) (*CallbackEvent, error) {
	data := form.Get("data")
	signature := form.Get("signature")
	if data == "" || signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "missing data or signature")
	}

	expected := p.sign(data)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "invalid signature")
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "malformed data field")
	}

	var callback liqpayCallback
	if err := json.Unmarshal(decoded, &callback); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "malformed callback payload")
	}
	if callback.OrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing order_id")
	}

	event := &CallbackEvent{
		OrderReference: callback.OrderID,
		Succeeded:      callback.Status == "success" || callback.Status == "sandbox",
		RawBody:        string(decoded),
	}
	if callback.PaymentID != 0 {
		id := strconv.FormatInt(callback.PaymentID, 10)
		event.TransactionID = &id
	} else if callback.TransactionID != 0 {
		id := strconv.FormatInt(callback.TransactionID, 10)
		event.TransactionID = &id
	}
	return event, nil
}

// AckBody implements Provider. LiqPay only needs a 200 with a plain body.
func (p *LiqPay) AckBody(_ *CallbackEvent) (string, []byte) {
	return "text/plain", []byte("OK")
}

func (p *LiqPay) sign(data string) string {
	sum := sha1.Sum([]byte(p.cfg.PrivateKey + data + p.cfg.PrivateKey))
	return base64.StdEncoding.EncodeToString(sum[:])
}
