package providers

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okarpenko/retreathub-backend/pkg/config"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
)

const wayforpayCheckoutURL = "https://secure.wayforpay.com/pay"

// WayForPay signs a ";"-joined field list with HMAC-MD5 of the merchant
// secret. The field order is fixed by the provider per message type.
type WayForPay struct {
	cfg config.WayForPayConfig
	now func() time.Time
}

// NewWayForPay constructs the WayForPay gateway adapter.
func NewWayForPay(cfg config.WayForPayConfig) *WayForPay {
	return &WayForPay{cfg: cfg, now: time.Now}
}

// Name implements Provider.
func (p *WayForPay) Name() enums.PaymentProvider {
	return enums.PaymentProviderWayForPay
}

// BuildIntent implements Provider.
func (p *WayForPay) BuildIntent(req IntentRequest) (*Intent, error) {
	if p.cfg.MerchantAccount == "" || p.cfg.SecretKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wayforpay is not configured")
	}

	orderDate := req.CreatedAt
	if orderDate.IsZero() {
		orderDate = p.now()
	}
	amount := req.Amount.StringFixed(2)
	orderDateStr := strconv.FormatInt(orderDate.Unix(), 10)

	signature := p.sign(
		p.cfg.MerchantAccount,
		p.cfg.MerchantDomain,
		req.OrderReference,
		orderDateStr,
		amount,
		req.Currency,
		req.Description,
		"1",
		amount,
	)

	return &Intent{
		CheckoutURL: wayforpayCheckoutURL,
		Method:      "POST",
		Fields: map[string]string{
			"merchantAccount":    p.cfg.MerchantAccount,
			"merchantDomainName": p.cfg.MerchantDomain,
			"orderReference":     req.OrderReference,
			"orderDate":          orderDateStr,
			"amount":             amount,
			"currency":           req.Currency,
			"productName[]":      req.Description,
			"productCount[]":     "1",
			"productPrice[]":     amount,
			"merchantSignature":  signature,
		},
	}, nil
}

type wayforpayCallback struct {
	MerchantAccount   string      `json:"merchantAccount"`
	OrderReference    string      `json:"orderReference"`
	Amount            json.Number `json:"amount"`
	Currency          string      `json:"currency"`
	AuthCode          string      `json:"authCode"`
	CardPan           string      `json:"cardPan"`
	TransactionStatus string      `json:"transactionStatus"`
	ReasonCode        json.Number `json:"reasonCode"`
	TransactionID     json.Number `json:"transactionId"`
	MerchantSignature string      `json:"merchantSignature"`
}

// ParseCallback implements Provider. WayForPay posts a JSON body.
func (p *WayForPay) ParseCallback(body []byte, _ url.Values) (*CallbackEvent, error) {
	var callback wayforpayCallback
	if err := json.Unmarshal(body, &callback); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "malformed callback payload")
	}
	if callback.MerchantSignature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "missing signature")
	}

	expected := p.sign(
		callback.MerchantAccount,
		callback.OrderReference,
		callback.Amount.String(),
		callback.Currency,
		callback.AuthCode,
		callback.CardPan,
		callback.TransactionStatus,
		callback.ReasonCode.String(),
	)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(callback.MerchantSignature)) != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "invalid signature")
	}
	if callback.OrderReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing orderReference")
	}

	event := &CallbackEvent{
		OrderReference: callback.OrderReference,
		Succeeded:      callback.TransactionStatus == "Approved",
		RawBody:        string(body),
	}
	if id := callback.TransactionID.String(); id != "" && id != "0" {
		event.TransactionID = &id
	}
	return event, nil
}

// AckBody implements Provider. WayForPay expects a signed accept message.
func (p *WayForPay) AckBody(event *CallbackEvent) (string, []byte) {
	ts := strconv.FormatInt(p.now().Unix(), 10)
	ack := map[string]string{
		"orderReference": event.OrderReference,
		"status":         "accept",
		"time":           ts,
		"signature":      p.sign(event.OrderReference, "accept", ts),
	}
	payload, _ := json.Marshal(ack)
	return "application/json", payload
}

func (p *WayForPay) sign(parts ...string) string {
	mac := hmac.New(md5.New, []byte(p.cfg.SecretKey))
	mac.Write([]byte(strings.Join(parts, ";")))
	return hex.EncodeToString(mac.Sum(nil))
}
