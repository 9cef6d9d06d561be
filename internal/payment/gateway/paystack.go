package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"

	"github.com/pulseware/platform/internal/payment/domain"
)

const SignatureHeader = "X-Paystack-Signature"

// Event is the provider-neutral view of a webhook payload.
type Event struct {
	Type      string
	Reference string
	Status    string
	Amount    int64 // minor units
	Currency  string
}

// Adapter verifies and decodes gateway webhook deliveries.
type Adapter interface {
	Provider() string
	Verify(body []byte, headers map[string]string) error
	Parse(body []byte) (*Event, error)
}

type Paystack struct {
	secret []byte
}

func NewPaystack(secret string) *Paystack {
	return &Paystack{secret: []byte(secret)}
}

func (p *Paystack) Provider() string {
	return "paystack"
}

// Verify checks the HMAC-SHA512 signature Paystack computes over the raw body.
func (p *Paystack) Verify(body []byte, headers map[string]string) error {
	sig := headers[SignatureHeader]
	if sig == "" {
		return domain.ErrMissingSignature
	}

	mac := hmac.New(sha512.New, p.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

type paystackPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

func (p *Paystack) Parse(body []byte) (*Event, error) {
	var payload paystackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if payload.Event == "" {
		return nil, domain.ErrInvalidPayload
	}
	return &Event{
		Type:      payload.Event,
		Reference: payload.Data.Reference,
		Status:    payload.Data.Status,
		Amount:    payload.Data.Amount,
		Currency:  payload.Data.Currency,
	}, nil
}
