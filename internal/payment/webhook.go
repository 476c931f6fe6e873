package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// SignatureHeader carries hex(HMAC-SHA256(secret, raw body)).
const SignatureHeader = "X-Vendoor-Signature"

const (
	EventSessionCompleted = "checkout.session.completed"
	EventSessionExpired   = "checkout.session.expired"
	EventPaymentFailed    = "checkout.payment_failed"
)

// Event is the provider's webhook envelope. Metadata round-trips whatever we
// attached at session creation, most importantly the comma-joined order_ids.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		SessionID       string            `json:"session_id"`
		PaymentIntentID string            `json:"payment_intent_id"`
		Metadata        map[string]string `json:"metadata"`
	} `json:"data"`
}

// OrderIDs splits the order_ids metadata entry.
func (e *Event) OrderIDs() []string {
	raw := e.Data.Metadata["order_ids"]
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time. An unsigned or tampered body is
// never parsed, let alone processed.
func VerifySignature(secret, body []byte, signature string) bool {
	if len(secret) == 0 || signature == "" {
		return false
	}
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

func ParseEvent(body []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
