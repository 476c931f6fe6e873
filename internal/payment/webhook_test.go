package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("whsec_test")

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	sig := Sign(secret, body)

	assert.True(t, VerifySignature(secret, body, sig))
	assert.False(t, VerifySignature(secret, []byte(`tampered`), sig))
	assert.False(t, VerifySignature([]byte("other"), body, sig))
	assert.False(t, VerifySignature(secret, body, ""))
	assert.False(t, VerifySignature(secret, body, "not-hex!"))
	assert.False(t, VerifySignature(nil, body, sig))
}

func TestParseEvent_OrderIDs(t *testing.T) {
	body := []byte(`{
		"id": "evt_42",
		"type": "checkout.session.completed",
		"data": {
			"session_id": "cs_123",
			"payment_intent_id": "pi_456",
			"metadata": {"order_ids": "o1, o2,o3", "checkout_id": "chk_9"}
		}
	}`)

	ev, err := ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, "evt_42", ev.ID)
	assert.Equal(t, EventSessionCompleted, ev.Type)
	assert.Equal(t, "pi_456", ev.Data.PaymentIntentID)
	assert.Equal(t, []string{"o1", "o2", "o3"}, ev.OrderIDs())
}

func TestParseEvent_NoMetadata(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"id":"evt_1","type":"checkout.session.expired","data":{}}`))
	require.NoError(t, err)
	assert.Empty(t, ev.OrderIDs())
}
