package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendoor/vendoor-backend/internal/orders"
	"github.com/vendoor/vendoor-backend/internal/payment"
)

var webhookSecret = []byte("whsec-test")

type fakeWebhookStore struct {
	byID          map[string]*orders.Order
	markPaidCalls int
	deleted       []string
	processed     map[string]string // event_id -> type
}

func newFakeWebhookStore(os ...*orders.Order) *fakeWebhookStore {
	s := &fakeWebhookStore{byID: map[string]*orders.Order{}, processed: map[string]string{}}
	for _, o := range os {
		s.byID[o.ID] = o
	}
	return s
}

func (s *fakeWebhookStore) MarkPaid(_ context.Context, orderID, ref string) (*orders.Order, bool, error) {
	s.markPaidCalls++
	o, ok := s.byID[orderID]
	if !ok {
		return nil, false, orders.ErrNotFound
	}
	if o.Status != orders.StatusPendingPayment {
		return o, false, nil
	}
	o.Status = orders.StatusPending
	o.PaymentRef = ref
	return o, true, nil
}

func (s *fakeWebhookStore) DeleteIfUnpaid(_ context.Context, orderID string) error {
	o, ok := s.byID[orderID]
	if !ok || o.Status != orders.StatusPendingPayment {
		return nil
	}
	delete(s.byID, orderID)
	s.deleted = append(s.deleted, orderID)
	return nil
}

func (s *fakeWebhookStore) WebhookSeen(_ context.Context, eventID string) (bool, error) {
	_, ok := s.processed[eventID]
	return ok, nil
}

func (s *fakeWebhookStore) RecordWebhookEvent(_ context.Context, eventID, eventType string) error {
	s.processed[eventID] = eventType
	return nil
}

type fakeDedup struct{ seen map[string]bool }

func (d *fakeDedup) Seen(_ context.Context, id string) bool { return d.seen[id] }
func (d *fakeDedup) Mark(_ context.Context, id string)      { d.seen[id] = true }

type fakePutter struct{ puts int }

func (p *fakePutter) Put(_ context.Context, _ *orders.Order, _ orders.Status) { p.puts++ }

func webhookRig(os ...*orders.Order) (*fakeWebhookStore, *fakeDedup, *fakePutter, http.Handler) {
	store := newFakeWebhookStore(os...)
	dedup := &fakeDedup{seen: map[string]bool{}}
	cache := &fakePutter{}
	h := &WebhookHandler{
		Secret:  webhookSecret,
		Repo:    store,
		Dedup:   dedup,
		Cache:   cache,
		Service: "test",
	}
	r := chi.NewRouter()
	h.Register(r)
	return store, dedup, cache, r
}

func deliver(t *testing.T, h http.Handler, eventID, eventType, sessionID, intentID string, meta map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	ev := payment.Event{ID: eventID, Type: eventType}
	ev.Data.SessionID = sessionID
	ev.Data.PaymentIntentID = intentID
	ev.Data.Metadata = meta
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	req.Header.Set(payment.SignatureHeader, payment.Sign(webhookSecret, body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func pendingPaymentOrder(id string) *orders.Order {
	return &orders.Order{
		ID:                  id,
		UserID:              "u1",
		StoreID:             "s1",
		Status:              orders.StatusPendingPayment,
		SubtotalCents:       100000,
		PlatformFeeCents:    5000,
		VendorEarningsCents: 95000,
	}
}

func TestWebhook_CompletedSettlesOrders(t *testing.T) {
	store, _, cache, h := webhookRig(pendingPaymentOrder("o1"), pendingPaymentOrder("o2"))

	w := deliver(t, h, "evt-1", payment.EventSessionCompleted, "cs_1", "pi_1",
		map[string]string{"order_ids": "o1,o2", "checkout_id": "ck1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orders.StatusPending, store.byID["o1"].Status)
	assert.Equal(t, orders.StatusPending, store.byID["o2"].Status)
	assert.Equal(t, "pi_1", store.byID["o1"].PaymentRef)
	assert.Equal(t, 2, cache.puts)
	assert.Contains(t, store.processed, "evt-1")
}

func TestWebhook_RedeliverySameEventIsNoOp(t *testing.T) {
	store, dedup, _, h := webhookRig(pendingPaymentOrder("o1"))
	meta := map[string]string{"order_ids": "o1"}

	w := deliver(t, h, "evt-1", payment.EventSessionCompleted, "cs_1", "pi_1", meta)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, store.markPaidCalls)

	// fast path: redis remembers the event id
	w = deliver(t, h, "evt-1", payment.EventSessionCompleted, "cs_1", "pi_1", meta)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.markPaidCalls)

	// durable path: redis lost the key, webhook_events row still blocks it
	dedup.seen = map[string]bool{}
	w = deliver(t, h, "evt-1", payment.EventSessionCompleted, "cs_1", "pi_1", meta)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.markPaidCalls)
	assert.Equal(t, orders.StatusPending, store.byID["o1"].Status)
}

func TestWebhook_SecondCompletedEventDoesNotDoubleSettle(t *testing.T) {
	store, _, cache, h := webhookRig(pendingPaymentOrder("o1"))
	meta := map[string]string{"order_ids": "o1"}

	deliver(t, h, "evt-1", payment.EventSessionCompleted, "cs_1", "pi_1", meta)
	// distinct event id so neither dedup layer intervenes
	w := deliver(t, h, "evt-2", payment.EventSessionCompleted, "cs_1", "pi_1", meta)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orders.StatusPending, store.byID["o1"].Status)
	// the conditional transition reported no change, so no second cache write
	assert.Equal(t, 1, cache.puts)
}

func TestWebhook_LateExpiryDoesNotReapPaidOrder(t *testing.T) {
	store, _, _, h := webhookRig(pendingPaymentOrder("o1"))
	meta := map[string]string{"order_ids": "o1", "checkout_id": "ck1"}

	deliver(t, h, "evt-1", payment.EventSessionCompleted, "cs_1", "pi_1", meta)
	require.Equal(t, orders.StatusPending, store.byID["o1"].Status)

	w := deliver(t, h, "evt-2", payment.EventSessionExpired, "cs_1", "", meta)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, store.byID, "o1")
	assert.Equal(t, orders.StatusPending, store.byID["o1"].Status)
	assert.Empty(t, store.deleted)
}

func TestWebhook_FailureDeletesUnpaidOrder(t *testing.T) {
	store, _, _, h := webhookRig(pendingPaymentOrder("o1"))
	meta := map[string]string{"order_ids": "o1", "checkout_id": "ck1"}

	w := deliver(t, h, "evt-1", payment.EventPaymentFailed, "cs_1", "", meta)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, store.byID, "o1")
	assert.Equal(t, []string{"o1"}, store.deleted)
}

func TestWebhook_BadSignatureRejected(t *testing.T) {
	store, _, _, h := webhookRig(pendingPaymentOrder("o1"))

	ev := payment.Event{ID: "evt-1", Type: payment.EventSessionCompleted}
	ev.Data.Metadata = map[string]string{"order_ids": "o1"}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	req.Header.Set(payment.SignatureHeader, payment.Sign([]byte("wrong"), body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, orders.StatusPendingPayment, store.byID["o1"].Status)
}

func TestWebhook_UnknownEventTypeAcked(t *testing.T) {
	store, _, _, h := webhookRig(pendingPaymentOrder("o1"))

	w := deliver(t, h, "evt-9", "checkout.session.created", "cs_1", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orders.StatusPendingPayment, store.byID["o1"].Status)
	assert.Contains(t, store.processed, "evt-9")
}
