package httpx

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/vendoor/vendoor-backend/internal/kafka"
	"github.com/vendoor/vendoor-backend/internal/orders"
	"github.com/vendoor/vendoor-backend/internal/payment"
)

// Narrow views of the order repo and redis so redelivery handling can be
// exercised without postgres or a broker behind it.

type PaymentOrderStore interface {
	MarkPaid(ctx context.Context, orderID, paymentRef string) (*orders.Order, bool, error)
	DeleteIfUnpaid(ctx context.Context, orderID string) error
	WebhookSeen(ctx context.Context, eventID string) (bool, error)
	RecordWebhookEvent(ctx context.Context, eventID, eventType string) error
}

type EventDedup interface {
	Seen(ctx context.Context, eventID string) bool
	Mark(ctx context.Context, eventID string)
}

type StatusCachePutter interface {
	Put(ctx context.Context, o *orders.Order, st orders.Status)
}

// WebhookHandler reconciles order state from provider callbacks. Delivery is
// at-least-once, so everything here must tolerate the same event twice:
// dedup on event id (redis fast path, webhook_events row durable), and the
// paid transition itself is conditional. Failure events only ever touch
// orders still awaiting payment, so a decline or expiry that arrives after
// the completed event cannot undo a settled order.
type WebhookHandler struct {
	Secret  []byte
	Repo    PaymentOrderStore
	Dedup   EventDedup
	Cache   StatusCachePutter
	Paid    *kafkax.Producer // order.paid
	Failed  *kafkax.Producer // order.payment.failed
	Service string
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/webhooks/payment", h.handle)
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "VALIDATION", "unreadable body")
		return
	}

	if !payment.VerifySignature(h.Secret, body, r.Header.Get(payment.SignatureHeader)) {
		writeErr(w, http.StatusBadRequest, "VALIDATION", "invalid signature")
		return
	}

	ev, err := payment.ParseEvent(body)
	if err != nil || ev.ID == "" {
		writeErr(w, http.StatusBadRequest, "VALIDATION", "malformed event")
		return
	}

	if h.Dedup.Seen(r.Context(), ev.ID) {
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}
	if seen, err := h.Repo.WebhookSeen(r.Context(), ev.ID); err != nil {
		respondError(w, r, err)
		return
	} else if seen {
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	switch ev.Type {
	case payment.EventSessionCompleted:
		err = h.completed(r, ev)
	case payment.EventSessionExpired, payment.EventPaymentFailed:
		err = h.failed(r, ev)
	default:
		// unknown event types are acked, not retried forever
	}
	if err != nil {
		// non-2xx so the provider redelivers
		respondError(w, r, err)
		return
	}

	if err := h.Repo.RecordWebhookEvent(r.Context(), ev.ID, ev.Type); err != nil {
		respondError(w, r, err)
		return
	}
	h.Dedup.Mark(r.Context(), ev.ID)

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *WebhookHandler) completed(r *http.Request, ev *payment.Event) error {
	for _, id := range ev.OrderIDs() {
		o, changed, err := h.Repo.MarkPaid(r.Context(), id, ev.Data.PaymentIntentID)
		if err != nil {
			return err
		}
		if !changed {
			continue // already settled by an earlier delivery
		}

		h.Cache.Put(r.Context(), o, orders.StatusPending)
		h.publish(h.Paid, orders.EventOrderPaid, id, orders.OrderPaidPayload{
			OrderID:             o.ID,
			StoreID:             o.StoreID,
			VendorEarningsCents: o.VendorEarningsCents,
			PlatformFeeCents:    o.PlatformFeeCents,
			PaymentRef:          ev.Data.PaymentIntentID,
		})
	}
	return nil
}

// failed deletes provisional orders and returns their stock; decline and
// session expiry are the same outcome with different reasons. DeleteIfUnpaid
// skips anything past PENDING_PAYMENT, so a stale failure event for an
// already-paid session is a no-op.
func (h *WebhookHandler) failed(r *http.Request, ev *payment.Event) error {
	reason := "DECLINED"
	if ev.Type == payment.EventSessionExpired {
		reason = "SESSION_EXPIRED"
	}
	checkoutID := ev.Data.Metadata["checkout_id"]

	for _, id := range ev.OrderIDs() {
		if err := h.Repo.DeleteIfUnpaid(r.Context(), id); err != nil {
			return err
		}
		h.publish(h.Failed, orders.EventOrderPaymentFailed, id, orders.OrderPaymentFailedPayload{
			OrderID:    id,
			CheckoutID: checkoutID,
			Reason:     reason,
		})
	}
	return nil
}

func (h *WebhookHandler) publish(p *kafkax.Producer, eventType, orderID string, pl any) {
	if p == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(pl),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
