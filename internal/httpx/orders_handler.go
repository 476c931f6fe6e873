package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/vendoor/vendoor-backend/internal/kafka"
	"github.com/vendoor/vendoor-backend/internal/orders"
)

type OrdersHandler struct {
	Repo     *orders.Repo
	Cache    StatusCache
	Producer *kafkax.Producer // order.status.changed
	Service  string
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
	r.Get("/orders/{id}/status", h.status)
}

func (h *OrdersHandler) RegisterVendor(r chi.Router) {
	r.Get("/store/orders", h.listForStore)
	r.Patch("/orders/{id}/status", h.updateStatus)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())
	out, err := h.Repo.ListByUser(r.Context(), c.UserID())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *OrdersHandler) listForStore(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())
	if c.StoreID == "" {
		writeErr(w, http.StatusForbidden, "FORBIDDEN", "no store")
		return
	}
	out, err := h.Repo.ListByStore(r.Context(), c.StoreID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())

	o, err := h.Repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !h.canSee(c, o.UserID, o.StoreID) {
		// a foreign order looks exactly like a missing one
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// status serves the polled order-status view from the redis projection kept
// by the webhook and the vendor transition endpoint, falling back to the
// database on a miss and refilling the cache.
func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())
	id := chi.URLParam(r, "id")

	if v, ok := h.Cache.Get(r.Context(), id); ok {
		if !h.canSee(c, v.UserID, v.StoreID) {
			writeErr(w, http.StatusNotFound, "NOT_FOUND", "order not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": v.Status})
		return
	}

	o, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !h.canSee(c, o.UserID, o.StoreID) {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "order not found")
		return
	}
	h.Cache.Put(r.Context(), o, o.Status)
	writeJSON(w, http.StatusOK, map[string]any{"status": o.Status})
}

func (h *OrdersHandler) canSee(c *Claims, userID, storeID string) bool {
	switch c.Role {
	case RoleAdmin:
		return true
	case RoleVendor:
		return storeID == c.StoreID || userID == c.UserID()
	default:
		return userID == c.UserID()
	}
}

// updateStatus is the vendor/admin transition endpoint. The webhook settles
// payment elsewhere; here the status machine is checked per actor, and
// cancelling/refunding returns held stock in the same transaction.
func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())

	var body struct {
		Status orders.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		writeErr(w, http.StatusBadRequest, "VALIDATION", "missing status")
		return
	}

	o, err := h.Repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	actor := orders.ActorVendor
	if c.Role == RoleAdmin {
		actor = orders.ActorAdmin
	} else if o.StoreID != c.StoreID {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "order not found")
		return
	}

	if !orders.AllowedBy(actor, o.Status, body.Status) {
		writeErr(w, http.StatusBadRequest, "VALIDATION",
			fmt.Sprintf("cannot transition %s from %s to %s", o.ID, o.Status, body.Status))
		return
	}

	var changed bool
	if orders.Restocks(body.Status) {
		changed, err = h.Repo.CancelAndRestock(r.Context(), o.ID, o.Status, body.Status)
	} else {
		changed, err = h.Repo.UpdateStatus(r.Context(), o.ID, o.Status, body.Status)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !changed {
		writeErr(w, http.StatusConflict, "CONFLICT", "order changed concurrently, retry")
		return
	}

	h.Cache.Put(r.Context(), o, body.Status)
	h.publishStatusChanged(o, body.Status, actor)

	o.Status = body.Status
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) publishStatusChanged(o *orders.Order, to orders.Status, actor orders.Actor) {
	if h.Producer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderStatusChangedPayload{
			OrderID: o.ID,
			StoreID: o.StoreID,
			From:    o.Status,
			To:      to,
			Actor:   actor,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
