package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendoor/vendoor-backend/internal/cart"
	"github.com/vendoor/vendoor-backend/internal/catalog"
)

type CartHandler struct {
	Cart    *cart.Store
	Catalog *catalog.Repo
}

type cartView struct {
	Items         []cart.Entry       `json:"items"`
	Groups        []cart.VendorGroup `json:"groups,omitempty"`
	Excluded      []cart.PricedItem  `json:"excluded,omitempty"`
	SubtotalCents int64              `json:"subtotal_cents"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.get)
	r.Put("/cart", h.put)
	r.Delete("/cart", h.clear)
}

// get returns the cart priced and grouped per vendor, the same view checkout
// will act on. Items from vendors that can no longer sell show up under
// "excluded" instead of silently inflating the subtotal.
func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())

	entries, err := h.Cart.Get(r.Context(), c.UserID())
	if err != nil {
		respondError(w, r, err)
		return
	}
	view := cartView{Items: entries}
	if len(entries) > 0 {
		priced, err := h.Catalog.Resolve(r.Context(), entries)
		if err != nil {
			respondError(w, r, err)
			return
		}
		view.Groups, view.Excluded = cart.GroupByVendor(priced)
		for _, g := range view.Groups {
			view.SubtotalCents += g.SubtotalCents
		}
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) put(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())

	var body struct {
		Items []cart.Entry `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "VALIDATION", "invalid json")
		return
	}
	for _, e := range body.Items {
		if e.ProductID == "" || e.Qty <= 0 {
			writeErr(w, http.StatusBadRequest, "VALIDATION", "items need product_id and positive qty")
			return
		}
	}

	if err := h.Cart.Set(r.Context(), c.UserID(), body.Items); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": body.Items})
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())
	if err := h.Cart.Clear(r.Context(), c.UserID()); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
