package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendoor/vendoor-backend/internal/catalog"
	"github.com/vendoor/vendoor-backend/internal/ledger"
	"github.com/vendoor/vendoor-backend/internal/stores"
)

type StoresHandler struct {
	Repo     *stores.Repo
	Catalog  *catalog.Repo
	Earnings *ledger.Repo
}

func (h *StoresHandler) RegisterPublic(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/stores/{id}/products", h.listStoreProducts)
}

func (h *StoresHandler) Register(r chi.Router) {
	r.Post("/stores", h.apply)
	r.Patch("/stores/{id}/active", h.setActive)
}

func (h *StoresHandler) RegisterVendor(r chi.Router) {
	r.Get("/store/earnings", h.listEarnings)
}

func (h *StoresHandler) RegisterAdmin(r chi.Router) {
	r.Patch("/admin/stores/{id}", h.review)
}

func (h *StoresHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": ps})
}

func (h *StoresHandler) listStoreProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.ListByStore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": ps})
}

// apply opens a store application; it stays PENDING until an admin reviews it.
func (h *StoresHandler) apply(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeErr(w, http.StatusBadRequest, "VALIDATION", "missing name")
		return
	}

	s, err := h.Repo.Create(r.Context(), c.UserID(), body.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *StoresHandler) review(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status stores.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "VALIDATION", "invalid json")
		return
	}
	if body.Status != stores.StatusApproved && body.Status != stores.StatusRejected {
		writeErr(w, http.StatusBadRequest, "VALIDATION", "status must be APPROVED or REJECTED")
		return
	}

	ok, err := h.Repo.SetStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ok {
		writeErr(w, http.StatusConflict, "CONFLICT", "store is not pending review")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": body.Status})
}

func (h *StoresHandler) setActive(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())

	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "VALIDATION", "invalid json")
		return
	}

	ok, err := h.Repo.SetActive(r.Context(), chi.URLParam(r, "id"), c.UserID(), body.Active)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ok {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "no approved store to update")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": body.Active})
}

func (h *StoresHandler) listEarnings(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())
	if c.StoreID == "" {
		writeErr(w, http.StatusForbidden, "FORBIDDEN", "no store")
		return
	}
	out, err := h.Earnings.ListByStore(r.Context(), c.StoreID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"earnings": out})
}
