package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vendoor/vendoor-backend/internal/cart"
	"github.com/vendoor/vendoor-backend/internal/checkout"
	"github.com/vendoor/vendoor-backend/internal/orders"
)

type CheckoutHandler struct {
	Svc *checkout.Service
}

type checkoutReq struct {
	AddressID     string               `json:"address_id"`
	Items         []cart.Entry         `json:"items"`
	CouponCode    string               `json:"coupon_code,omitempty"`
	PaymentMethod orders.PaymentMethod `json:"payment_method"`
}

func (h *CheckoutHandler) Register(r chi.Router) {
	r.Post("/checkout", h.create)
	r.Post("/checkouts/{id}/resume", h.resume)
}

func (h *CheckoutHandler) create(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())

	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "VALIDATION", "invalid json")
		return
	}
	if req.AddressID == "" {
		writeErr(w, http.StatusBadRequest, "VALIDATION", "missing address_id")
		return
	}

	res, err := h.Svc.Checkout(r.Context(), checkout.Input{
		UserID:        c.UserID(),
		Member:        c.Member,
		AddressID:     req.AddressID,
		Items:         req.Items,
		CouponCode:    req.CouponCode,
		PaymentMethod: req.PaymentMethod,
		TraceID:       middleware.GetReqID(r.Context()),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	if res.SessionURL != "" {
		writeJSON(w, http.StatusCreated, map[string]any{
			"checkout_id": res.CheckoutID,
			"session_url": res.SessionURL,
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"checkout_id": res.CheckoutID,
		"orders":      res.Orders,
	})
}

// resume rebuilds the hosted session for a checkout still awaiting payment,
// the manual recovery path when the original session was abandoned.
func (h *CheckoutHandler) resume(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())

	url, err := h.Svc.ResumePayment(r.Context(), c.UserID(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_url": url})
}
