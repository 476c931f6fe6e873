package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vendoor/vendoor-backend/internal/cart"
	"github.com/vendoor/vendoor-backend/internal/catalog"
	"github.com/vendoor/vendoor-backend/internal/coupon"
)

type CouponHandler struct {
	Validator *coupon.Validator
	Coupons   *coupon.Repo
	Cart      *cart.Store
	Catalog   *catalog.Repo
}

func (h *CouponHandler) Register(r chi.Router) {
	r.Post("/coupons/apply", h.apply)
}

func (h *CouponHandler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/coupons", h.create)
}

// apply previews a coupon against the caller's current cart: the discount is
// computed per vendor group exactly as checkout will, so the preview never
// disagrees with the final totals.
func (h *CouponHandler) apply(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		writeErr(w, http.StatusBadRequest, "VALIDATION", "missing code")
		return
	}

	cpn, err := h.Validator.Validate(r.Context(), body.Code, c.UserID(), c.Member)
	if err != nil {
		respondError(w, r, err)
		return
	}

	entries, err := h.Cart.Get(r.Context(), c.UserID())
	if err != nil {
		respondError(w, r, err)
		return
	}
	var discount int64
	if len(entries) > 0 {
		priced, err := h.Catalog.Resolve(r.Context(), entries)
		if err != nil {
			respondError(w, r, err)
			return
		}
		groups, _ := cart.GroupByVendor(priced)
		for _, g := range groups {
			discount += cpn.DiscountCents(g.SubtotalCents)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"discount_percent": cpn.Percent,
		"discount_cents":   discount,
	})
}

func (h *CouponHandler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code        string    `json:"code"`
		Percent     int       `json:"percent"`
		ExpiresAt   time.Time `json:"expires_at"`
		NewUserOnly bool      `json:"new_user_only"`
		MemberOnly  bool      `json:"member_only"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		writeErr(w, http.StatusBadRequest, "VALIDATION", "missing code")
		return
	}

	cpn := &coupon.Coupon{
		Code:        body.Code,
		Percent:     body.Percent,
		ExpiresAt:   body.ExpiresAt,
		NewUserOnly: body.NewUserOnly,
		MemberOnly:  body.MemberOnly,
	}
	if err := h.Coupons.Create(r.Context(), cpn); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cpn)
}
