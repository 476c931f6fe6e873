package checkout

import "github.com/vendoor/vendoor-backend/internal/cart"

// Policy is the single shipping/fee policy for the whole platform. Shipping
// is a flat fee per vendor group; whether membership waives it is a config
// choice, not something individual code paths decide.
type Policy struct {
	ShippingFeeCents        int64
	WaiveShippingForMembers bool
	PlatformFeeBps          int64
}

// Quote is the priced form of one vendor group, before any rows exist.
type Quote struct {
	StoreID             string
	SubtotalCents       int64
	DiscountCents       int64
	ShippingFeeCents    int64
	PlatformFeeCents    int64
	VendorEarningsCents int64
	TotalCents          int64
}

// PriceGroup prices one vendor group. The coupon percent is applied to each
// group's subtotal identically; the discount never touches shipping. All
// divisions round down, and earnings are defined as subtotal minus fee so
// earnings+fee always reproduces the subtotal exactly.
func PriceGroup(g cart.VendorGroup, discountPercent int, member bool, p Policy) Quote {
	subtotal := g.SubtotalCents
	discount := subtotal * int64(discountPercent) / 100

	shipping := p.ShippingFeeCents
	if member && p.WaiveShippingForMembers {
		shipping = 0
	}

	fee := subtotal * p.PlatformFeeBps / 10000

	return Quote{
		StoreID:             g.StoreID,
		SubtotalCents:       subtotal,
		DiscountCents:       discount,
		ShippingFeeCents:    shipping,
		PlatformFeeCents:    fee,
		VendorEarningsCents: subtotal - fee,
		TotalCents:          subtotal - discount + shipping,
	}
}

func PriceGroups(groups []cart.VendorGroup, discountPercent int, member bool, p Policy) []Quote {
	out := make([]Quote, 0, len(groups))
	for _, g := range groups {
		out = append(out, PriceGroup(g, discountPercent, member, p))
	}
	return out
}
