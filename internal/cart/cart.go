package cart

// Entry is what the client (or the server-side cart) holds before pricing:
// product and quantity only. Prices are always resolved server-side.
type Entry struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Qty       int    `json:"qty"`
}

// PricedItem is an Entry after catalog resolution: authoritative price, the
// owning store and whether that store may currently take orders.
type PricedItem struct {
	ProductID  string `json:"product_id"`
	VariantID  string `json:"variant_id,omitempty"`
	StoreID    string `json:"store_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Qty        int    `json:"qty"`
	StoreOK    bool   `json:"-"`
}

// VendorGroup is one store's slice of the cart with its own subtotal.
type VendorGroup struct {
	StoreID       string
	Items         []PricedItem
	SubtotalCents int64
}

// GroupByVendor splits priced items per store. Items whose store cannot take
// orders are returned separately and never enter a group subtotal. Group order
// follows first appearance in the input.
func GroupByVendor(items []PricedItem) (groups []VendorGroup, excluded []PricedItem) {
	idx := make(map[string]int)
	for _, it := range items {
		if !it.StoreOK {
			excluded = append(excluded, it)
			continue
		}
		i, ok := idx[it.StoreID]
		if !ok {
			i = len(groups)
			idx[it.StoreID] = i
			groups = append(groups, VendorGroup{StoreID: it.StoreID})
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].SubtotalCents += it.PriceCents * int64(it.Qty)
	}
	return groups, excluded
}
