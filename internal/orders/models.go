package orders

import "time"

type PaymentMethod string

const (
	PaymentCard PaymentMethod = "CARD"
	PaymentCOD  PaymentMethod = "COD"
)

// Address is both the stored address row and the ship-to snapshot embedded in
// an order. Snapshot means later edits to the address never touch past orders.
type Address struct {
	ID         string `json:"id,omitempty"`
	UserID     string `json:"-"`
	Recipient  string `json:"recipient"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// Order is one vendor's slice of a checkout. A checkout with N vendors in the
// cart produces N orders sharing one checkout_id.
//
// Money invariants, enforced at pricing time and asserted in tests:
//
//	total = subtotal - discount + shipping_fee
//	vendor_earnings + platform_fee = subtotal
type Order struct {
	ID         string `json:"id"`
	CheckoutID string `json:"checkout_id"`
	UserID     string `json:"user_id"`
	StoreID    string `json:"store_id"`
	Status     Status `json:"status"`

	SubtotalCents       int64 `json:"subtotal_cents"`
	DiscountCents       int64 `json:"discount_cents"`
	ShippingFeeCents    int64 `json:"shipping_fee_cents"`
	PlatformFeeBps      int64 `json:"platform_fee_bps"`
	PlatformFeeCents    int64 `json:"platform_fee_cents"`
	VendorEarningsCents int64 `json:"vendor_earnings_cents"`
	TotalCents          int64 `json:"total_cents"`

	CouponCode    string        `json:"coupon_code,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentRef    string        `json:"payment_ref,omitempty"`
	ShipTo        Address       `json:"ship_to"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem is an immutable snapshot of name/price/qty at purchase time.
type OrderItem struct {
	OrderID    string `json:"order_id"`
	ProductID  string `json:"product_id"`
	VariantID  string `json:"variant_id,omitempty"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Qty        int    `json:"qty"`
}
