package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderPaid          = "OrderPaid"
	EventOrderPaymentFailed = "OrderPaymentFailed"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderExpired       = "OrderExpired"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID       string        `json:"order_id"`
	CheckoutID    string        `json:"checkout_id"`
	UserID        string        `json:"user_id"`
	StoreID       string        `json:"store_id"`
	TotalCents    int64         `json:"total_cents"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

type OrderPaidPayload struct {
	OrderID             string `json:"order_id"`
	StoreID             string `json:"store_id"`
	VendorEarningsCents int64  `json:"vendor_earnings_cents"`
	PlatformFeeCents    int64  `json:"platform_fee_cents"`
	PaymentRef          string `json:"payment_ref"`
}

type OrderPaymentFailedPayload struct {
	OrderID    string `json:"order_id"`
	CheckoutID string `json:"checkout_id"`
	Reason     string `json:"reason"` // DECLINED | SESSION_EXPIRED
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	StoreID string `json:"store_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
	Actor   Actor  `json:"actor"`
}

type OrderExpiredPayload struct {
	OrderID    string `json:"order_id"`
	CheckoutID string `json:"checkout_id"`
}

// Partition key = order_id so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
