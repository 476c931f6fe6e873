package redisx

import "time"

const (
	// Server-side cart: cart:{user_id} -> JSON list of entries
	KeyCart = "cart:%s"

	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup webhook deliveries: webhook:dedup:{event_id}
	KeyWebhookDedup = "webhook:dedup:%s"

	// Dedup event processing per consumer: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCart        = 30 * 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
