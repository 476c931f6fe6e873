package httpx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vendoor/vendoor-backend/internal/orders"
	"github.com/vendoor/vendoor-backend/internal/redisx"
)

// statusView is the cached order projection behind GET /orders/{id}/status.
// Owner ids ride along so a cache hit can still answer "may this caller see
// it" without touching the database.
type statusView struct {
	Status  orders.Status `json:"status"`
	UserID  string        `json:"user_id"`
	StoreID string        `json:"store_id"`
}

// StatusCache is what the order read path needs on top of the webhook's
// write-only view.
type StatusCache interface {
	StatusCachePutter
	Get(ctx context.Context, orderID string) (statusView, bool)
}

type RedisStatusCache struct {
	R *redis.Client
}

func (c *RedisStatusCache) Put(ctx context.Context, o *orders.Order, st orders.Status) {
	b, err := json.Marshal(statusView{Status: st, UserID: o.UserID, StoreID: o.StoreID})
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	_ = c.R.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}

func (c *RedisStatusCache) Get(ctx context.Context, orderID string) (statusView, bool) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	s, err := c.R.Get(ctx, key).Result()
	if err != nil || s == "" {
		return statusView{}, false
	}
	var v statusView
	if json.Unmarshal([]byte(s), &v) != nil || v.Status == "" {
		return statusView{}, false
	}
	return v, true
}

// RedisEventDedup is the fast half of webhook dedup; the webhook_events row
// is the durable half. Losing a redis key only costs one extra DB lookup.
type RedisEventDedup struct {
	R *redis.Client
}

func (d *RedisEventDedup) Seen(ctx context.Context, eventID string) bool {
	seen, _ := redisx.Exists(ctx, d.R, fmt.Sprintf(redisx.KeyWebhookDedup, eventID))
	return seen
}

func (d *RedisEventDedup) Mark(ctx context.Context, eventID string) {
	_ = d.R.Set(ctx, fmt.Sprintf(redisx.KeyWebhookDedup, eventID), "1", redisx.TTLDedup).Err()
}
