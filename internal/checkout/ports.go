package checkout

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/vendoor/vendoor-backend/internal/cart"
	"github.com/vendoor/vendoor-backend/internal/coupon"
	"github.com/vendoor/vendoor-backend/internal/orders"
	"github.com/vendoor/vendoor-backend/internal/payment"
)

// Narrow views of the concrete repos so the saga can be exercised without
// postgres, redis or a broker behind it.

type CatalogResolver interface {
	Resolve(ctx context.Context, entries []cart.Entry) ([]cart.PricedItem, error)
}

type OrderStore interface {
	CreateVendorOrder(ctx context.Context, o *orders.Order, items []orders.OrderItem) error
	DeleteAndRestock(ctx context.Context, orderID string) error
	SetPaymentRef(ctx context.Context, checkoutID, ref string) error
	ListByCheckout(ctx context.Context, checkoutID string) ([]orders.Order, error)
	ItemsByOrder(ctx context.Context, orderID string) ([]orders.OrderItem, error)
}

type AddressStore interface {
	Get(ctx context.Context, id, userID string) (*orders.Address, error)
}

type CouponGate interface {
	Validate(ctx context.Context, code, userID string, member bool) (*coupon.Coupon, error)
}

type CartStore interface {
	Get(ctx context.Context, userID string) ([]cart.Entry, error)
	Clear(ctx context.Context, userID string) error
}

type SessionCreator interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}
