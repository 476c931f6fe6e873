package checkout

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/vendoor/vendoor-backend/internal/cart"
	kafkax "github.com/vendoor/vendoor-backend/internal/kafka"
	"github.com/vendoor/vendoor-backend/internal/orders"
	"github.com/vendoor/vendoor-backend/internal/payment"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "checkout").Logger()

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInactiveVendor   = errors.New("vendor cannot take orders")
	ErrBadPaymentMethod = errors.New("unsupported payment method")
	ErrNotResumable     = errors.New("checkout is not awaiting payment")
)

type Input struct {
	UserID        string
	Member        bool
	AddressID     string
	Items         []cart.Entry
	CouponCode    string
	PaymentMethod orders.PaymentMethod
	TraceID       string
}

type Result struct {
	CheckoutID string
	Orders     []orders.Order
	SessionURL string
}

// Service runs the checkout saga: reconcile cart, gate the coupon, split per
// vendor, create one order per vendor transactionally, then hand the total to
// the payment provider (CARD) or confirm immediately (COD). Any failure after
// the first vendor order compensates by deleting what was created and
// restoring its stock, so a checkout never leaves partial state behind.
type Service struct {
	Catalog   CatalogResolver
	Orders    OrderStore
	Addresses AddressStore
	Coupons   CouponGate
	Cart      CartStore
	Payments  SessionCreator
	Placed    Publisher

	Policy      Policy
	SessionTTL  time.Duration
	ServiceName string
}

func (s *Service) Checkout(ctx context.Context, in Input) (Result, error) {
	if in.PaymentMethod != orders.PaymentCard && in.PaymentMethod != orders.PaymentCOD {
		return Result{}, fmt.Errorf("%w: %s", ErrBadPaymentMethod, in.PaymentMethod)
	}

	addr, err := s.Addresses.Get(ctx, in.AddressID, in.UserID)
	if err != nil {
		return Result{}, err
	}

	entries := in.Items
	if len(entries) == 0 {
		if entries, err = s.Cart.Get(ctx, in.UserID); err != nil {
			return Result{}, err
		}
	}
	if len(entries) == 0 {
		return Result{}, ErrEmptyCart
	}

	priced, err := s.Catalog.Resolve(ctx, entries)
	if err != nil {
		return Result{}, err
	}

	groups, excluded := cart.GroupByVendor(priced)
	if len(excluded) > 0 {
		return Result{}, fmt.Errorf("%w: product %s", ErrInactiveVendor, excluded[0].ProductID)
	}
	if len(groups) == 0 {
		return Result{}, ErrEmptyCart
	}

	// Coupon is validated once per checkout; the percentage then applies to
	// every vendor order's subtotal.
	discountPercent := 0
	if in.CouponCode != "" {
		c, err := s.Coupons.Validate(ctx, in.CouponCode, in.UserID, in.Member)
		if err != nil {
			return Result{}, err
		}
		discountPercent = c.Percent
	}

	initial := orders.StatusPending
	if in.PaymentMethod == orders.PaymentCard {
		initial = orders.StatusPendingPayment
	}

	checkoutID := uuid.NewString()
	created := make([]orders.Order, 0, len(groups))
	for _, g := range groups {
		q := PriceGroup(g, discountPercent, in.Member, s.Policy)
		o := orders.Order{
			ID:                  uuid.NewString(),
			CheckoutID:          checkoutID,
			UserID:              in.UserID,
			StoreID:             g.StoreID,
			Status:              initial,
			SubtotalCents:       q.SubtotalCents,
			DiscountCents:       q.DiscountCents,
			ShippingFeeCents:    q.ShippingFeeCents,
			PlatformFeeBps:      s.Policy.PlatformFeeBps,
			PlatformFeeCents:    q.PlatformFeeCents,
			VendorEarningsCents: q.VendorEarningsCents,
			TotalCents:          q.TotalCents,
			CouponCode:          in.CouponCode,
			PaymentMethod:       in.PaymentMethod,
			ShipTo:              *addr,
		}
		items := make([]orders.OrderItem, 0, len(g.Items))
		for _, it := range g.Items {
			items = append(items, orders.OrderItem{
				OrderID:    o.ID,
				ProductID:  it.ProductID,
				VariantID:  it.VariantID,
				Name:       it.Name,
				PriceCents: it.PriceCents,
				Qty:        it.Qty,
			})
		}
		if err := s.Orders.CreateVendorOrder(ctx, &o, items); err != nil {
			s.compensate(ctx, created)
			return Result{}, err
		}
		created = append(created, o)
	}

	res := Result{CheckoutID: checkoutID, Orders: created}

	if in.PaymentMethod == orders.PaymentCard {
		sess, err := s.createSession(ctx, checkoutID, created, groups)
		if err != nil {
			s.compensate(ctx, created)
			return Result{}, err
		}
		if err := s.Orders.SetPaymentRef(ctx, checkoutID, sess.ID); err != nil {
			s.compensate(ctx, created)
			return Result{}, err
		}
		res.SessionURL = sess.URL
	} else {
		for _, o := range created {
			s.publishPlaced(o, in.TraceID)
		}
	}

	if err := s.Cart.Clear(ctx, in.UserID); err != nil {
		logger.Warn().Err(err).Str("user_id", in.UserID).Msg("clear cart")
	}

	return res, nil
}

// ResumePayment rebuilds a session for a checkout stuck in PENDING_PAYMENT,
// e.g. after the customer abandoned the hosted page or the session expired
// before the webhook arrived.
func (s *Service) ResumePayment(ctx context.Context, userID, checkoutID string) (string, error) {
	list, err := s.Orders.ListByCheckout(ctx, checkoutID)
	if err != nil {
		return "", err
	}
	if len(list) == 0 || list[0].UserID != userID {
		return "", orders.ErrNotFound
	}
	for _, o := range list {
		if o.Status != orders.StatusPendingPayment {
			return "", ErrNotResumable
		}
	}

	var lineItems []payment.LineItem
	ids := make([]string, 0, len(list))
	for _, o := range list {
		ids = append(ids, o.ID)
		items, err := s.Orders.ItemsByOrder(ctx, o.ID)
		if err != nil {
			return "", err
		}
		for _, it := range items {
			lineItems = append(lineItems, payment.LineItem{Name: it.Name, PriceCents: it.PriceCents, Qty: it.Qty})
		}
	}

	sess, err := s.Payments.CreateSession(ctx, payment.SessionRequest{
		Reference: checkoutID,
		LineItems: lineItems,
		Metadata: map[string]string{
			"order_ids":   strings.Join(ids, ","),
			"checkout_id": checkoutID,
		},
		ExpiresIn: s.SessionTTL,
	})
	if err != nil {
		return "", err
	}
	if err := s.Orders.SetPaymentRef(ctx, checkoutID, sess.ID); err != nil {
		return "", err
	}
	return sess.URL, nil
}

func (s *Service) createSession(ctx context.Context, checkoutID string, created []orders.Order, groups []cart.VendorGroup) (payment.Session, error) {
	var lineItems []payment.LineItem
	for _, g := range groups {
		for _, it := range g.Items {
			lineItems = append(lineItems, payment.LineItem{Name: it.Name, PriceCents: it.PriceCents, Qty: it.Qty})
		}
	}
	ids := make([]string, 0, len(created))
	for _, o := range created {
		ids = append(ids, o.ID)
	}
	return s.Payments.CreateSession(ctx, payment.SessionRequest{
		Reference: checkoutID,
		LineItems: lineItems,
		Metadata: map[string]string{
			"order_ids":   strings.Join(ids, ","),
			"checkout_id": checkoutID,
		},
		ExpiresIn: s.SessionTTL,
	})
}

func (s *Service) compensate(ctx context.Context, created []orders.Order) {
	for _, o := range created {
		if err := s.Orders.DeleteAndRestock(ctx, o.ID); err != nil {
			logger.Error().Err(err).Str("order_id", o.ID).Msg("compensate checkout")
		}
	}
}

func (s *Service) publishPlaced(o orders.Order, traceID string) {
	if s.Placed == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       traceID,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID:       o.ID,
			CheckoutID:    o.CheckoutID,
			UserID:        o.UserID,
			StoreID:       o.StoreID,
			TotalCents:    o.TotalCents,
			PaymentMethod: o.PaymentMethod,
		}),
	}
	s.Placed.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
