package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

// OutOfStockError carries enough detail for a useful checkout failure.
type OutOfStockError struct {
	ProductID string
	Required  int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock: product %s requires %d, available %d", e.ProductID, e.Required, e.Available)
}

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `
	id, checkout_id, user_id, store_id, status,
	subtotal_cents, discount_cents, shipping_fee_cents,
	platform_fee_bps, platform_fee_cents, vendor_earnings_cents, total_cents,
	COALESCE(coupon_code, ''), payment_method, COALESCE(payment_ref, ''),
	ship_to, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var shipTo []byte
	err := row.Scan(
		&o.ID, &o.CheckoutID, &o.UserID, &o.StoreID, &o.Status,
		&o.SubtotalCents, &o.DiscountCents, &o.ShippingFeeCents,
		&o.PlatformFeeBps, &o.PlatformFeeCents, &o.VendorEarningsCents, &o.TotalCents,
		&o.CouponCode, &o.PaymentMethod, &o.PaymentRef,
		&shipTo, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(shipTo, &o.ShipTo); err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateVendorOrder writes one vendor's order plus item snapshots and
// decrements stock, all in a single transaction. Product rows are locked
// (FOR UPDATE) so two concurrent checkouts cannot oversell.
func (r *Repo) CreateVendorOrder(ctx context.Context, o *Order, items []OrderItem) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, it := range items {
		var stock int
		if err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).Scan(&stock); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("product not found: %s", it.ProductID)
			}
			return err
		}
		if stock < it.Qty {
			return &OutOfStockError{ProductID: it.ProductID, Required: it.Qty, Available: stock}
		}
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2 WHERE id=$1`, it.ProductID, it.Qty); err != nil {
			return err
		}
	}

	shipTo, err := json.Marshal(o.ShipTo)
	if err != nil {
		return err
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(
			id, checkout_id, user_id, store_id, status,
			subtotal_cents, discount_cents, shipping_fee_cents,
			platform_fee_bps, platform_fee_cents, vendor_earnings_cents, total_cents,
			coupon_code, payment_method, ship_to)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NULLIF($13,''),$14,$15)
		RETURNING created_at, updated_at
	`, o.ID, o.CheckoutID, o.UserID, o.StoreID, o.Status,
		o.SubtotalCents, o.DiscountCents, o.ShippingFeeCents,
		o.PlatformFeeBps, o.PlatformFeeCents, o.VendorEarningsCents, o.TotalCents,
		o.CouponCode, o.PaymentMethod, shipTo,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, variant_id, name, price_cents, qty)
			VALUES ($1,$2,NULLIF($3,''),$4,$5,$6)
		`, o.ID, it.ProductID, it.VariantID, it.Name, it.PriceCents, it.Qty); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DeleteAndRestock removes a provisional order as checkout compensation for a
// sibling vendor's failure and returns its stock. COD orders are created
// directly in PENDING, so compensation must accept both pre-fulfillment
// statuses. Orders already in fulfillment are left alone, so the call is safe
// to repeat.
func (r *Repo) DeleteAndRestock(ctx context.Context, orderID string) error {
	return r.deleteRestocking(ctx, orderID, StatusPendingPayment, StatusPending)
}

// DeleteIfUnpaid removes an order only while it still awaits payment. This is
// the variant for payment failure webhooks and the stale-session sweep: a
// late decline or expiry event must never reap an order a completed event
// already settled.
func (r *Repo) DeleteIfUnpaid(ctx context.Context, orderID string) error {
	return r.deleteRestocking(ctx, orderID, StatusPendingPayment)
}

func (r *Repo) deleteRestocking(ctx context.Context, orderID string, allowed ...Status) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil // already gone
	}
	if err != nil {
		return err
	}
	ok := false
	for _, a := range allowed {
		if status == a {
			ok = true
			break
		}
	}
	if !ok {
		return nil
	}

	if err := restockItems(ctx, tx, orderID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, orderID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func restockItems(ctx context.Context, tx pgx.Tx, orderID string) error {
	rows, err := tx.Query(ctx, `SELECT product_id, qty FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return err
	}
	defer rows.Close()

	type rec struct {
		pid string
		qty int
	}
	var recs []rec
	for rows.Next() {
		var x rec
		if err := rows.Scan(&x.pid, &x.qty); err != nil {
			return err
		}
		recs = append(recs, x)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, x := range recs {
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id=$1`, x.pid, x.qty); err != nil {
			return err
		}
	}
	return nil
}

// MarkPaid settles one order from the payment webhook. The conditional WHERE
// makes redelivery a no-op: changed=false means the order was not in
// PENDING_PAYMENT anymore.
func (r *Repo) MarkPaid(ctx context.Context, orderID, paymentRef string) (*Order, bool, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE orders SET status=$2, payment_ref=$3, updated_at=now()
		WHERE id=$1 AND status=$4
		RETURNING `+orderColumns, orderID, StatusPending, paymentRef, StatusPendingPayment)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return o, true, nil
}

// UpdateStatus performs a plain conditional transition. Legality per actor is
// checked by the caller against the status machine.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, from, to Status) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$3, updated_at=now() WHERE id=$1 AND status=$2
	`, orderID, from, to)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// CancelAndRestock transitions to CANCELLED/REFUNDED and returns held stock
// in the same transaction. The order row is kept for history.
func (r *Repo) CancelAndRestock(ctx context.Context, orderID string, from, to Status) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status=$3, updated_at=now() WHERE id=$1 AND status=$2
	`, orderID, from, to)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() != 1 {
		return false, nil
	}
	if err := restockItems(ctx, tx, orderID); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

// SetPaymentRef stamps the provider session id on every order of a checkout.
func (r *Repo) SetPaymentRef(ctx context.Context, checkoutID, ref string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE orders SET payment_ref=$2, updated_at=now() WHERE checkout_id=$1
	`, checkoutID, ref)
	return err
}

func (r *Repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *Repo) ListByStore(ctx context.Context, storeID string) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE store_id=$1 ORDER BY created_at DESC`, storeID)
}

func (r *Repo) ListByCheckout(ctx context.Context, checkoutID string) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE checkout_id=$1 ORDER BY created_at`, checkoutID)
}

// StalePendingPayment finds provisional orders whose checkout session must
// have expired; the sweeper cleans these up.
func (r *Repo) StalePendingPayment(ctx context.Context, before time.Time) ([]Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status=$1 AND created_at < $2 ORDER BY created_at
	`, StatusPendingPayment, before)
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *Repo) ItemsByOrder(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, COALESCE(variant_id, ''), name, price_cents, qty
		FROM order_items WHERE order_id=$1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.VariantID, &it.Name, &it.PriceCents, &it.Qty); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// WebhookSeen / RecordWebhookEvent are the durable half of webhook dedup;
// redis is only the fast path.
func (r *Repo) WebhookSeen(ctx context.Context, eventID string) (bool, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM webhook_events WHERE event_id=$1`, eventID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repo) RecordWebhookEvent(ctx context.Context, eventID, eventType string) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO webhook_events(event_id, event_type) VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType)
	return err
}
