package migrations

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		id UUID PRIMARY KEY,
		owner_user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		active BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		store_id UUID NOT NULL REFERENCES stores(id),
		name TEXT NOT NULL,
		price_cents BIGINT NOT NULL,
		stock INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS addresses (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		recipient TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		line1 TEXT NOT NULL,
		city TEXT NOT NULL,
		postal_code TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS coupons (
		code TEXT PRIMARY KEY,
		percent INT NOT NULL CHECK (percent > 0 AND percent <= 100),
		expires_at TIMESTAMPTZ NOT NULL,
		new_user_only BOOLEAN NOT NULL DEFAULT FALSE,
		member_only BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		checkout_id UUID NOT NULL,
		user_id TEXT NOT NULL,
		store_id UUID NOT NULL REFERENCES stores(id),
		status TEXT NOT NULL,
		subtotal_cents BIGINT NOT NULL,
		discount_cents BIGINT NOT NULL DEFAULT 0,
		shipping_fee_cents BIGINT NOT NULL DEFAULT 0,
		platform_fee_bps BIGINT NOT NULL DEFAULT 0,
		platform_fee_cents BIGINT NOT NULL DEFAULT 0,
		vendor_earnings_cents BIGINT NOT NULL DEFAULT 0,
		total_cents BIGINT NOT NULL,
		coupon_code TEXT,
		payment_method TEXT NOT NULL,
		payment_ref TEXT,
		ship_to JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_checkout ON orders(checkout_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_store ON orders(store_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id UUID NOT NULL,
		variant_id TEXT,
		name TEXT NOT NULL,
		price_cents BIGINT NOT NULL,
		qty INT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
	`CREATE TABLE IF NOT EXISTS vendor_earnings (
		order_id UUID PRIMARY KEY,
		store_id UUID NOT NULL,
		amount_cents BIGINT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS webhook_events (
		event_id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Run applies the schema at startup, retrying while the database comes up.
func Run(ctx context.Context, db *pgxpool.Pool) error {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		if err = apply(ctx, db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return err
}

func apply(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
