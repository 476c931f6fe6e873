package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Earning struct {
	OrderID     string    `json:"order_id"`
	StoreID     string    `json:"store_id"`
	AmountCents int64     `json:"amount_cents"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type Repo struct{ DB *pgxpool.Pool }

// Record writes one earnings row per paid order. order_id is the primary key,
// so replaying the same payment event can never duplicate earnings.
func (r *Repo) Record(ctx context.Context, orderID, storeID string, amountCents int64) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO vendor_earnings(order_id, store_id, amount_cents)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO NOTHING
	`, orderID, storeID, amountCents)
	return err
}

func (r *Repo) ListByStore(ctx context.Context, storeID string) ([]Earning, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, store_id, amount_cents, recorded_at
		FROM vendor_earnings WHERE store_id=$1 ORDER BY recorded_at DESC
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Earning
	for rows.Next() {
		var e Earning
		if err := rows.Scan(&e.OrderID, &e.StoreID, &e.AmountCents, &e.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
