package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendoor/vendoor-backend/internal/cart"
)

var ErrProductNotFound = errors.New("product not found")

type Repo struct{ DB *pgxpool.Pool }

// Resolve prices cart entries from the catalog. Prices always come from the
// products table, never from the client. The store's ability to sell rides
// along so the cart layer can exclude dead vendors instead of totaling them.
func (r *Repo) Resolve(ctx context.Context, entries []cart.Entry) ([]cart.PricedItem, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}

	rows, err := r.DB.Query(ctx, `
		SELECT p.id, p.store_id, p.name, p.price_cents,
		       (s.status = 'APPROVED' AND s.active) AS store_ok
		FROM products p
		JOIN stores s ON s.id = p.store_id
		WHERE p.id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type rec struct {
		storeID, name string
		priceCents    int64
		storeOK       bool
	}
	byID := map[string]rec{}
	for rows.Next() {
		var id string
		var x rec
		if err := rows.Scan(&id, &x.storeID, &x.name, &x.priceCents, &x.storeOK); err != nil {
			return nil, err
		}
		byID[id] = x
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]cart.PricedItem, 0, len(entries))
	for _, e := range entries {
		x, ok := byID[e.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, e.ProductID)
		}
		if e.Qty <= 0 {
			return nil, fmt.Errorf("invalid qty for product %s", e.ProductID)
		}
		out = append(out, cart.PricedItem{
			ProductID:  e.ProductID,
			VariantID:  e.VariantID,
			StoreID:    x.storeID,
			Name:       x.name,
			PriceCents: x.priceCents,
			Qty:        e.Qty,
			StoreOK:    x.storeOK,
		})
	}
	return out, nil
}

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	return r.list(ctx, `
		SELECT id, store_id, name, price_cents, stock, created_at, updated_at
		FROM products ORDER BY name`)
}

func (r *Repo) ListByStore(ctx context.Context, storeID string) ([]Product, error) {
	return r.list(ctx, `
		SELECT id, store_id, name, price_cents, stock, created_at, updated_at
		FROM products WHERE store_id=$1 ORDER BY name`, storeID)
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]Product, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.StoreID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
