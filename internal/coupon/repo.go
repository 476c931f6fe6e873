package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	err := r.DB.QueryRow(ctx, `
		SELECT code, percent, expires_at, new_user_only, member_only, created_at
		FROM coupons WHERE code=$1
	`, code).Scan(&c.Code, &c.Percent, &c.ExpiresAt, &c.NewUserOnly, &c.MemberOnly, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountOrdersByUser backs the new-user-only gate. Provisional orders count
// too: a user mid-checkout on another tab is not a new user anymore.
func (r *Repo) CountOrdersByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id=$1`, userID).Scan(&n)
	return n, err
}

// Create validates and persists a new coupon (admin action).
func (r *Repo) Create(ctx context.Context, c *Coupon) error {
	if c.Percent <= 0 || c.Percent > 100 {
		return fmt.Errorf("%w: percent must be in 1..100", ErrInvalid)
	}
	if !c.ExpiresAt.After(time.Now()) {
		return fmt.Errorf("%w: expiry must be in the future", ErrInvalid)
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO coupons(code, percent, expires_at, new_user_only, member_only)
		VALUES ($1, $2, $3, $4, $5)
	`, c.Code, c.Percent, c.ExpiresAt, c.NewUserOnly, c.MemberOnly)
	return err
}

// DeleteExpired is the periodic sweep. Validation checks expiry lazily, so
// this only keeps the table tidy; correctness never depends on it.
func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ct, err := r.DB.Exec(ctx, `DELETE FROM coupons WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
