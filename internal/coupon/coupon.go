package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound    = errors.New("coupon not found")
	ErrExpired     = errors.New("coupon expired")
	ErrNotEligible = errors.New("coupon not eligible")
	ErrInvalid     = errors.New("invalid coupon")
)

type Coupon struct {
	Code        string    `json:"code"`
	Percent     int       `json:"percent"`
	ExpiresAt   time.Time `json:"expires_at"`
	NewUserOnly bool      `json:"new_user_only"`
	MemberOnly  bool      `json:"member_only"`
	CreatedAt   time.Time `json:"created_at"`
}

// DiscountCents applies the coupon to a subtotal, rounding down.
func (c *Coupon) DiscountCents(subtotalCents int64) int64 {
	return subtotalCents * int64(c.Percent) / 100
}

// Lookup is what validation needs from storage: the coupon itself and the
// caller's prior order count for the new-user gate.
type Lookup interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	CountOrdersByUser(ctx context.Context, userID string) (int, error)
}

type Validator struct {
	Repo Lookup
	Now  func() time.Time
}

// Validate runs the checks in a fixed order, each with its own failure mode:
// lookup, expiry, new-user restriction, member restriction. A coupon is
// evaluated once per checkout regardless of how many vendor orders result.
func (v *Validator) Validate(ctx context.Context, code, userID string, member bool) (*Coupon, error) {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}

	c, err := v.Repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !now().Before(c.ExpiresAt) {
		return nil, fmt.Errorf("%w: %s", ErrExpired, code)
	}
	if c.NewUserOnly {
		n, err := v.Repo.CountOrdersByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, fmt.Errorf("%w: %s is for first orders only", ErrNotEligible, code)
		}
	}
	if c.MemberOnly && !member {
		return nil, fmt.Errorf("%w: %s is for members only", ErrNotEligible, code)
	}
	return c, nil
}
