package coupon

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	coupons map[string]*Coupon
	orders  map[string]int
}

func (f *fakeLookup) FindByCode(_ context.Context, code string) (*Coupon, error) {
	c, ok := f.coupons[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return c, nil
}

func (f *fakeLookup) CountOrdersByUser(_ context.Context, userID string) (int, error) {
	return f.orders[userID], nil
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newValidator(coupons map[string]*Coupon, orders map[string]int) *Validator {
	return &Validator{
		Repo: &fakeLookup{coupons: coupons, orders: orders},
		Now:  func() time.Time { return now },
	}
}

func TestValidate_Success(t *testing.T) {
	v := newValidator(map[string]*Coupon{
		"SALE10": {Code: "SALE10", Percent: 10, ExpiresAt: now.Add(24 * time.Hour)},
	}, nil)

	c, err := v.Validate(context.Background(), "SALE10", "u1", false)
	require.NoError(t, err)
	assert.Equal(t, 10, c.Percent)
	assert.Equal(t, int64(20000), c.DiscountCents(200000))
}

func TestValidate_NotFound(t *testing.T) {
	v := newValidator(nil, nil)
	_, err := v.Validate(context.Background(), "NOPE", "u1", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidate_ExpiredBeatsEligibility(t *testing.T) {
	// expired coupon is rejected even when every eligibility flag would pass
	v := newValidator(map[string]*Coupon{
		"OLD": {Code: "OLD", Percent: 50, ExpiresAt: now.Add(-time.Minute), NewUserOnly: true, MemberOnly: true},
	}, nil)

	_, err := v.Validate(context.Background(), "OLD", "u1", true)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	v := newValidator(map[string]*Coupon{
		"EDGE": {Code: "EDGE", Percent: 5, ExpiresAt: now},
	}, nil)

	// now >= expires_at fails
	_, err := v.Validate(context.Background(), "EDGE", "u1", false)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidate_NewUserOnly(t *testing.T) {
	coupons := map[string]*Coupon{
		"WELCOME": {Code: "WELCOME", Percent: 15, ExpiresAt: now.Add(time.Hour), NewUserOnly: true},
	}

	v := newValidator(coupons, map[string]int{"veteran": 3})
	_, err := v.Validate(context.Background(), "WELCOME", "veteran", false)
	assert.ErrorIs(t, err, ErrNotEligible)

	v = newValidator(coupons, map[string]int{})
	_, err = v.Validate(context.Background(), "WELCOME", "fresh", false)
	assert.NoError(t, err)
}

func TestValidate_MemberOnly(t *testing.T) {
	coupons := map[string]*Coupon{
		"PLUS20": {Code: "PLUS20", Percent: 20, ExpiresAt: now.Add(time.Hour), MemberOnly: true},
	}

	v := newValidator(coupons, nil)
	_, err := v.Validate(context.Background(), "PLUS20", "u1", false)
	assert.ErrorIs(t, err, ErrNotEligible)

	_, err = v.Validate(context.Background(), "PLUS20", "u1", true)
	assert.NoError(t, err)
}

func TestDiscountCents_RoundsDown(t *testing.T) {
	c := &Coupon{Percent: 33}
	assert.Equal(t, int64(33), c.DiscountCents(100))
	assert.Equal(t, int64(0), c.DiscountCents(2))
}
