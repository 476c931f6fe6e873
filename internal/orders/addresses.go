package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAddressNotFound = errors.New("address not found")

type AddressRepo struct{ DB *pgxpool.Pool }

// Get scopes the lookup to the owner; asking for someone else's address is
// indistinguishable from a missing one.
func (r *AddressRepo) Get(ctx context.Context, id, userID string) (*Address, error) {
	var a Address
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, recipient, phone, line1, city, postal_code
		FROM addresses WHERE id=$1 AND user_id=$2
	`, id, userID).Scan(&a.ID, &a.UserID, &a.Recipient, &a.Phone, &a.Line1, &a.City, &a.PostalCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
