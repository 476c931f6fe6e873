package stores

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("store not found")

type Repo struct{ DB *pgxpool.Pool }

// Create registers a store application. New stores start PENDING and inactive
// until an admin approves them.
func (r *Repo) Create(ctx context.Context, ownerUserID, name string) (*Store, error) {
	s := &Store{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        name,
		Status:      StatusPending,
		Active:      false,
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO stores(id, owner_user_id, name, status, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, s.ID, s.OwnerUserID, s.Name, s.Status, s.Active).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Store, error) {
	var s Store
	err := r.DB.QueryRow(ctx, `
		SELECT id, owner_user_id, name, status, active, created_at, updated_at
		FROM stores WHERE id=$1
	`, id).Scan(&s.ID, &s.OwnerUserID, &s.Name, &s.Status, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SetStatus is the admin approval action. Approving also activates the store;
// rejecting deactivates it.
func (r *Repo) SetStatus(ctx context.Context, id string, status Status) (bool, error) {
	active := status == StatusApproved
	ct, err := r.DB.Exec(ctx, `
		UPDATE stores SET status=$2, active=$3, updated_at=now()
		WHERE id=$1 AND status='PENDING'
	`, id, status, active)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// SetActive lets an owner pause or resume an approved store.
func (r *Repo) SetActive(ctx context.Context, id, ownerUserID string, active bool) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE stores SET active=$3, updated_at=now()
		WHERE id=$1 AND owner_user_id=$2 AND status='APPROVED'
	`, id, ownerUserID, active)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
