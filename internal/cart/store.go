package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vendoor/vendoor-backend/internal/redisx"
)

// Store keeps the pre-checkout cart per user in redis. The cart is a quote
// aid, not durable state: checkout re-prices everything from the catalog.
type Store struct {
	R *redis.Client
}

func (s *Store) Get(ctx context.Context, userID string) ([]Entry, error) {
	key := fmt.Sprintf(redisx.KeyCart, userID)
	raw, err := s.R.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) Set(ctx context.Context, userID string, entries []Entry) error {
	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyCart, userID)
	return s.R.Set(ctx, key, b, redisx.TTLCart).Err()
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	key := fmt.Sprintf(redisx.KeyCart, userID)
	return s.R.Del(ctx, key).Err()
}
