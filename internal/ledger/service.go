package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/vendoor/vendoor-backend/internal/kafka"
	"github.com/vendoor/vendoor-backend/internal/orders"
	"github.com/vendoor/vendoor-backend/internal/redisx"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "ledger").Logger()

// Service consumes OrderPaid events and records vendor earnings. Kafka is
// at-least-once, so the handler dedups on event id and the insert itself is
// conflict-free on replay.
type Service struct {
	Repo        *Repo
	Redis       *redis.Client
	ServiceName string
}

func (s *Service) HandleOrderPaid(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPaid {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "ledger", env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPaidPayload](env.Payload)
	if err != nil {
		return err
	}

	if err := s.Repo.Record(ctx, p.OrderID, p.StoreID, p.VendorEarningsCents); err != nil {
		return err
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	logger.Info().
		Str("order_id", p.OrderID).
		Str("store_id", p.StoreID).
		Int64("amount_cents", p.VendorEarningsCents).
		Msg("earnings recorded")
	return nil
}
