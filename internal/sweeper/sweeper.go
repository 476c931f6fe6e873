package sweeper

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/vendoor/vendoor-backend/internal/coupon"
	kafkax "github.com/vendoor/vendoor-backend/internal/kafka"
	"github.com/vendoor/vendoor-backend/internal/orders"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "sweeper").Logger()

// Service runs the periodic housekeeping the request path does not depend on:
// expired coupons are deleted (validation already rejects them lazily), and
// provisional orders whose checkout session can no longer complete are
// removed with their stock returned.
type Service struct {
	Coupons *coupon.Repo
	Orders  *orders.Repo
	Expired *kafkax.Producer

	Interval    time.Duration
	SessionTTL  time.Duration
	ServiceName string
}

func (s *Service) Run(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Service) sweepOnce(ctx context.Context) {
	now := time.Now().UTC()

	if n, err := s.Coupons.DeleteExpired(ctx, now); err != nil {
		logger.Error().Err(err).Msg("delete expired coupons")
	} else if n > 0 {
		logger.Info().Int64("count", n).Msg("expired coupons deleted")
	}

	// A generous margin past the session TTL, so we never race a webhook
	// that is merely slow.
	cutoff := now.Add(-(s.SessionTTL + 5*time.Minute))
	stale, err := s.Orders.StalePendingPayment(ctx, cutoff)
	if err != nil {
		logger.Error().Err(err).Msg("list stale pending-payment orders")
		return
	}

	for _, o := range stale {
		if err := s.Orders.DeleteIfUnpaid(ctx, o.ID); err != nil {
			logger.Error().Err(err).Str("order_id", o.ID).Msg("reap stale order")
			continue
		}
		s.publishExpired(o)
		logger.Info().Str("order_id", o.ID).Str("checkout_id", o.CheckoutID).Msg("stale order reaped")
	}
}

func (s *Service) publishExpired(o orders.Order) {
	if s.Expired == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderExpired,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderExpiredPayload{
			OrderID:    o.ID,
			CheckoutID: o.CheckoutID,
		}),
	}
	s.Expired.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderExpired)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
