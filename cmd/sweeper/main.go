package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vendoor/vendoor-backend/internal/config"
	"github.com/vendoor/vendoor-backend/internal/coupon"
	kafkax "github.com/vendoor/vendoor-backend/internal/kafka"
	"github.com/vendoor/vendoor-backend/internal/orders"
	"github.com/vendoor/vendoor-backend/internal/postgres"
	"github.com/vendoor/vendoor-backend/internal/sweeper"
	"github.com/vendoor/vendoor-backend/migrations"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Producer for abandoned checkouts
	pExpired := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderExpired, 1024)
	pExpired.Start(ctx)

	svc := &sweeper.Service{
		Coupons:     &coupon.Repo{DB: db},
		Orders:      &orders.Repo{DB: db},
		Expired:     pExpired,
		Interval:    cfg.SweepInterval,
		SessionTTL:  cfg.CheckoutSessionTTL,
		ServiceName: cfg.ServiceName + "-sweeper",
	}

	go func() {
		log.Printf("sweeper started: interval=%s", cfg.SweepInterval)
		svc.Run(ctx)
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down sweeper...")
	pExpired.Close()
	cancel()
	pExpired.WaitClosed()
}
