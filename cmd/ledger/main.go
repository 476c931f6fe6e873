package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vendoor/vendoor-backend/internal/config"
	kafkax "github.com/vendoor/vendoor-backend/internal/kafka"
	"github.com/vendoor/vendoor-backend/internal/ledger"
	"github.com/vendoor/vendoor-backend/internal/orders"
	"github.com/vendoor/vendoor-backend/internal/postgres"
	"github.com/vendoor/vendoor-backend/internal/redisx"
	"github.com/vendoor/vendoor-backend/migrations"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

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

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Service
	svc := &ledger.Service{
		Repo:        &ledger.Repo{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-ledger",
	}

	// Consumer
	group := getenv("LEDGER_GROUP", "ledger-svc")
	workers := mustAtoi(os.Getenv("LEDGER_WORKERS"), "8")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderPaid, workers)

	go func() {
		log.Printf("ledger consumer started: group=%s topic=%s workers=%d", group, orders.TopicOrderPaid, workers)
		if err := cons.Start(ctx, svc.HandleOrderPaid); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
