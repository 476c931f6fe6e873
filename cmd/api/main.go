package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/vendoor/vendoor-backend/internal/cart"
	"github.com/vendoor/vendoor-backend/internal/catalog"
	"github.com/vendoor/vendoor-backend/internal/checkout"
	"github.com/vendoor/vendoor-backend/internal/config"
	"github.com/vendoor/vendoor-backend/internal/coupon"
	"github.com/vendoor/vendoor-backend/internal/httpx"
	kafkax "github.com/vendoor/vendoor-backend/internal/kafka"
	"github.com/vendoor/vendoor-backend/internal/ledger"
	"github.com/vendoor/vendoor-backend/internal/orders"
	"github.com/vendoor/vendoor-backend/internal/payment"
	"github.com/vendoor/vendoor-backend/internal/postgres"
	"github.com/vendoor/vendoor-backend/internal/redisx"
	"github.com/vendoor/vendoor-backend/internal/stores"
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
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	pPlaced.Start(ctx)
	pPaid := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPaid, 1024)
	pPaid.Start(ctx)
	pFailed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPaymentFailed, 1024)
	pFailed.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)
	producers := []*kafkax.Producer{pPlaced, pPaid, pFailed, pStatus}

	// Repos
	orderRepo := &orders.Repo{DB: db}
	addrRepo := &orders.AddressRepo{DB: db}
	storeRepo := &stores.Repo{DB: db}
	catalogRepo := &catalog.Repo{DB: db}
	couponRepo := &coupon.Repo{DB: db}
	earningsRepo := &ledger.Repo{DB: db}
	cartStore := &cart.Store{R: rdb}

	// Services
	validator := &coupon.Validator{Repo: couponRepo}
	checkoutSvc := &checkout.Service{
		Catalog:   catalogRepo,
		Orders:    orderRepo,
		Addresses: addrRepo,
		Coupons:   validator,
		Cart:      cartStore,
		Payments:  payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentAPIKey),
		Placed:    pPlaced,
		Policy: checkout.Policy{
			ShippingFeeCents:        cfg.ShippingFeeCents,
			WaiveShippingForMembers: cfg.ShippingWaivedForMembers,
			PlatformFeeBps:          cfg.PlatformFeeBps,
		},
		SessionTTL:  cfg.CheckoutSessionTTL,
		ServiceName: cfg.ServiceName,
	}

	// Handlers
	router := httpx.NewRouter()

	cartH := &httpx.CartHandler{Cart: cartStore, Catalog: catalogRepo}
	couponH := &httpx.CouponHandler{Validator: validator, Coupons: couponRepo, Cart: cartStore, Catalog: catalogRepo}
	checkoutH := &httpx.CheckoutHandler{Svc: checkoutSvc}
	statusCache := &httpx.RedisStatusCache{R: rdb}
	ordersH := &httpx.OrdersHandler{Repo: orderRepo, Cache: statusCache, Producer: pStatus, Service: cfg.ServiceName}
	storesH := &httpx.StoresHandler{Repo: storeRepo, Catalog: catalogRepo, Earnings: earningsRepo}
	webhookH := &httpx.WebhookHandler{
		Secret:  []byte(cfg.PaymentWebhookSecret),
		Repo:    orderRepo,
		Dedup:   &httpx.RedisEventDedup{R: rdb},
		Cache:   statusCache,
		Paid:    pPaid,
		Failed:  pFailed,
		Service: cfg.ServiceName,
	}

	// Unauthenticated: catalog browsing and the provider callback.
	storesH.RegisterPublic(router)
	webhookH.Register(router)

	// Authenticated surface.
	router.Group(func(r chi.Router) {
		r.Use(httpx.Auth(cfg.JWTSecret))

		cartH.Register(r)
		couponH.Register(r)
		checkoutH.Register(r)
		ordersH.Register(r)
		storesH.Register(r)

		r.Group(func(v chi.Router) {
			v.Use(httpx.RequireRole(httpx.RoleVendor, httpx.RoleAdmin))
			ordersH.RegisterVendor(v)
			storesH.RegisterVendor(v)
		})

		r.Group(func(a chi.Router) {
			a.Use(httpx.RequireRole(httpx.RoleAdmin))
			couponH.RegisterAdmin(a)
			storesH.RegisterAdmin(a)
		})
	})

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range producers {
		p.Close()
	}
	cancel()
	for _, p := range producers {
		p.WaitClosed()
	}
}
