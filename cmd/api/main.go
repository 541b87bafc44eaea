package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresfq/go-checkout/internal/checkout"
	"github.com/andresfq/go-checkout/internal/config"
	"github.com/andresfq/go-checkout/internal/httpx"
	kafkax "github.com/andresfq/go-checkout/internal/kafka"
	"github.com/andresfq/go-checkout/internal/postgres"
	"github.com/andresfq/go-checkout/internal/redisx"
	"github.com/andresfq/go-checkout/internal/wompi"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMax)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	created := kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicOrderCreated, 1024)
	created.Start(ctx)
	submitted := kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicPaymentSubmitted, 1024)
	submitted.Start(ctx)
	fulfilled := kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicOrderFulfilled, 1024)
	fulfilled.Start(ctx)

	products := &postgres.ProductStore{DB: db}
	customers := &postgres.CustomerStore{DB: db}
	deliveries := &postgres.DeliveryStore{DB: db}
	carts := &postgres.CartStore{DB: db}
	orders := &postgres.OrderStore{DB: db}
	gateway := wompi.New(cfg.WompiBaseURL, cfg.WompiPublicKey, cfg.WompiPrivateKey, cfg.IntegritySecret)

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Intake: &checkout.Intake{
			Products:         products,
			Customers:        customers,
			Deliveries:       deliveries,
			Carts:            carts,
			Orders:           orders,
			BaseFeeCents:     cfg.BaseFeeCents,
			DeliveryFeeCents: cfg.DeliveryFeeCents,
		},
		Payments: &checkout.Payments{
			Orders:    orders,
			Customers: customers,
			Gateway:   gateway,
			Currency:  cfg.Currency,
		},
		Reconciler: &checkout.Reconciler{
			Orders:   orders,
			Products: products,
			Carts:    carts,
			Gateway:  gateway,
		},
		Orders:    orders,
		Created:   created,
		Submitted: submitted,
		Fulfilled: fulfilled,
		Redis:     rdb,
		Service:   cfg.ServiceName,
	}
	oh.Register(router)

	ch := &httpx.CartHandler{
		Carts:            carts,
		Products:         products,
		BaseFeeCents:     cfg.BaseFeeCents,
		DeliveryFeeCents: cfg.DeliveryFeeCents,
	}
	ch.Register(router)

	ph := &httpx.ProductsHandler{Products: products}
	ph.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	created.Close()
	submitted.Close()
	fulfilled.Close()
	cancel()
	created.WaitClosed()
	submitted.WaitClosed()
	fulfilled.WaitClosed()
}
