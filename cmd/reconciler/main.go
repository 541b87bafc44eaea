package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/andresfq/go-checkout/internal/checkout"
	"github.com/andresfq/go-checkout/internal/config"
	kafkax "github.com/andresfq/go-checkout/internal/kafka"
	"github.com/andresfq/go-checkout/internal/notifications"
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
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	fulfilled := kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicOrderFulfilled, 1024)
	fulfilled.Start(ctx)

	products := &postgres.ProductStore{DB: db}
	carts := &postgres.CartStore{DB: db}
	orders := &postgres.OrderStore{DB: db}
	gateway := wompi.New(cfg.WompiBaseURL, cfg.WompiPublicKey, cfg.WompiPrivateKey, cfg.IntegritySecret)

	svc := &notifications.Service{
		Reconciler: &checkout.Reconciler{
			Orders:   orders,
			Products: products,
			Carts:    carts,
			Gateway:  gateway,
		},
		Redis:       rdb,
		Fulfilled:   fulfilled,
		ServiceName: cfg.ServiceName + "-reconciler",
	}

	group := getenv("RECONCILER_GROUP", "checkout-reconciler")
	workers := mustAtoi(os.Getenv("RECONCILER_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, checkout.TopicPaymentNotifications, workers)

	go func() {
		log.Printf("reconciler consumer started: group=%s topic=%s workers=%d",
			group, checkout.TopicPaymentNotifications, workers)
		if err := cons.Start(ctx, svc.HandlePaymentNotification); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	fulfilled.Close()
	fulfilled.WaitClosed()
}

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
