package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/roomly/go-room-booking/internal/booking"
	"github.com/roomly/go-room-booking/internal/config"
	"github.com/roomly/go-room-booking/internal/httpx"
	kafkax "github.com/roomly/go-room-booking/internal/kafka"
	"github.com/roomly/go-room-booking/internal/logx"
	"github.com/roomly/go-room-booking/internal/postgres"
	"github.com/roomly/go-room-booking/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(cfg.LogLevel, cfg.ServiceName)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, 8)
	if err != nil {
		log.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	pConfirmed := kafkax.NewProducer(cfg.KafkaBrokers, booking.TopicBookingConfirmed, 1024, log)
	pConfirmed.Start(ctx)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, booking.TopicBookingCancelled, 1024, log)
	pCancelled.Start(ctx)

	store := &booking.Store{DB: db}
	rooms := &booking.Rooms{DB: db}
	coordinator := booking.NewCoordinator(store, rooms, log, booking.CoordinatorConfig{
		MaxAttempts: cfg.BookingMaxAttempts,
		BackoffBase: cfg.BookingBackoffBase,
	})
	lifecycle := booking.NewLifecycle(store, log)

	router := httpx.NewRouter()
	bh := &httpx.BookingsHandler{
		Coordinator: coordinator,
		Lifecycle:   lifecycle,
		Store:       store,
		Rooms:       rooms,
		Confirmed:   pConfirmed,
		Cancelled:   pCancelled,
		Redis:       rdb,
		Service:     cfg.ServiceName,
		Log:         log,
	}
	bh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	// Close inboxes so the producer loops flush and exit before we drop ctx.
	pConfirmed.Close()
	pCancelled.Close()
	pConfirmed.WaitClosed()
	pCancelled.WaitClosed()
}
