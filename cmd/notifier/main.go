package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/roomly/go-room-booking/internal/booking"
	"github.com/roomly/go-room-booking/internal/config"
	kafkax "github.com/roomly/go-room-booking/internal/kafka"
	"github.com/roomly/go-room-booking/internal/logx"
	"github.com/roomly/go-room-booking/internal/notifier"
	"github.com/roomly/go-room-booking/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(cfg.LogLevel, cfg.ServiceName+"-notifier")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notifier.Service{
		Redis:       rdb,
		Log:         log,
		ServiceName: cfg.ServiceName + "-notifier",
	}

	group := getenv("NOTIFIER_GROUP", "booking-notifier")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), 4)

	topics := []string{booking.TopicBookingConfirmed, booking.TopicBookingCancelled}
	var wg sync.WaitGroup
	for _, topic := range topics {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers, log)
		wg.Add(1)
		go func(topic string, cons *kafkax.Consumer) {
			defer wg.Done()
			log.Info("notifier consumer started", "group", group, "topic", topic, "workers", workers)
			if err := cons.Start(ctx, svc.HandleBookingEvent); err != nil {
				log.Error("consumer exited", "topic", topic, "error", err)
				cancel()
			}
		}(topic, cons)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down notifier")
	cancel()
	wg.Wait()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
