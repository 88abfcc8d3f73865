package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ariefcatur/go-storefront/internal/bootstrap"
	"github.com/ariefcatur/go-storefront/internal/config"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/notifier"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/settings"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	bootstrap.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if cfg.EventsBackend != "kafka" {
		log.Fatal().Str("events", cfg.EventsBackend).Msg("notifier consumes from kafka only")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis always on: dedup keys
	rt, err := bootstrap.Open(ctx, cfg, bootstrap.Options{Redis: true})
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}
	defer rt.Close()

	svc := &notifier.Service{
		Redis:       rt.Redis,
		Settings:    settings.NewService(rt.Store),
		ServiceName: cfg.ServiceName + "-notifier",
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicOrderCreated, cfg.NotifierWorkers)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info().
			Str("group", cfg.NotifierGroup).
			Str("topic", orders.TopicOrderCreated).
			Int("workers", cfg.NotifierWorkers).
			Msg("notifier consumer started")
		if err := cons.Start(ctx, svc.HandleOrderCreated); err != nil {
			log.Error().Err(err).Msg("consumer exit")
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info().Msg("shutting down consumer...")
	case <-ctx.Done():
	}
	cancel()
	<-done
}
