package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ariefcatur/go-storefront/internal/bootstrap"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/httpx"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/payment"
	"github.com/ariefcatur/go-storefront/internal/settings"
	"github.com/ariefcatur/go-storefront/internal/shipping"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	bootstrap.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	if err := cfg.RequireAPIAuth(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	channel, err := checkout.ParseChannel(cfg.CheckoutChannel)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := bootstrap.Open(ctx, cfg, bootstrap.Options{
		Redis:  cfg.CEPCache,
		Events: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}

	// Services
	products := catalog.NewService(rt.Store)
	ords := orders.NewService(rt.Store, rt.Events, cfg.ServiceName)
	st := settings.NewService(rt.Store)

	var lookup shipping.Lookup = shipping.NewViaCEP(cfg.ViaCEPURL, 5*time.Second)
	if cfg.CEPCache && rt.Redis != nil {
		lookup = shipping.NewCachedLookup(lookup, rt.Redis)
	}
	estimator := shipping.NewEstimator(lookup, cfg.FreeShipping)

	co := &checkout.Service{
		Products: products,
		Orders:   ords,
		Shipping: estimator,
		Settings: st,
		Channel:  channel,
	}
	if channel == checkout.ChannelMercadoPago {
		co.Gateway = payment.NewMercadoPago(cfg.MPBaseURL, cfg.MPAccessToken, cfg.MPBackURL, cfg.MPNotificationURL)
	}

	// Router
	auth := httpx.Authenticator{APIKey: cfg.APIKey, JWTSecret: []byte(cfg.JWTSecret)}
	if !auth.Enabled() {
		log.Warn().Msg("API_KEY and JWT_SECRET are empty, requests are not authenticated (memory store)")
	}
	router := httpx.NewRouter(cfg.CORSAllowOrigin)
	httpx.Mount(router, cfg.ServicePath, auth, &httpx.Handlers{
		Products:      products,
		Orders:        ords,
		Settings:      st,
		Shipping:      estimator,
		Checkout:      co,
		Events:        rt.Events,
		WebhookSecret: cfg.MPWebhookSecret,
		ServiceName:   cfg.ServiceName,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// graceful shutdown
	go func() {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("path", cfg.ServicePath).
			Str("store", cfg.StoreBackend).
			Str("events", cfg.EventsBackend).
			Str("checkout", string(channel)).
			Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	rt.Close() // flush producer, then stores
	cancel()
}
