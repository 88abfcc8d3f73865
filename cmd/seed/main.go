package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ariefcatur/go-storefront/internal/bootstrap"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/config"
)

// seed adds the starter catalog to the configured store. Run it once.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	bootstrap.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rt, err := bootstrap.Open(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}
	defer rt.Close()

	log.Info().Str("store", cfg.StoreBackend).Msg("adding starter products")
	created, err := catalog.NewService(rt.Store).Seed(ctx, catalog.StarterProducts())
	if err != nil {
		log.Error().Err(err).Int("created", len(created)).Msg("seed finished with errors")
		rt.Close()
		os.Exit(1)
	}
	log.Info().Int("created", len(created)).Msg("starter products added")
}
