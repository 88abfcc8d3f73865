// Package bootstrap opens the clients shared by the storefront binaries:
// the document store, Redis and the event publisher.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ariefcatur/go-storefront/internal/config"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/kv"
	"github.com/ariefcatur/go-storefront/internal/mongox"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/rabbit"
	"github.com/ariefcatur/go-storefront/internal/redisx"
)

// SetupLogger configures the global zerolog logger. Anything but "json"
// gets the console writer.
func SetupLogger(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	if format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

type Options struct {
	Redis  bool // open Redis even when it is not the store backend
	Events bool // open the configured event publisher
}

// Runtime holds the opened clients. Redis and Events may be nil.
type Runtime struct {
	Store  kv.Store
	Redis  *redis.Client
	Events orders.Publisher

	closers []func()
}

func Open(ctx context.Context, cfg config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{}

	if cfg.StoreBackend == "redis" || opts.Redis {
		rt.Redis = redisx.New(cfg.RedisAddr)
		if err := rt.Redis.Ping(ctx).Err(); err != nil {
			_ = rt.Redis.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	}

	store, err := openStore(ctx, cfg, rt.Redis)
	if err != nil {
		rt.Close()
		if rt.Redis != nil {
			_ = rt.Redis.Close()
		}
		return nil, err
	}
	rt.Store = store
	rt.closers = append(rt.closers, func() { _ = store.Close() })
	if rt.Redis != nil && cfg.StoreBackend != "redis" {
		rdb := rt.Redis
		rt.closers = append(rt.closers, func() { _ = rdb.Close() })
	}

	if opts.Events {
		if err := rt.openEvents(ctx, cfg); err != nil {
			rt.Close()
			return nil, err
		}
	}
	return rt, nil
}

func openStore(ctx context.Context, cfg config.Config, rdb *redis.Client) (kv.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		return kv.NewRedis(rdb), nil
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
			pool.Close()
			return nil, err
		}
		return kv.NewPostgres(pool), nil
	case "mongo":
		db, err := mongox.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		return kv.NewMongo(db), nil
	case "memory":
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return kv.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func (rt *Runtime) openEvents(ctx context.Context, cfg config.Config) error {
	switch cfg.EventsBackend {
	case "kafka":
		prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
		prod.Start(ctx)
		rt.Events = prod
		rt.closers = append(rt.closers, func() {
			prod.Close()      // tutup inbox -> flush & close writer
			prod.WaitClosed() // drain
		})
	case "rabbitmq":
		pub, err := rabbit.Dial(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			return err
		}
		rt.Events = pub
		rt.closers = append(rt.closers, func() { _ = pub.Close() })
	case "none":
		log.Info().Msg("event publishing disabled")
	default:
		return fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
	return nil
}

// Close releases everything in reverse order of opening.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
