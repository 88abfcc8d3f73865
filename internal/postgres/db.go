package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate brings the kv_store schema up to date using the migrations
// embedded in the binary.
func Migrate(dsn string) error {
	target, err := migrateURL(dsn)
	if err != nil {
		return fmt.Errorf("migrate dsn: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, target)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("kv_store schema up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Info().Msg("kv_store migrations applied")
	return nil
}

// migrateURL turns the pool DSN into the pgx5:// URL golang-migrate wants.
// URL DSNs keep every parameter; keyword/value DSNs become query
// parameters on an empty authority (host=/var/run/postgresql included).
func migrateURL(dsn string) (string, error) {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme), nil
		}
	}

	q := url.Values{}
	for _, kv := range splitKeywords(dsn) {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return "", fmt.Errorf("invalid dsn element %q", kv)
		}
		q.Set(strings.TrimSpace(k), v)
	}
	return "pgx5:///?" + q.Encode(), nil
}

// splitKeywords splits "k=v k2='v 2'" on unquoted spaces and unquotes
// values.
func splitKeywords(dsn string) []string {
	var (
		out     []string
		b       strings.Builder
		quoted  bool
		escaped bool
	)
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for _, r := range dsn {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '\'':
			quoted = !quoted
		case r == ' ' && !quoted:
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}
