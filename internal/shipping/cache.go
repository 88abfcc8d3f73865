package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ariefcatur/go-storefront/internal/redisx"
)

// CachedLookup is a read-through Redis cache in front of another Lookup.
// Only successful lookups are cached; cache failures fall through.
type CachedLookup struct {
	Next  Lookup
	Redis *redis.Client
	TTL   time.Duration
}

func NewCachedLookup(next Lookup, rdb *redis.Client) *CachedLookup {
	return &CachedLookup{Next: next, Redis: rdb, TTL: redisx.TTLPostalCode}
}

func (c *CachedLookup) Lookup(ctx context.Context, cep string) (*Address, error) {
	key := fmt.Sprintf(redisx.KeyPostalCode, cep)

	if b, err := c.Redis.Get(ctx, key).Bytes(); err == nil {
		var a Address
		if err := json.Unmarshal(b, &a); err == nil {
			return &a, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("cep", cep).Msg("cep cache read failed")
	}

	a, err := c.Next.Lookup(ctx, cep)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(a); err == nil {
		if err := c.Redis.Set(ctx, key, b, c.TTL).Err(); err != nil {
			log.Warn().Err(err).Str("cep", cep).Msg("cep cache write failed")
		}
	}
	return a, nil
}
