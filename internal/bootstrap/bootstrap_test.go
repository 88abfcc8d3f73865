package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/kv"
)

func TestOpenMemory(t *testing.T) {
	cfg := config.Defaults()
	cfg.StoreBackend = "memory"
	cfg.EventsBackend = "none"

	rt, err := Open(context.Background(), cfg, Options{Events: true})
	require.NoError(t, err)
	defer rt.Close()

	assert.IsType(t, &kv.Memory{}, rt.Store)
	assert.Nil(t, rt.Redis)
	assert.Nil(t, rt.Events)
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Defaults()
	cfg.RedisAddr = mr.Addr()

	rt, err := Open(context.Background(), cfg, Options{})
	require.NoError(t, err)
	defer rt.Close()

	require.NotNil(t, rt.Redis)
	assert.IsType(t, &kv.Redis{}, rt.Store)

	n, err := rt.Store.Incr(context.Background(), "product_counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpenMemoryWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Defaults()
	cfg.StoreBackend = "memory"
	cfg.RedisAddr = mr.Addr()

	rt, err := Open(context.Background(), cfg, Options{Redis: true})
	require.NoError(t, err)

	require.NotNil(t, rt.Redis)
	assert.IsType(t, &kv.Memory{}, rt.Store)
	rt.Close()
	assert.Error(t, rt.Redis.Ping(context.Background()).Err())
}

func TestOpenErrors(t *testing.T) {
	cfg := config.Defaults()
	cfg.StoreBackend = "memory"
	cfg.EventsBackend = "carrier-pigeon"

	_, err := Open(context.Background(), cfg, Options{Events: true})
	assert.ErrorContains(t, err, "unknown events backend")

	cfg.StoreBackend = "sqlite"
	_, err = Open(context.Background(), cfg, Options{})
	assert.ErrorContains(t, err, "unknown store backend")
}
