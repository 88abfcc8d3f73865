package settings

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/kv"
	"github.com/ariefcatur/go-storefront/internal/redisx"
)

type countingStore struct {
	kv.Store
	sets atomic.Int32
}

func (c *countingStore) Set(ctx context.Context, key string, value []byte) error {
	c.sets.Add(1)
	return c.Store.Set(ctx, key, value)
}

type brokenStore struct{ kv.Store }

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, assert.AnError
}

func TestGet_WritesDefaultsOnce(t *testing.T) {
	store := &countingStore{Store: kv.NewMemory()}
	s := NewService(store)
	ctx := context.Background()

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *got)

	raw, err := store.Get(ctx, redisx.KeySettings)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"delivery_days_min": 15,
		"delivery_days_max": 30,
		"delivery_warning": "⚠️ Prazo de entrega: 15-30 dias úteis (produto importado)",
		"whatsapp": "5511999999999",
		"instagram": "@crstreet",
		"email": "contato@crstreet.com.br"
	}`, string(raw))

	_, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.sets.Load())
}

func TestGet_ConcurrentFirstRead(t *testing.T) {
	store := &countingStore{Store: kv.NewMemory()}
	s := NewService(store)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 15, got.DeliveryDaysMin)
		}()
	}
	wg.Wait()

	// calls that miss the shared flight read the stored document instead
	assert.Equal(t, int32(1), store.sets.Load())
}

func TestUpdate_FullReplace(t *testing.T) {
	s := NewService(kv.NewMemory())
	ctx := context.Background()

	_, err := s.Get(ctx)
	require.NoError(t, err)

	updated, err := s.Update(ctx, Settings{WhatsApp: "5521988887777"})
	require.NoError(t, err)
	assert.Equal(t, "5521988887777", updated.WhatsApp)

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Settings{WhatsApp: "5521988887777"}, *got)
}

func TestGet_StoreError(t *testing.T) {
	s := NewService(brokenStore{Store: kv.NewMemory()})
	_, err := s.Get(context.Background())
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}

// ctxStore fails like a network-backed store once the caller's context is done.
type ctxStore struct{ kv.Store }

func (c ctxStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Store.Get(ctx, key)
}

func (c ctxStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Store.Set(ctx, key, value)
}

func TestGet_SharedLoadIgnoresCallerCancellation(t *testing.T) {
	s := NewService(ctxStore{Store: kv.NewMemory()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *got)

	again, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *again)
}
