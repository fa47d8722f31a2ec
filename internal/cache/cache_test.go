package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestBackends wires both implementations so every test runs against the
// Redis-backed cache and the in-process one.
func newTestBackends(t *testing.T) map[string]Cache {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	memory, err := NewMemoryCache("test", nil)
	require.NoError(t, err)
	t.Cleanup(memory.Close)

	return map[string]Cache{
		"redis":  NewRedisCache(client, "test", nil),
		"memory": memory,
	}
}

func TestCache_SetGet(t *testing.T) {
	for name, backend := range newTestBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, backend.Set(ctx, "greeting", []byte("hello"), nil))

			value, err := backend.Get(ctx, "greeting")
			require.NoError(t, err)
			assert.Equal(t, []byte("hello"), value)
			assert.True(t, backend.Has(ctx, "greeting"))
		})
	}
}

func TestCache_MissReturnsNil(t *testing.T) {
	for name, backend := range newTestBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			value, err := backend.Get(ctx, "absent")
			require.NoError(t, err)
			assert.Nil(t, value)
			assert.False(t, backend.Has(ctx, "absent"))
		})
	}
}

func TestCache_JSONRoundTrip(t *testing.T) {
	for name, backend := range newTestBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			stored := map[string]interface{}{"low": "12.5", "standard": "15.1"}

			require.NoError(t, backend.SetJSON(ctx, "gas-price:1", stored, &GasPriceTTLDuration))

			var loaded map[string]interface{}
			require.NoError(t, backend.GetJSON(ctx, "gas-price:1", &loaded))
			assert.Equal(t, stored, loaded)
		})
	}
}

func TestCache_GetJSONMiss(t *testing.T) {
	for name, backend := range newTestBackends(t) {
		t.Run(name, func(t *testing.T) {
			var dest map[string]interface{}
			err := backend.GetJSON(context.Background(), "absent", &dest)
			assert.Error(t, err)
		})
	}
}

func TestCache_Delete(t *testing.T) {
	for name, backend := range newTestBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, backend.Set(ctx, "ephemeral", []byte("x"), nil))
			require.NoError(t, backend.Delete(ctx, "ephemeral"))

			value, err := backend.Get(ctx, "ephemeral")
			require.NoError(t, err)
			assert.Nil(t, value)
		})
	}
}

func TestRedisCache_TTLExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	backend := NewRedisCache(client, "", nil)
	ctx := context.Background()

	ttl := 15 * time.Second
	require.NoError(t, backend.Set(ctx, "gas-price:1", []byte("{}"), &ttl))
	require.True(t, backend.Has(ctx, "gas-price:1"))

	mr.FastForward(16 * time.Second)

	assert.False(t, backend.Has(ctx, "gas-price:1"))
}

func TestRedisCache_PrefixIsolation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	first := NewRedisCache(client, "chainchat", nil)
	second := NewRedisCache(client, "other", nil)

	require.NoError(t, first.Set(ctx, "shared", []byte("mine"), nil))

	assert.True(t, first.Has(ctx, "shared"))
	assert.False(t, second.Has(ctx, "shared"))
}

func TestRedisCache_DefaultTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	defaultTTL := time.Minute
	backend := NewRedisCache(client, "", &defaultTTL)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "spot", []byte("{}"), nil))
	require.True(t, backend.Has(ctx, "spot"))

	mr.FastForward(61 * time.Second)

	assert.False(t, backend.Has(ctx, "spot"))
}
