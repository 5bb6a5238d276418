package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestFetchJSONPopulatesAndHits(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "reports", "tb", "open", "open")
	require.NoError(t, err)

	loads := 0
	loader := func(context.Context) (interface{}, error) {
		loads++
		return map[string]string{"total": "1100.00"}, nil
	}

	var first map[string]string
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	require.Equal(t, 1, loads)
	require.Equal(t, "1100.00", first["total"])

	var second map[string]string
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))
	require.Equal(t, 1, loads, "second fetch must come from the cache")
	require.Equal(t, first, second)
}

func TestBumpInvalidatesVersionedKeys(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "reports", "bs")
	require.NoError(t, err)

	loads := 0
	loader := func(context.Context) (interface{}, error) {
		loads++
		return loads, nil
	}
	var got int
	require.NoError(t, cache.FetchJSON(ctx, before, &got, loader))
	require.Equal(t, 1, got)

	require.NoError(t, cache.Bump(ctx))

	after, err := cache.BuildKey(ctx, "reports", "bs")
	require.NoError(t, err)
	require.NotEqual(t, before, after)

	require.NoError(t, cache.FetchJSON(ctx, after, &got, loader))
	require.Equal(t, 2, got, "bumped version must miss the old entry")
}

func TestCacheNilClientFallsThrough(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "reports", "pl")
	require.NoError(t, err)
	require.Equal(t, "reports:pl", key)

	loads := 0
	var got int
	for i := 0; i < 2; i++ {
		require.NoError(t, cache.FetchJSON(ctx, key, &got, func(context.Context) (interface{}, error) {
			loads++
			return loads, nil
		}))
	}
	require.Equal(t, 2, loads, "without redis every fetch recomputes")
	require.NoError(t, cache.Bump(ctx))
}
