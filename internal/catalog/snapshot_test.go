package catalog

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	snapshot map[string]Product
	err      error
	calls    int
}

func (s *staticSource) Snapshot(ctx context.Context) (map[string]Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

func newTestCache(t *testing.T, source *staticSource) (*SnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSnapshotCache(rdb, source, time.Minute, slog.Default()), mr
}

func TestSnapshotCacheMissLoadsAndCaches(t *testing.T) {
	source := &staticSource{snapshot: map[string]Product{
		"7501001234567": {ID: 1, Name: "Paracetamol", PurchasePrice: 10, SalePrice: 17},
	}}
	cache, mr := newTestCache(t, source)
	ctx := context.Background()

	got, err := cache.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, source.calls)
	require.True(t, mr.Exists("catalog:snapshot"))

	// Second read hits the cache.
	got, err = cache.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, source.calls)
}

func TestSnapshotCacheCorruptEntryReloads(t *testing.T) {
	source := &staticSource{snapshot: map[string]Product{"750": {ID: 1, Name: "X"}}}
	cache, mr := newTestCache(t, source)
	require.NoError(t, mr.Set("catalog:snapshot", "{not json"))

	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, source.calls)
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	source := &staticSource{snapshot: map[string]Product{"750": {ID: 1}}}
	cache, mr := newTestCache(t, source)
	ctx := context.Background()

	_, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists("catalog:snapshot"))

	cache.Invalidate(ctx)
	require.False(t, mr.Exists("catalog:snapshot"))

	_, err = cache.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, source.calls)
}

func TestSnapshotCacheSourceErrorPropagates(t *testing.T) {
	source := &staticSource{err: errors.New("db down")}
	cache, _ := newTestCache(t, source)

	_, err := cache.Get(context.Background())
	require.Error(t, err)
}

func TestSnapshotCacheNilRedisGoesDirect(t *testing.T) {
	source := &staticSource{snapshot: map[string]Product{"750": {ID: 1}}}
	cache := NewSnapshotCache(nil, source, time.Minute, slog.Default())

	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 1, source.calls)
}
