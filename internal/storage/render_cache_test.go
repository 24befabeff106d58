package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for RenderCache:
// - Get on an empty cache reports a miss without error
// - Put then Get returns the stored artifact; entries are keyed by token and format
// - Put replaces an existing entry
// - Clear removes everything and reports the count
// - Stats counts entries and bytes
// - Open creates directories and schema; data persists across reopen
// - Shared connections are not closed by Close
// - Concurrent Put/Get is safe

func TestRenderCache_GetPut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache, err := NewRenderCacheWithDB(NewTestDB(t))
	require.NoError(t, err)

	_, ok, err := cache.Get(ctx, "tok", "png")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "tok", "png", []byte("png-bytes")))
	require.NoError(t, cache.Put(ctx, "tok", "svg", []byte("<svg/>")))

	got, ok, err := cache.Get(ctx, "tok", "png")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("png-bytes"), got)

	got, ok, err = cache.Get(ctx, "tok", "svg")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("<svg/>"), got)

	require.NoError(t, cache.Put(ctx, "tok", "png", []byte("newer")))
	got, _, err = cache.Get(ctx, "tok", "png")
	require.NoError(t, err)
	assert.Equal(t, []byte("newer"), got)
}

func TestRenderCache_ClearAndStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache, err := NewRenderCacheWithDB(NewTestDB(t))
	require.NoError(t, err)

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, CacheStats{}, stats)

	require.NoError(t, cache.Put(ctx, "a", "png", []byte("12345")))
	require.NoError(t, cache.Put(ctx, "b", "png", []byte("123")))

	stats, err = cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, CacheStats{Entries: 2, Bytes: 8}, stats)

	n, err := cache.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, ok, err := cache.Get(ctx, "a", "png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRenderCache_OpenPersists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := NewTestCachePath(t)

	cache, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, cache.Put(ctx, "tok", "png", []byte("data")))
	require.NoError(t, cache.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.Get(ctx, "tok", "png")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("data"), got)

	version, err := GetSchemaVersion(reopened.db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestRenderCache_SharedConnection(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	cache, err := NewRenderCacheWithDB(db)
	require.NoError(t, err)

	require.NoError(t, cache.Close())
	assert.NoError(t, db.Ping(), "shared connection must stay open")
}

func TestRenderCache_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache, err := NewRenderCacheWithDB(NewTestDB(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := string(rune('a' + i))
			assert.NoError(t, cache.Put(ctx, token, "png", []byte(token)))
			got, ok, err := cache.Get(ctx, token, "png")
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []byte(token), got)
		}(i)
	}
	wg.Wait()
}

func TestGetSchemaVersion_NewDatabase(t *testing.T) {
	t.Parallel()

	cache, err := Open(NewTestCachePath(t))
	require.NoError(t, err)
	defer cache.Close()

	version, err := GetSchemaVersion(cache.db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}
