// Package cache_test tests the file-backed extraction cache.
package cache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/cache"
	"github.com/licitaware/edital-resolver/internal/edital"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newStore(t *testing.T, ttl time.Duration, clock *fakeClock) *cache.Store {
	t.Helper()
	return cache.New(cache.Config{Dir: t.TempDir(), TTL: ttl}, clock, zap.NewNop())
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newStore(t, 72*time.Hour, clock)

	entry := edital.CacheEntry{
		Text:        "conteudo do edital",
		Method:      edital.MethodNativeText,
		ContentType: "application/pdf",
		ResolvedURL: "https://example.gov.br/edital.pdf",
	}
	store.Put("https://example.gov.br/licitacao/123", entry)

	got, ok := store.Get("https://example.gov.br/licitacao/123")
	require.True(t, ok)
	assert.Equal(t, entry.Text, got.Text)
	assert.Equal(t, entry.Method, got.Method)
	assert.Equal(t, clock.now, got.WrittenAt.UTC())
}

func TestPutIsIdempotentPerLink(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now()}
	store := newStore(t, 72*time.Hour, clock)

	store.Put("link", edital.CacheEntry{Text: "first", Method: edital.MethodHTML})
	store.Put("link", edital.CacheEntry{Text: "second", Method: edital.MethodHTML})

	got, ok := store.Get("link")
	require.True(t, ok)
	assert.Equal(t, "second", got.Text)
}

func TestGetExpiresLazily(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newStore(t, 72*time.Hour, clock)

	store.Put("link", edital.CacheEntry{Text: "texto", Method: edital.MethodOCR})

	clock.now = clock.now.Add(71 * time.Hour)
	_, ok := store.Get("link")
	assert.True(t, ok, "entry inside the TTL must hit")

	clock.now = clock.now.Add(2 * time.Hour)
	_, ok = store.Get("link")
	assert.False(t, ok, "entry past the TTL must miss")
}

func TestGetMissesOnCorruptEntry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now()}
	dir := t.TempDir()
	store := cache.New(cache.Config{Dir: dir, TTL: time.Hour}, clock, zap.NewNop())

	path := filepath.Join(dir, cache.Key("link")+".json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, ok := store.Get("link")
	assert.False(t, ok)
}

func TestDisabledStorePassesThrough(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now()}
	store := cache.New(cache.Config{Dir: ""}, clock, zap.NewNop())
	require.True(t, store.Disabled())

	store.Put("link", edital.CacheEntry{Text: "texto"})
	_, ok := store.Get("link")
	assert.False(t, ok)
}

func TestKeyIsStableHexDigest(t *testing.T) {
	t.Parallel()

	key := cache.Key("https://example.gov.br/?a=1&b=2")
	assert.Len(t, key, 64)
	assert.Equal(t, key, cache.Key("https://example.gov.br/?a=1&b=2"))
	assert.NotEqual(t, key, cache.Key("https://example.gov.br/?a=1&b=3"))
}
