// Package cache implements the durable, content-addressed extraction
// cache: one JSON file per source link, named by the SHA-256 hex digest
// of the URL so arbitrary URL characters are safe on disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/edital"
)

// Config captures the parameters for the file cache.
type Config struct {
	// Dir is the root directory where entries are stored.
	Dir string `mapstructure:"dir"`
	// TTL is how long an entry stays fresh; expiry is evaluated lazily
	// at read time.
	TTL time.Duration `mapstructure:"ttl"`
}

// Store is a file-backed edital.Cache. A Store whose directory turned
// out to be unwritable keeps working in pass-through mode: Get always
// misses and Put is a no-op, so extraction never aborts over caching.
type Store struct {
	dir      string
	ttl      time.Duration
	clock    edital.Clock
	logger   *zap.Logger
	disabled bool
}

// New creates the cache directory if needed and probes it for
// writability. A probe failure degrades to a disabled store rather than
// returning an error.
func New(cfg Config, clock edital.Clock, logger *zap.Logger) *Store {
	s := &Store{dir: cfg.Dir, ttl: cfg.TTL, clock: clock, logger: logger}
	if strings.TrimSpace(cfg.Dir) == "" {
		s.disabled = true
		logger.Warn("cache directory not configured, caching disabled")
		return s
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		s.disabled = true
		logger.Warn("cache directory not creatable, caching disabled",
			zap.String("dir", cfg.Dir), zap.Error(err))
		return s
	}
	probe := filepath.Join(cfg.Dir, ".writable_test")
	if err := os.WriteFile(probe, []byte("probe"), 0o600); err != nil {
		s.disabled = true
		logger.Warn("cache directory not writable, caching disabled",
			zap.String("dir", cfg.Dir), zap.Error(err))
		return s
	}
	if err := os.Remove(probe); err != nil {
		logger.Warn("cache probe cleanup failed", zap.Error(err))
	}
	return s
}

// Key returns the hex digest used as the on-disk name for a link.
func Key(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(link string) string {
	return filepath.Join(s.dir, Key(link)+".json")
}

// Get returns the cached entry for a link, missing when the entry is
// absent, unreadable, or older than the TTL.
func (s *Store) Get(link string) (edital.CacheEntry, bool) {
	if s.disabled {
		return edital.CacheEntry{}, false
	}
	data, err := os.ReadFile(s.path(link))
	if err != nil {
		return edital.CacheEntry{}, false
	}
	var entry edital.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn("cache entry corrupt, treating as miss",
			zap.String("key", Key(link)), zap.Error(err))
		return edital.CacheEntry{}, false
	}
	if s.ttl > 0 && s.clock.Now().Sub(entry.WrittenAt) > s.ttl {
		return edital.CacheEntry{}, false
	}
	return entry, true
}

// Put overwrites the entry for a link. Write failures are logged and
// swallowed; the pipeline result is already in hand at that point.
func (s *Store) Put(link string, entry edital.CacheEntry) {
	if s.disabled {
		return
	}
	if entry.WrittenAt.IsZero() {
		entry.WrittenAt = s.clock.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		s.logger.Warn("cache entry marshal failed", zap.Error(err))
		return
	}
	// Write-then-rename keeps concurrent readers from seeing a torn file.
	tmp := s.path(link) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", Key(link)), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, s.path(link)); err != nil {
		s.logger.Warn("cache rename failed", zap.String("key", Key(link)), zap.Error(err))
	}
}

// Disabled reports whether the store is operating in pass-through mode.
func (s *Store) Disabled() bool { return s.disabled }

// String describes the store for startup logs.
func (s *Store) String() string {
	if s.disabled {
		return "cache(disabled)"
	}
	return fmt.Sprintf("cache(dir=%s ttl=%s)", s.dir, s.ttl)
}
