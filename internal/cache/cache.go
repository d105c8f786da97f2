package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"metascraper/internal/config"
	"metascraper/internal/logging"
)

// Cache stores opaque values under string keys with a time-to-live. Keys
// follow the `source|subject|locale` convention built by Key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Stats(ctx context.Context) (Stats, error)
	// Purge removes expired entries.
	Purge(ctx context.Context) (int, error)
	// Clear removes every entry.
	Clear(ctx context.Context) (int, error)
	Close() error
}

// Stats summarizes cache contents.
type Stats struct {
	Backend  string
	Location string
	Entries  int
	Expired  int
	Bytes    int64
}

// Key joins non-empty parts with "|". Parts are trimmed.
func Key(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, "|")
}

// Digest returns the hex SHA-1 of value, used to keep free-text subjects
// out of keys.
func Digest(value string) string {
	sum := sha1.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}

// Open builds the backend selected by cfg. A disabled cache returns Nop.
func Open(cfg *config.Config, logger *slog.Logger) (Cache, error) {
	if cfg == nil || !cfg.Cache.Enabled {
		return Nop{}, nil
	}
	logger = logging.NewComponentLogger(logger, "cache")
	switch cfg.Cache.Backend {
	case config.CacheBackendSQLite:
		return OpenSQLite(filepath.Join(cfg.Paths.CacheDir, "cache.db"), logger)
	case config.CacheBackendFile, "":
		return NewFile(filepath.Join(cfg.Paths.CacheDir, "entries"), logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Nop is a cache that stores nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Put(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Stats(context.Context) (Stats, error) { return Stats{Backend: "none"}, nil }
func (Nop) Purge(context.Context) (int, error) { return 0, nil }
func (Nop) Clear(context.Context) (int, error) { return 0, nil }
func (Nop) Close() error { return nil }

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(expiresAt, now time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}
