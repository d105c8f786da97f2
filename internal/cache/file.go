package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"metascraper/internal/fileutil"
	"metascraper/internal/logging"
)

// File stores one JSON document per key under dir. Writers take an
// exclusive flock on dir/.lock; readers take a shared one, so several
// processes can share a cache directory.
type File struct {
	// mu serializes use of the flock handle within this process.
	mu     sync.Mutex
	dir    string
	lock   *flock.Flock
	logger *slog.Logger
	now    func() time.Time
}

type fileEntry struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// NewFile creates the directory if needed and returns a file-backed cache.
func NewFile(dir string, logger *slog.Logger) (*File, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &File{
		dir:    dir,
		lock:   flock.New(filepath.Join(dir, ".lock")),
		logger: logger,
		now:    time.Now,
	}, nil
}

func (c *File) path(key string) string {
	digest := Digest(key)
	return filepath.Join(c.dir, digest[:2], digest+".json")
}

// Get returns the value for key when present and unexpired.
func (c *File) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.lock.TryRLockContext(ctx, lockRetry); err != nil {
		return nil, false, fmt.Errorf("lock cache: %w", err)
	}
	defer c.unlock()

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("corrupt cache entry ignored",
			logging.String(logging.FieldEventType, "cache_entry_corrupt"),
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'metascraper cache clear' if this repeats"),
			logging.String(logging.FieldImpact, "value will be fetched again"))
		return nil, false, nil
	}
	if entry.Key != key || expired(entry.ExpiresAt, c.now()) {
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// Put stores value under key. A non-positive ttl never expires.
func (c *File) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now().UTC()
	data, err := json.Marshal(fileEntry{Key: key, Value: value, StoredAt: now, ExpiresAt: expiry(now, ttl)})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.lock.TryLockContext(ctx, lockRetry); err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}
	defer c.unlock()
	if err := fileutil.WriteFileAtomic(c.path(key), data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Stats walks the directory and counts entries.
func (c *File) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Backend: "file", Location: c.dir}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.lock.TryRLockContext(ctx, lockRetry); err != nil {
		return stats, fmt.Errorf("lock cache: %w", err)
	}
	defer c.unlock()

	now := c.now()
	err := c.walk(func(path string, entry fileEntry, size int64) error {
		stats.Entries++
		stats.Bytes += size
		if expired(entry.ExpiresAt, now) {
			stats.Expired++
		}
		return nil
	})
	return stats, err
}

// Purge deletes expired entries.
func (c *File) Purge(ctx context.Context) (int, error) {
	return c.remove(ctx, func(entry fileEntry, now time.Time) bool {
		return expired(entry.ExpiresAt, now)
	})
}

// Clear deletes every entry.
func (c *File) Clear(ctx context.Context) (int, error) {
	return c.remove(ctx, func(fileEntry, time.Time) bool { return true })
}

// Close releases the lock handle.
func (c *File) Close() error {
	return c.lock.Close()
}

func (c *File) remove(ctx context.Context, match func(fileEntry, time.Time) bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.lock.TryLockContext(ctx, lockRetry); err != nil {
		return 0, fmt.Errorf("lock cache: %w", err)
	}
	defer c.unlock()

	now := c.now()
	removed := 0
	err := c.walk(func(path string, entry fileEntry, _ int64) error {
		if !match(entry, now) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		removed++
		return nil
	})
	return removed, err
}

func (c *File) walk(fn func(path string, entry fileEntry, size int64) error) error {
	return filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var entry fileEntry
		if json.Unmarshal(data, &entry) != nil {
			// Unreadable entries count as expired so purge clears them.
			entry.ExpiresAt = time.Unix(1, 0)
		}
		return fn(path, entry, int64(len(data)))
	})
}

func (c *File) unlock() {
	if err := c.lock.Unlock(); err != nil {
		c.logger.Debug("cache unlock failed", logging.Error(err))
	}
}

const lockRetry = 20 * time.Millisecond
