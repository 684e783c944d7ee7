package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ludo-technologies/bcflow/domain"
	"github.com/ludo-technologies/bcflow/internal/version"
)

// cacheEntry is the on-disk form of one cached file.
type cacheEntry struct {
	Engine    string                `msgpack:"engine"`
	Results   []domain.MethodResult `msgpack:"results"`
	CreatedAt int64                 `msgpack:"created_at"`
}

// ResultCache keeps structuring results per file content and engine options
// in memory and, when dir is set, as one msgpack file per key. It is safe for
// concurrent use.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string][]domain.MethodResult
	dir     string
}

// NewResultCache creates a cache. An empty dir keeps results in memory only.
func NewResultCache(dir string) *ResultCache {
	return &ResultCache{
		entries: make(map[string][]domain.MethodResult),
		dir:     dir,
	}
}

// Key hashes the file content together with the engine options and version.
func (c *ResultCache) Key(content []byte, opts domain.EngineOptions) string {
	h := sha256.New()
	h.Write([]byte(version.UserAgent()))
	h.Write([]byte{0})
	if b, err := msgpack.Marshal(opts); err == nil {
		h.Write(b)
	}
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached results for key, marked as cached.
func (c *ResultCache) Get(key string) ([]domain.MethodResult, bool) {
	c.mu.RLock()
	results, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok && c.dir != "" {
		loaded, err := c.load(key)
		if err != nil {
			return nil, false
		}
		c.mu.Lock()
		c.entries[key] = loaded
		c.mu.Unlock()
		results, ok = loaded, true
	}
	if !ok {
		return nil, false
	}

	out := make([]domain.MethodResult, len(results))
	copy(out, results)
	for i := range out {
		out[i].Cached = true
	}
	return out, true
}

// Put stores results under key.
func (c *ResultCache) Put(key string, results []domain.MethodResult) error {
	stored := make([]domain.MethodResult, len(results))
	copy(stored, results)
	for i := range stored {
		stored[i].Cached = false
	}

	c.mu.Lock()
	c.entries[key] = stored
	c.mu.Unlock()

	if c.dir == "" {
		return nil
	}
	return c.save(key, stored)
}

// Len returns the number of entries held in memory.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ResultCache) path(key string) string {
	return filepath.Join(c.dir, key[:2], key+".msgpack")
}

func (c *ResultCache) save(key string, results []domain.MethodResult) error {
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := msgpack.Marshal(cacheEntry{
		Engine:    version.UserAgent(),
		Results:   results,
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	// Each writer gets its own temp file so readers never see a partial entry
	tmp, err := os.CreateTemp(filepath.Dir(path), key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *ResultCache) load(key string) ([]domain.MethodResult, error) {
	if len(key) < 2 {
		return nil, fmt.Errorf("invalid cache key %q", key)
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, err
	}

	var entry cacheEntry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if entry.Engine != version.UserAgent() {
		return nil, fmt.Errorf("cache entry written by %s", entry.Engine)
	}
	return entry.Results, nil
}
