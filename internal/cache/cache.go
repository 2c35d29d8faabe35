// Package cache memoizes derived results by the hash of the operation, its
// parameters and the snapshot version they were computed from.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultSize is the number of entries kept when no size is configured.
const DefaultSize = 256

// Cache is a bounded, content-addressed result cache. Observing a new
// snapshot version drops every entry.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, any]
	version int64
	seen    bool
}

// New creates a cache holding at most size entries.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, any](size)
	if err != nil {
		return nil, eris.Wrap(err, "cache: create lru")
	}
	return &Cache{entries: entries}, nil
}

// Key hashes the operation name, snapshot version and parameters.
func Key(op string, version int64, params any) (string, error) {
	payload, err := json.Marshal(struct {
		Op      string `json:"op"`
		Version int64  `json:"version"`
		Params  any    `json:"params"`
	}{op, version, params})
	if err != nil {
		return "", eris.Wrapf(err, "cache: marshal key for %s", op)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// Observe records the current snapshot version, purging on change.
func (c *Cache) Observe(version int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen && c.version == version {
		return
	}
	if c.seen {
		zap.L().Debug("cache: snapshot changed, purging",
			zap.Int64("from", c.version),
			zap.Int64("to", version),
			zap.Int("entries", c.entries.Len()),
		)
	}
	c.entries.Purge()
	c.version = version
	c.seen = true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) get(key string) (any, bool) {
	return c.entries.Get(key)
}

func (c *Cache) add(key string, v any) {
	c.entries.Add(key, v)
}

// Memo returns the cached result for (op, version, params) or computes,
// stores and returns it. Errors are not cached. A nil cache, or params that
// cannot be keyed (such as infinite floats), always compute.
func Memo[T any](c *Cache, op string, version int64, params any, fn func() (T, error)) (T, error) {
	if c == nil {
		return fn()
	}
	c.Observe(version)

	key, err := Key(op, version, params)
	if err != nil {
		zap.L().Debug("cache: uncacheable params", zap.String("op", op), zap.Error(err))
		return fn()
	}
	if v, ok := c.get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err := fn()
	if err != nil {
		return v, err
	}
	c.add(key, v)
	return v, nil
}
