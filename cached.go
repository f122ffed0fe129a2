package objstore

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Cached is a write-back cache over another Store. Writes go to an in-memory
// tree and accumulate until Save; reads fall through to the backing store on
// a miss. Scan only sees what has been loaded or written, so callers Load
// the ranges they intend to scan.
type Cached struct {
	db     Store
	cache  *TreeStore
	logger *slog.Logger

	mu      sync.Mutex
	working *Batch
}

func NewCached(db Store, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{
		db:      db,
		cache:   NewTreeStore(),
		logger:  logger,
		working: NewBatch(),
	}
}

// Backing returns the wrapped store.
func (c *Cached) Backing() Store {
	return c.db
}

// Load copies every key of the backing store within r into the cache.
// Unsaved writes win over the loaded data.
func (c *Cached) Load(r Range) error {
	kvs, err := Collect(c.db, r)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b := NewBatch()
	for _, kv := range kvs {
		if _, _, pending := c.working.Lookup(kv.Key); !pending {
			b.Put(kv.Key, kv.Value)
		}
	}
	c.logger.LogAttrs(context.Background(), slog.LevelDebug, "cache: loaded", slog.Int("keys", b.Len()))
	return c.cache.Apply(b)
}

// Unload evicts the keys within r from the cache. Unsaved writes are kept
// and still reach the backing store on Save.
func (c *Cached) Unload(r Range) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DeleteRange(c.cache, r)
}

func (c *Cached) Apply(b *Batch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.cache.Apply(b); err != nil {
		return err
	}
	c.working.Merge(b)
	return nil
}

func (c *Cached) Get(key []byte) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok, _ := c.cache.Get(key); ok {
		return v, true, nil
	}
	if v, tombstone, pending := c.working.Lookup(key); pending {
		if tombstone {
			return nil, false, nil
		}
		return slices.Clone(v), true, nil
	}
	v, ok, err := c.db.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	// a failed fill is not fatal
	if err := Put(c.cache, key, v); err != nil {
		c.logger.Warn("cache: fill failed", hexAttr("key", key), slog.Any("err", err))
	}
	return v, true, nil
}

func (c *Cached) Scan(from, to []byte) Cursor {
	return c.cache.Scan(from, to)
}

// Pending returns the number of keys written since the last Save.
func (c *Cached) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.working.Len()
}

// Save applies every write since the last Save to the backing store. On
// failure the writes stay pending.
func (c *Cached) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.working.IsEmpty() {
		return nil
	}
	if err := c.db.Apply(c.working); err != nil {
		return err
	}
	c.logger.LogAttrs(context.Background(), slog.LevelDebug, "cache: saved", slog.Int("keys", c.working.Len()))
	c.working = NewBatch()
	return nil
}
