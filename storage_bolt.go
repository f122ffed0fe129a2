package objstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.etcd.io/bbolt"
)

const (
	defaultBoltBucket = "objstore"
	boltScanPageSize  = 256
)

type BoltOptions struct {
	// Bucket holds all keys. Defaults to "objstore".
	Bucket string
	// IsTesting trades durability for speed.
	IsTesting bool
	MmapSize  int
	// Timeout for acquiring the file lock. Defaults to 10 seconds.
	Timeout time.Duration
	Logger  *slog.Logger
}

// BoltStore keeps keys in a single Bolt bucket. Each Apply is one Bolt
// read-write transaction.
type BoltStore struct {
	bdb    *bbolt.DB
	bucket []byte
	owned  bool
	logger *slog.Logger
}

// OpenBolt opens or creates a Bolt file at path. Close releases it.
func OpenBolt(path string, opt BoltOptions) (*BoltStore, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.Timeout != 0 {
		bopt.Timeout = opt.Timeout
	}
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 256
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("objstore: %w", err)
	}
	s, err := NewBoltStore(bdb, opt)
	if err != nil {
		bdb.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewBoltStore uses a bucket of an already open Bolt database, creating the
// bucket if needed. Only Bucket and Logger of opt are used; Close does not
// close bdb.
func NewBoltStore(bdb *bbolt.DB, opt BoltOptions) (*BoltStore, error) {
	if opt.Bucket == "" {
		opt.Bucket = defaultBoltBucket
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	s := &BoltStore{
		bdb:    bdb,
		bucket: []byte(opt.Bucket),
		logger: opt.Logger,
	}
	err := bdb.Update(func(btx *bbolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		return nil, storeErr("create bucket", s.bucket, err)
	}
	return s, nil
}

func (s *BoltStore) Bolt() *bbolt.DB {
	return s.bdb
}

func (s *BoltStore) Apply(b *Batch) error {
	start := time.Now()
	err := s.bdb.Update(func(btx *bbolt.Tx) error {
		buck := btx.Bucket(s.bucket)
		return b.Each(func(key, value []byte, tombstone bool) error {
			if tombstone {
				return storeErr("delete", key, buck.Delete(key))
			}
			return storeErr("put", key, buck.Put(key, value))
		})
	})
	if err != nil {
		if _, ok := err.(*StoreError); !ok {
			err = storeErr("commit", nil, err)
		}
		return err
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "bolt: applied", slog.Int("entries", b.Len()), slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *BoltStore) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	var found bool
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		v := btx.Bucket(s.bucket).Get(key)
		if v != nil {
			value, found = slices.Clone(v), true
		}
		return nil
	})
	if err != nil {
		return nil, false, storeErr("get", key, err)
	}
	return value, found, nil
}

// Scan reads the range in pages, each within its own read transaction, so a
// cursor never holds a transaction open while the caller writes.
func (s *BoltStore) Scan(from, to []byte) Cursor {
	return &pagedCursor{
		next: slices.Clone(from),
		to:   slices.Clone(to),
		fetch: func(from, to []byte) ([]KV, error) {
			var page []KV
			err := s.bdb.View(func(btx *bbolt.Tx) error {
				c := btx.Bucket(s.bucket).Cursor()
				for k, v := c.Seek(from); k != nil && bytes.Compare(k, to) <= 0; k, v = c.Next() {
					page = append(page, KV{slices.Clone(k), slices.Clone(v)})
					if len(page) == boltScanPageSize {
						break
					}
				}
				return nil
			})
			if err != nil {
				return nil, storeErr("scan", from, err)
			}
			return page, nil
		},
	}
}

// Stats reports Bolt's own accounting for the bucket.
func (s *BoltStore) Stats() StoreStats {
	var st StoreStats
	s.bdb.View(func(btx *bbolt.Tx) error {
		bs := btx.Bucket(s.bucket).Stats()
		st.Keys = bs.KeyN
		st.ValueBytes = int64(bs.LeafInuse)
		st.AllocBytes = int64(bs.BranchAlloc + bs.LeafAlloc)
		return nil
	})
	return st
}

func (s *BoltStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.bdb.Close()
}

type pagedCursor struct {
	fetch func(from, to []byte) ([]KV, error)
	next  []byte // nil once exhausted
	to    []byte
	page  []KV
	pos   int
	err   error
}

func (c *pagedCursor) Next() bool {
	c.pos++
	if c.pos < len(c.page) {
		return true
	}
	if c.next == nil || c.err != nil {
		c.page = nil
		return false
	}
	c.page, c.err = c.fetch(c.next, c.to)
	c.pos = 0
	if c.err != nil || len(c.page) == 0 {
		c.page, c.next = nil, nil
		return false
	}
	if len(c.page) < boltScanPageSize {
		c.next = nil
	} else {
		c.next = append(slices.Clone(c.page[len(c.page)-1].Key), 0x00)
	}
	return true
}

func (c *pagedCursor) Key() []byte {
	if c.pos < len(c.page) {
		return c.page[c.pos].Key
	}
	return nil
}

func (c *pagedCursor) Value() []byte {
	if c.pos < len(c.page) {
		return c.page[c.pos].Value
	}
	return nil
}

func (c *pagedCursor) Err() error { return c.err }

func (c *pagedCursor) Close() error {
	c.page, c.next = nil, nil
	return nil
}
