package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

type PebbleOptions struct {
	// FS overrides the filesystem, e.g. vfs.NewMem() in tests.
	FS vfs.FS
	// IsTesting disables fsync on Apply.
	IsTesting bool
	Logger    *slog.Logger
}

// PebbleStore is an LSM-backed Store. Each Apply is one Pebble batch.
type PebbleStore struct {
	db     *pebble.DB
	wopt   *pebble.WriteOptions
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// OpenPebble opens or creates a Pebble database in dir.
func OpenPebble(dir string, opt PebbleOptions) (*PebbleStore, error) {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	popt := &pebble.Options{
		FS:     opt.FS,
		Logger: pebbleLogger{opt.Logger},
	}
	db, err := pebble.Open(dir, popt)
	if err != nil {
		return nil, fmt.Errorf("objstore: %w", err)
	}
	return NewPebbleStore(db, opt), nil
}

// NewPebbleStore wraps an already open database. Close closes db.
func NewPebbleStore(db *pebble.DB, opt PebbleOptions) *PebbleStore {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	wopt := pebble.Sync
	if opt.IsTesting {
		wopt = pebble.NoSync
	}
	return &PebbleStore{db: db, wopt: wopt, logger: opt.Logger}
}

func (s *PebbleStore) Pebble() *pebble.DB {
	return s.db
}

func (s *PebbleStore) Apply(b *Batch) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	pb := s.db.NewBatch()
	defer pb.Close()
	err := b.Each(func(key, value []byte, tombstone bool) error {
		if tombstone {
			return storeErr("delete", key, pb.Delete(key, nil))
		}
		return storeErr("put", key, pb.Set(key, value, nil))
	})
	if err != nil {
		return err
	}
	return storeErr("commit", nil, pb.Commit(s.wopt))
}

func (s *PebbleStore) Get(key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}

	value, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, storeErr("get", key, err)
	}
	defer closer.Close()
	return slices.Clone(value), true, nil
}

// Scan iterates over an implicit snapshot taken when the cursor is created.
func (s *PebbleStore) Scan(from, to []byte) Cursor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errCursor(ErrClosed)
	}
	if bytes.Compare(from, to) > 0 {
		return newSliceCursor(nil)
	}

	// UpperBound is exclusive; to+0x00 is the smallest key above to.
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: slices.Clone(from),
		UpperBound: append(slices.Clone(to), 0x00),
	})
	if err != nil {
		return errCursor(storeErr("scan", from, err))
	}
	return &pebbleCursor{it: it}
}

func (s *PebbleStore) Stats() StoreStats {
	m := s.db.Metrics()
	return StoreStats{
		Keys:       -1,
		ValueBytes: int64(m.DiskSpaceUsage()),
		AllocBytes: int64(m.DiskSpaceUsage()),
	}
}

func (s *PebbleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type pebbleCursor struct {
	it      *pebble.Iterator
	started bool
	err     error
}

func (c *pebbleCursor) Next() bool {
	if !c.started {
		c.started = true
		return c.it.First()
	}
	return c.it.Next()
}

func (c *pebbleCursor) Key() []byte {
	if !c.it.Valid() {
		return nil
	}
	return c.it.Key()
}

func (c *pebbleCursor) Value() []byte {
	if !c.it.Valid() {
		return nil
	}
	v, err := c.it.ValueAndErr()
	if err != nil {
		c.err = storeErr("scan", c.it.Key(), err)
		return nil
	}
	return v
}

func (c *pebbleCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.it.Error()
}

func (c *pebbleCursor) Close() error {
	return c.it.Close()
}

// pebbleLogger routes Pebble's own logging into slog.
type pebbleLogger struct {
	logger *slog.Logger
}

func (l pebbleLogger) Infof(format string, args ...any) {
	l.logger.LogAttrs(context.Background(), slog.LevelDebug, "pebble: "+fmt.Sprintf(format, args...))
}

func (l pebbleLogger) Errorf(format string, args ...any) {
	l.logger.LogAttrs(context.Background(), slog.LevelError, "pebble: "+fmt.Sprintf(format, args...))
}

func (l pebbleLogger) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.logger.LogAttrs(context.Background(), slog.LevelError, "pebble: fatal: "+msg)
	panic(errors.New(msg))
}
