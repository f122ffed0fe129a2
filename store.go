package objstore

import (
	"bytes"
	"slices"
)

// Store is an ordered byte-key/byte-value storage backend (in-memory,
// persistent tree, Bolt, Pebble) or a decorator over one (Sub, Cached).
//
// Keys are compared byte-lexicographically. By convention all keys written by
// ObjectStore are ASCII below 0x7F, which is what makes the default range
// bounds of Range cover the whole keyspace.
type Store interface {
	// Apply writes all values and removes all tombstoned keys of the batch.
	// Atomicity is whatever the backend guarantees for a single call.
	Apply(b *Batch) error

	// Get returns the value under key. A missing key is reported with
	// found == false, never with a nil or empty value. The returned slice
	// belongs to the caller.
	Get(key []byte) (value []byte, found bool, err error)

	// Scan returns a cursor over from <= key <= to in ascending order.
	// The cursor must be closed.
	Scan(from, to []byte) Cursor
}

// Cursor iterates over the result of Store.Scan. Key and Value are only valid
// until the next call to Next.
type Cursor interface {
	Next() bool
	Key() []byte
	Value() []byte
	// Err returns the error that stopped the iteration, if any.
	Err() error
	Close() error
}

// Batch is a set of writes applied together. Each key maps either to a value
// or to a tombstone; the last operation on a key wins.
type Batch struct {
	entries []batchEntry // sorted by key
}

type batchEntry struct {
	key       []byte
	value     []byte
	tombstone bool
}

func NewBatch() *Batch {
	return &Batch{}
}

// Put records key => value. A nil value is stored as an empty value, not as
// a deletion.
func (b *Batch) Put(key, value []byte) *Batch {
	if value == nil {
		value = []byte{}
	}
	b.set(batchEntry{key: slices.Clone(key), value: slices.Clone(value)})
	return b
}

// Delete records a tombstone for key.
func (b *Batch) Delete(key []byte) *Batch {
	b.set(batchEntry{key: slices.Clone(key), tombstone: true})
	return b
}

// DeleteRange records a tombstone for every key of s currently within r.
func (b *Batch) DeleteRange(s Store, r Range) error {
	c := ScanRange(s, r)
	defer c.Close()
	for c.Next() {
		b.Delete(c.Key())
	}
	return c.Err()
}

// Merge copies the entries of other over the entries of b.
func (b *Batch) Merge(other *Batch) *Batch {
	for _, e := range other.entries {
		b.set(e)
	}
	return b
}

func (b *Batch) set(e batchEntry) {
	i, found := b.find(e.key)
	if found {
		b.entries[i] = e
	} else {
		b.entries = slices.Insert(b.entries, i, e)
	}
}

func (b *Batch) find(key []byte) (int, bool) {
	return slices.BinarySearchFunc(b.entries, key, func(e batchEntry, k []byte) int {
		return bytes.Compare(e.key, k)
	})
}

// Lookup reports what the batch holds for key: present is false if the batch
// does not touch the key, tombstone is true if it deletes it.
func (b *Batch) Lookup(key []byte) (value []byte, tombstone, present bool) {
	i, found := b.find(key)
	if !found {
		return nil, false, false
	}
	e := b.entries[i]
	return e.value, e.tombstone, true
}

func (b *Batch) Len() int {
	return len(b.entries)
}

func (b *Batch) IsEmpty() bool {
	return len(b.entries) == 0
}

// Each calls f for every entry in ascending key order. value is nil for
// tombstones.
func (b *Batch) Each(f func(key, value []byte, tombstone bool) error) error {
	for _, e := range b.entries {
		if err := f(e.key, e.value, e.tombstone); err != nil {
			return err
		}
	}
	return nil
}

// Put writes a single key.
func Put(s Store, key, value []byte) error {
	return s.Apply(NewBatch().Put(key, value))
}

// Delete removes a single key.
func Delete(s Store, key []byte) error {
	return s.Apply(NewBatch().Delete(key))
}

// DeleteRange removes every key within r.
func DeleteRange(s Store, r Range) error {
	b := NewBatch()
	if err := b.DeleteRange(s, r); err != nil {
		return err
	}
	if b.IsEmpty() {
		return nil
	}
	return s.Apply(b)
}

// KV is a copied key-value pair.
type KV struct {
	Key   []byte
	Value []byte
}

// Collect reads every pair within r.
func Collect(s Store, r Range) ([]KV, error) {
	var result []KV
	c := ScanRange(s, r)
	defer c.Close()
	for c.Next() {
		result = append(result, KV{slices.Clone(c.Key()), slices.Clone(c.Value())})
	}
	return result, c.Err()
}

// CollectKeys reads every key within r.
func CollectKeys(s Store, r Range) ([][]byte, error) {
	var result [][]byte
	c := ScanRange(s, r)
	defer c.Close()
	for c.Next() {
		result = append(result, slices.Clone(c.Key()))
	}
	return result, c.Err()
}

// sliceCursor iterates over pairs that have already been materialized.
type sliceCursor struct {
	items []KV
	pos   int
	err   error
}

func newSliceCursor(items []KV) *sliceCursor {
	return &sliceCursor{items: items, pos: -1}
}

func errCursor(err error) Cursor {
	return &sliceCursor{pos: -1, err: err}
}

func (c *sliceCursor) Next() bool {
	if c.pos+1 >= len(c.items) {
		c.pos = len(c.items)
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Key() []byte {
	if c.pos < 0 || c.pos >= len(c.items) {
		return nil
	}
	return c.items[c.pos].Key
}

func (c *sliceCursor) Value() []byte {
	if c.pos < 0 || c.pos >= len(c.items) {
		return nil
	}
	return c.items[c.pos].Value
}

func (c *sliceCursor) Err() error   { return c.err }
func (c *sliceCursor) Close() error { return nil }
