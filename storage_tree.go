package objstore

import (
	"bytes"
	"iter"
	"sync"

	"github.com/andreyvit/objstore/rbtree"
)

// TreeStore keeps its data in a persistent red-black tree. Every Apply
// publishes a new root, so Snapshot is O(1) and cursors never observe later
// writes.
type TreeStore struct {
	mu   sync.Mutex
	tree rbtree.Tree[string, []byte]
}

func NewTreeStore() *TreeStore {
	return &TreeStore{tree: rbtree.New[string, []byte]()}
}

func (s *TreeStore) root() rbtree.Tree[string, []byte] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// Apply builds the next version from the batch and publishes it at once.
func (s *TreeStore) Apply(b *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tree
	b.Each(func(key, value []byte, tombstone bool) error {
		if tombstone {
			t, _, _ = t.Delete(string(key))
		} else {
			t = t.Insert(string(key), bytes.Clone(value))
		}
		return nil
	})
	if rbtree.Debug {
		ensure(t.Check())
	}
	s.tree = t
	return nil
}

func (s *TreeStore) Get(key []byte) ([]byte, bool, error) {
	v, ok := s.root().Get(string(key))
	return bytes.Clone(v), ok, nil
}

func (s *TreeStore) Scan(from, to []byte) Cursor {
	return newTreeCursor(s.root(), string(from), string(to))
}

// Snapshot returns a read-only view of the current version.
func (s *TreeStore) Snapshot() *TreeSnapshot {
	return &TreeSnapshot{s.root()}
}

// Restore makes a snapshot the current version, discarding later writes.
func (s *TreeStore) Restore(snap *TreeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree = snap.tree
}

// Len is O(n).
func (s *TreeStore) Len() int {
	return s.root().Len()
}

// TreeSnapshot is an immutable version of a TreeStore. Its Apply fails.
type TreeSnapshot struct {
	tree rbtree.Tree[string, []byte]
}

func (s *TreeSnapshot) Apply(b *Batch) error {
	return ErrReadOnly
}

func (s *TreeSnapshot) Get(key []byte) ([]byte, bool, error) {
	v, ok := s.tree.Get(string(key))
	return bytes.Clone(v), ok, nil
}

func (s *TreeSnapshot) Scan(from, to []byte) Cursor {
	return newTreeCursor(s.tree, string(from), string(to))
}

// treeCursor adapts the push-style range sequence to a pull-style Cursor.
type treeCursor struct {
	next func() (string, []byte, bool)
	stop func()
	key  []byte
	val  []byte
}

func newTreeCursor(t rbtree.Tree[string, []byte], from, to string) *treeCursor {
	next, stop := iter.Pull2(t.Range(from, to))
	return &treeCursor{next: next, stop: stop}
}

func (c *treeCursor) Next() bool {
	k, v, ok := c.next()
	if !ok {
		c.key, c.val = nil, nil
		return false
	}
	c.key, c.val = []byte(k), v
	return true
}

func (c *treeCursor) Key() []byte   { return c.key }
func (c *treeCursor) Value() []byte { return c.val }
func (c *treeCursor) Err() error    { return nil }

func (c *treeCursor) Close() error {
	c.stop()
	return nil
}
