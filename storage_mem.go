package objstore

import (
	"bytes"
	"slices"
	"sort"
	"sync"
)

// MemStore is a transient sorted-slice Store, mostly intended for tests.
// Safe for concurrent use; a cursor sees the data as of the Scan call.
type MemStore struct {
	mu    sync.RWMutex
	items []memKV // sorted by key
}

type memKV struct {
	key   []byte
	value []byte
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Apply(b *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return b.Each(func(key, value []byte, tombstone bool) error {
		i, ok := s.find(key)
		switch {
		case tombstone && ok:
			s.items = slices.Delete(s.items, i, i+1)
		case tombstone:
			// already absent
		case ok:
			s.items[i].value = slices.Clone(value)
		default:
			s.items = slices.Insert(s.items, i, memKV{key: slices.Clone(key), value: slices.Clone(value)})
		}
		return nil
	})
}

func (s *MemStore) Get(key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.find(key)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(s.items[i].value), true, nil
}

func (s *MemStore) Scan(from, to []byte) Cursor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start, _ := s.find(from)
	var result []KV
	for _, kv := range s.items[start:] {
		if bytes.Compare(kv.key, to) > 0 {
			break
		}
		result = append(result, KV{kv.key, kv.value})
	}
	return newSliceCursor(result)
}

// Stats reports the number of keys and the total size of keys and values.
func (s *MemStore) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := StoreStats{Keys: len(s.items)}
	for _, kv := range s.items {
		st.KeyBytes += int64(len(kv.key))
		st.ValueBytes += int64(len(kv.value))
	}
	st.AllocBytes = st.TotalSize()
	return st
}

func (s *MemStore) find(key []byte) (idx int, ok bool) {
	items := s.items
	i := sort.Search(len(items), func(i int) bool {
		return bytes.Compare(items[i].key, key) >= 0
	})
	if i < len(items) && bytes.Equal(items[i].key, key) {
		return i, true
	}
	return i, false
}
