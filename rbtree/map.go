package rbtree

import (
	"cmp"
	"iter"
)

// Map is a mutable handle over a persistent Tree. Root returns the current
// version, which stays valid and unchanged no matter what happens to the Map
// afterwards.
//
// A Map does not synchronize its writers.
type Map[K, V any] struct {
	tree Tree[K, V]

	// Default is returned by Get on a miss, unless DefaultFunc is set.
	Default V
	// DefaultFunc produces the value returned by Get on a miss.
	DefaultFunc func() V
}

// NewMap returns an empty Map ordered by cmp.Compare.
func NewMap[K cmp.Ordered, V any]() *Map[K, V] {
	return &Map[K, V]{tree: New[K, V]()}
}

// NewMapFunc returns an empty Map ordered by compare.
func NewMapFunc[K, V any](compare func(a, b K) int) *Map[K, V] {
	return &Map[K, V]{tree: NewFunc[K, V](compare)}
}

// NewMapWithDefault returns an empty Map that answers misses with def.
func NewMapWithDefault[K cmp.Ordered, V any](def V) *Map[K, V] {
	return &Map[K, V]{tree: New[K, V](), Default: def}
}

// NewMapWithDefaultFunc returns an empty Map that answers misses by calling f.
func NewMapWithDefaultFunc[K cmp.Ordered, V any](f func() V) *Map[K, V] {
	return &Map[K, V]{tree: New[K, V](), DefaultFunc: f}
}

// Root returns the current immutable version.
func (m *Map[K, V]) Root() Tree[K, V] {
	return m.tree
}

// Reset replaces the current version, e.g. to roll back to an earlier Root.
func (m *Map[K, V]) Reset(t Tree[K, V]) {
	m.tree = t
}

func (m *Map[K, V]) Set(key K, value V) {
	m.tree = m.tree.Insert(key, value)
	if Debug {
		m.tree.mustCheck()
	}
}

// Get returns the value under key, or the default policy's value on a miss.
func (m *Map[K, V]) Get(key K) V {
	if v, found := m.tree.Get(key); found {
		return v
	}
	return m.defaultValue()
}

func (m *Map[K, V]) Lookup(key K) (V, bool) {
	return m.tree.Get(key)
}

func (m *Map[K, V]) Has(key K) bool {
	return m.tree.Has(key)
}

// Delete removes key and returns its value.
func (m *Map[K, V]) Delete(key K) (V, bool) {
	t, v, found := m.tree.Delete(key)
	m.tree = t
	if found && Debug {
		m.tree.mustCheck()
	}
	return v, found
}

func (m *Map[K, V]) Clear() {
	m.tree = Tree[K, V]{compare: m.tree.compare}
}

func (m *Map[K, V]) Len() int {
	return m.tree.Len()
}

func (m *Map[K, V]) IsEmpty() bool {
	return m.tree.IsEmpty()
}

func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return m.tree.All()
}

func (m *Map[K, V]) Range(from, to K) iter.Seq2[K, V] {
	return m.tree.Range(from, to)
}

func (m *Map[K, V]) Keys() []K {
	return m.tree.Keys()
}

func (m *Map[K, V]) Values() []V {
	return m.tree.Values()
}

func (m *Map[K, V]) defaultValue() V {
	if m.DefaultFunc != nil {
		return m.DefaultFunc()
	}
	return m.Default
}

// ToMap copies the entries into a Go map.
func ToMap[K comparable, V any](m *Map[K, V]) map[K]V {
	result := make(map[K]V)
	for k, v := range m.All() {
		result[k] = v
	}
	return result
}
