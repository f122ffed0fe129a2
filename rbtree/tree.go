// Package rbtree implements a persistent (copy-on-write) red-black tree.
//
// A Tree is an immutable value: Insert and Delete return a new Tree that
// shares every untouched subtree with the old one, rebuilding only the nodes
// along the search path. Any number of goroutines may read any number of
// published Trees without locking. Map wraps a Tree into a conventional
// mutable handle; writers of a single Map must be serialized by the caller.
//
// Insertion uses Okasaki-style balancing (rotate a red-red pair under a black
// node, then pull the red up). Deletion splices the node out, using the
// in-order successor when both children are present, and propagates a lost
// black height upwards until a rotation or a red node absorbs it.
package rbtree

import (
	"cmp"
	"iter"
)

// Tree is one immutable version of an ordered map.
type Tree[K, V any] struct {
	root    *node[K, V]
	compare func(a, b K) int
}

// New returns an empty tree ordered by cmp.Compare.
func New[K cmp.Ordered, V any]() Tree[K, V] {
	return Tree[K, V]{compare: cmp.Compare[K]}
}

// NewFunc returns an empty tree ordered by the given comparator, which must
// return exactly -1, 0 or 1. Any other result makes the operation in progress
// panic with *ComparisonError.
func NewFunc[K, V any](compare func(a, b K) int) Tree[K, V] {
	if compare == nil {
		panic("rbtree: nil comparator")
	}
	return Tree[K, V]{compare: compare}
}

func (t Tree[K, V]) cmp(a, b K) int {
	c := t.compare(a, b)
	switch c {
	case -1, 0, 1:
		return c
	default:
		panic(&ComparisonError{A: a, B: b, Result: c})
	}
}

func (t Tree[K, V]) with(root *node[K, V]) Tree[K, V] {
	if root != nil && root.color != Black {
		root = root.withColor(Black)
	}
	return Tree[K, V]{root: root, compare: t.compare}
}

// IsEmpty is O(1).
func (t Tree[K, V]) IsEmpty() bool {
	return t.root == nil
}

// Len counts the nodes, O(n).
func (t Tree[K, V]) Len() int {
	return t.root.size()
}

// Get returns the value stored under key.
func (t Tree[K, V]) Get(key K) (V, bool) {
	n := t.root
	for n != nil {
		switch t.cmp(key, n.key) {
		case -1:
			n = n.left
		case 1:
			n = n.right
		default:
			return n.value, true
		}
	}
	var zero V
	return zero, false
}

// Has reports whether key is present.
func (t Tree[K, V]) Has(key K) bool {
	_, found := t.Get(key)
	return found
}

// Insert returns a tree with key mapped to value. An existing key gets a
// replacement node; the node reachable from t is left untouched.
func (t Tree[K, V]) Insert(key K, value V) Tree[K, V] {
	return t.with(t.insert(t.root, key, value))
}

func (t Tree[K, V]) insert(n *node[K, V], key K, value V) *node[K, V] {
	if n == nil {
		return newLeaf(key, value)
	}
	var ret *node[K, V]
	switch t.cmp(key, n.key) {
	case -1:
		ret = n.withLeft(t.insert(n.left, key, value))
		if ret.color == Black && isBlack(ret.right) && isRed(ret.left) && !childrenColor(ret.left, Black) {
			ret = rebalanceForLeftInsert(ret)
		}
	case 1:
		ret = n.withRight(t.insert(n.right, key, value))
		if ret.color == Black && isBlack(ret.left) && isRed(ret.right) && !childrenColor(ret.right, Black) {
			ret = rebalanceForRightInsert(ret)
		}
	default:
		ret = n.withValue(value)
	}
	return pullupRed(ret)
}

// rebalanceForLeftInsert handles a black node whose red left child has a red
// child: a double rotation for the inner grandchild, a single one otherwise.
func rebalanceForLeftInsert[K, V any](n *node[K, V]) *node[K, V] {
	if isRed(n.left.right) {
		n = n.withLeft(rotateLeft(n.left))
	}
	return rotateRight(n)
}

func rebalanceForRightInsert[K, V any](n *node[K, V]) *node[K, V] {
	if isRed(n.right.left) {
		n = n.withRight(rotateRight(n.right))
	}
	return rotateLeft(n)
}

// Delete returns a tree without key, plus the removed value. Deleting a
// missing key returns t itself.
func (t Tree[K, V]) Delete(key K) (Tree[K, V], V, bool) {
	deleted, root, _ := t.delete(t.root, key)
	if deleted == nil {
		var zero V
		return t, zero, false
	}
	return t.with(root), deleted.value, true
}

// delete returns the removed node (nil if key is absent), the new subtree,
// and whether the subtree lost one black height.
func (t Tree[K, V]) delete(n *node[K, V], key K) (deleted, ret *node[K, V], rebalance bool) {
	if n == nil {
		return nil, nil, false
	}
	switch t.cmp(key, n.key) {
	case -1:
		var left *node[K, V]
		deleted, left, rebalance = t.delete(n.left, key)
		if deleted == nil {
			return nil, n, false
		}
		ret = n.withLeft(left)
		if rebalance {
			ret, rebalance = rebalanceForLeftDelete(ret)
		}
	case 1:
		var right *node[K, V]
		deleted, right, rebalance = t.delete(n.right, key)
		if deleted == nil {
			return nil, n, false
		}
		ret = n.withRight(right)
		if rebalance {
			ret, rebalance = rebalanceForRightDelete(ret)
		}
	default:
		deleted = n
		ret, rebalance = deleteNode(n)
	}
	return deleted, ret, rebalance
}

func deleteMin[K, V any](n *node[K, V]) (deleted, ret *node[K, V], rebalance bool) {
	if n.left == nil {
		ret, rebalance = deleteNode(n)
		return n, ret, rebalance
	}
	var left *node[K, V]
	deleted, left, rebalance = deleteMin(n.left)
	ret = n.withLeft(left)
	if rebalance {
		ret, rebalance = rebalanceForLeftDelete(ret)
	}
	return deleted, ret, rebalance
}

func deleteNode[K, V any](n *node[K, V]) (*node[K, V], bool) {
	switch {
	case n.left == nil && n.right == nil:
		// removing a black leaf leaves this path one black short
		return nil, n.color == Black
	case n.left == nil || n.right == nil:
		child := n.left
		if child == nil {
			child = n.right
		}
		if n.color == Black {
			if child.color != Red {
				panic(invariantErrf(n, "black node with a single black child"))
			}
			child = child.withColor(Black)
		}
		return child, false
	default:
		succ, right, rebalance := deleteMin(n.right)
		ret := &node[K, V]{succ.key, succ.value, n.color, n.left, right}
		if rebalance {
			return rebalanceForRightDelete(ret)
		}
		return ret, false
	}
}

// rebalanceForLeftDelete is called when the left subtree of n is one black
// level lower than the right one.
func rebalanceForLeftDelete[K, V any](n *node[K, V]) (*node[K, V], bool) {
	sib := n.right
	if sib == nil {
		panic(invariantErrf(n, "left delete rebalance without a sibling"))
	}
	if n.color == Black {
		if sib.color == Black {
			if childrenColor(sib, Black) {
				// whole subtree gets one level lower, ask the parent
				return n.withRight(sib.withColor(Red)), true
			}
			return balancedRotateLeft(n), false
		}
		// red sibling: rotate into an equivalent shape with a black sibling
		ret := rotateLeft(n)
		left, rebalance := rebalanceForLeftDelete(ret.left)
		if rebalance {
			panic(invariantErrf(ret, "left delete rebalance did not terminate under a red node"))
		}
		return ret.withLeft(left), false
	}
	if childrenColor(sib, Black) {
		return n.withRight(sib.withColor(n.color)).withColor(sib.color), false
	}
	return balancedRotateLeft(n), false
}

// rebalanceForRightDelete mirrors rebalanceForLeftDelete.
func rebalanceForRightDelete[K, V any](n *node[K, V]) (*node[K, V], bool) {
	sib := n.left
	if sib == nil {
		panic(invariantErrf(n, "right delete rebalance without a sibling"))
	}
	if n.color == Black {
		if sib.color == Black {
			if childrenColor(sib, Black) {
				return n.withLeft(sib.withColor(Red)), true
			}
			return balancedRotateRight(n), false
		}
		ret := rotateRight(n)
		right, rebalance := rebalanceForRightDelete(ret.right)
		if rebalance {
			panic(invariantErrf(ret, "right delete rebalance did not terminate under a red node"))
		}
		return ret.withRight(right), false
	}
	if childrenColor(sib, Black) {
		return n.withLeft(sib.withColor(n.color)).withColor(sib.color), false
	}
	return balancedRotateRight(n), false
}

// balancedRotateLeft moves one black from the right to the left by a single
// or double rotation.
func balancedRotateLeft[K, V any](n *node[K, V]) *node[K, V] {
	if isRed(n.right.left) && isBlack(n.right.right) {
		n = n.withRight(rotateRight(n.right))
	}
	n = rotateLeft(n)
	return &node[K, V]{n.key, n.value, n.color, n.left.withColor(Black), n.right.withColor(Black)}
}

// balancedRotateRight moves one black from the left to the right.
func balancedRotateRight[K, V any](n *node[K, V]) *node[K, V] {
	if isRed(n.left.right) && isBlack(n.left.left) {
		n = n.withLeft(rotateLeft(n.left))
	}
	n = rotateRight(n)
	return &node[K, V]{n.key, n.value, n.color, n.left.withColor(Black), n.right.withColor(Black)}
}

// All yields every entry in ascending key order. The sequence can be ranged
// over any number of times with identical results.
func (t Tree[K, V]) All() iter.Seq2[K, V] {
	root := t.root
	return func(yield func(K, V) bool) {
		root.each(yield)
	}
}

func (t Tree[K, V]) Keys() []K {
	keys := make([]K, 0, 16)
	for k := range t.All() {
		keys = append(keys, k)
	}
	return keys
}

func (t Tree[K, V]) Values() []V {
	values := make([]V, 0, 16)
	for _, v := range t.All() {
		values = append(values, v)
	}
	return values
}

// Min returns the smallest entry.
func (t Tree[K, V]) Min() (K, V, bool) {
	n := t.root
	if n == nil {
		var k K
		var v V
		return k, v, false
	}
	for n.left != nil {
		n = n.left
	}
	return n.key, n.value, true
}

// Max returns the largest entry.
func (t Tree[K, V]) Max() (K, V, bool) {
	n := t.root
	if n == nil {
		var k K
		var v V
		return k, v, false
	}
	for n.right != nil {
		n = n.right
	}
	return n.key, n.value, true
}
