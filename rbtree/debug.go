package rbtree

import (
	"fmt"
	"strings"
)

// Debug makes every Map write verify the tree invariants and panic on
// violation. Meant for tests.
var Debug = false

// Check verifies that no red node has a red child, that every root-to-leaf
// path has the same number of black nodes, that the root is black, and that
// keys are strictly increasing in order.
func (t Tree[K, V]) Check() error {
	if isRed(t.root) {
		return invariantErrf(t.root, "red root")
	}
	if _, err := checkHeight(t.root); err != nil {
		return err
	}
	var prev K
	var first = true
	var err error
	t.root.each(func(k K, _ V) bool {
		if !first && t.cmp(prev, k) >= 0 {
			err = invariantErrf(t.root, "keys out of order: %v before %v", prev, k)
			return false
		}
		prev, first = k, false
		return true
	})
	return err
}

// checkHeight returns the black height of n.
func checkHeight[K, V any](n *node[K, V]) (int, error) {
	if n == nil {
		return 0, nil
	}
	lh, err := checkHeight(n.left)
	if err != nil {
		return 0, err
	}
	rh, err := checkHeight(n.right)
	if err != nil {
		return 0, err
	}
	if n.color == Red && (isRed(n.left) || isRed(n.right)) {
		return 0, invariantErrf(n, "red/red at %v", n.key)
	}
	if lh != rh {
		return 0, invariantErrf(n, "black height unbalanced at %v: %d %d", n.key, lh, rh)
	}
	if n.color == Black {
		lh++
	}
	return lh, nil
}

func (t Tree[K, V]) mustCheck() {
	if err := t.Check(); err != nil {
		panic(err)
	}
}

// Dump renders the tree sideways, right subtree on top, one node per line.
func (t Tree[K, V]) Dump() string {
	return dumpNode(t.root)
}

func dumpNode[K, V any](n *node[K, V]) string {
	var buf strings.Builder
	dumpTree(&buf, n, "")
	return buf.String()
}

func dumpTree[K, V any](w *strings.Builder, n *node[K, V], indent string) {
	if n == nil {
		return
	}
	dumpTree(w, n.right, indent+"  ")
	fmt.Fprintf(w, "%s%s %v => %v\n", indent, n.color, n.key, n.value)
	dumpTree(w, n.left, indent+"  ")
}

// Sexp renders the keys as an s-expression, e.g. "(2 1 3)". Missing left
// children are shown as "-".
func (t Tree[K, V]) Sexp() string {
	return sexp(t.root)
}

func sexp[K, V any](n *node[K, V]) string {
	if n == nil {
		return ""
	}
	left, right := sexp(n.left), sexp(n.right)
	if left == "" && right == "" {
		return fmt.Sprint(n.key)
	}
	if left == "" {
		left = "-"
	}
	if right == "" {
		return fmt.Sprintf("(%v %s)", n.key, left)
	}
	return fmt.Sprintf("(%v %s %s)", n.key, left, right)
}
