package rbtree

import "iter"

// Range yields the entries with from <= key <= to in ascending order.
//
// The walk keeps an explicit stack of ancestors (nodes have no parent
// pointers), so it costs O(log n + k) and never visits subtrees outside the
// bounds. Every range over the returned sequence restarts from the same
// immutable root.
func (t Tree[K, V]) Range(from, to K) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		var stack []*node[K, V]
		for n := t.root; n != nil; {
			stack = append(stack, n)
			if t.cmp(from, n.key) <= 0 {
				n = n.left
			} else {
				n = n.right
			}
		}

		for len(stack) > 0 {
			n := stack[len(stack)-1]
			if t.cmp(n.key, to) > 0 {
				return
			}
			if t.cmp(n.key, from) >= 0 {
				if !yield(n.key, n.value) {
					return
				}
			}
			if n.right != nil {
				for c := n.right; c != nil; c = c.left {
					stack = append(stack, c)
				}
			} else {
				stack = stack[:len(stack)-1]
				for len(stack) > 0 && stack[len(stack)-1].right == n {
					n = stack[len(stack)-1]
					stack = stack[:len(stack)-1]
				}
			}
		}
	}
}
