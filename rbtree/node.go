package rbtree

// Color is the color of a tree node. The zero value is Black, which is also
// the color of the empty (nil) sentinel.
type Color uint8

const (
	Black Color = iota
	Red
)

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "black"
}

// node is immutable once it is reachable from a published root. Every
// "modification" below returns a fresh node that shares the untouched children.
// The nil *node is the empty sentinel.
type node[K, V any] struct {
	key   K
	value V
	color Color
	left  *node[K, V]
	right *node[K, V]
}

func newLeaf[K, V any](key K, value V) *node[K, V] {
	return &node[K, V]{key: key, value: value, color: Red}
}

func (n *node[K, V]) withValue(value V) *node[K, V] {
	return &node[K, V]{n.key, value, n.color, n.left, n.right}
}

func (n *node[K, V]) withLeft(left *node[K, V]) *node[K, V] {
	return &node[K, V]{n.key, n.value, n.color, left, n.right}
}

func (n *node[K, V]) withRight(right *node[K, V]) *node[K, V] {
	return &node[K, V]{n.key, n.value, n.color, n.left, right}
}

func (n *node[K, V]) withColor(color Color) *node[K, V] {
	if n.color == color {
		return n
	}
	return &node[K, V]{n.key, n.value, color, n.left, n.right}
}

func isRed[K, V any](n *node[K, V]) bool {
	return n != nil && n.color == Red
}

func isBlack[K, V any](n *node[K, V]) bool {
	return n == nil || n.color == Black
}

func colorOf[K, V any](n *node[K, V]) Color {
	if n == nil {
		return Black
	}
	return n.color
}

// childrenColor reports whether both children of n have the given color.
func childrenColor[K, V any](n *node[K, V], c Color) bool {
	return colorOf(n.left) == c && colorOf(n.right) == c
}

func (n *node[K, V]) size() int {
	if n == nil {
		return 0
	}
	return n.left.size() + 1 + n.right.size()
}

func (n *node[K, V]) each(yield func(K, V) bool) bool {
	if n == nil {
		return true
	}
	return n.left.each(yield) && yield(n.key, n.value) && n.right.each(yield)
}

// rotateLeft promotes the right child, swapping its color with n's color.
//
//	  b              d
//	 / \            / \
//	a   D    ->    B   E
//	   / \        / \
//	  c   E      a   c
func rotateLeft[K, V any](n *node[K, V]) *node[K, V] {
	root := n.right
	root = root.withLeft(n.withRight(root.left))
	return root.withLeft(root.left.withColor(root.color)).withColor(root.left.color)
}

// rotateRight promotes the left child, swapping its color with n's color.
//
//	    d          b
//	   / \        / \
//	  B   e  ->  A   D
//	 / \            / \
//	A   c          c   e
func rotateRight[K, V any](n *node[K, V]) *node[K, V] {
	root := n.left
	root = root.withRight(n.withLeft(root.right))
	return root.withRight(root.right.withColor(root.color)).withColor(root.right.color)
}

// pullupRed turns a black node with two red children into a red node with
// two black children, pushing the extra red one level up.
func pullupRed[K, V any](n *node[K, V]) *node[K, V] {
	if n.color == Black && childrenColor(n, Red) {
		return &node[K, V]{n.key, n.value, Red, n.left.withColor(Black), n.right.withColor(Black)}
	}
	return n
}
