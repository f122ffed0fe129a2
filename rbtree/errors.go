package rbtree

import "fmt"

// ComparisonError is the panic value raised when a comparator returns
// something other than -1, 0 or 1.
type ComparisonError struct {
	A, B   any
	Result int
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("rbtree: cannot compare %v and %v (comparator returned %d)", e.A, e.B, e.Result)
}

// InvariantError describes a broken red-black invariant. It is returned by
// Check and used as the panic value for impossible states during rebalancing.
type InvariantError struct {
	Msg  string
	Dump string
}

func (e *InvariantError) Error() string {
	if e.Dump == "" {
		return "rbtree: " + e.Msg
	}
	return "rbtree: " + e.Msg + "\n" + e.Dump
}

func invariantErrf[K, V any](n *node[K, V], format string, args ...any) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...), Dump: dumpNode(n)}
}
