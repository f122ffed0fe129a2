package rbtree

import "testing"

func TestTree_Range(t *testing.T) {
	tr := New[int, string]()
	for _, k := range []int{7, 2, 9, 4, 1, 10, 3, 6, 8, 5} {
		tr = tr.Insert(k, string(rune('a'+k-1)))
	}

	o := func(from, to int, expected ...int) {
		t.Helper()
		var keys []int
		for k, v := range tr.Range(from, to) {
			if v != string(rune('a'+k-1)) {
				t.Errorf("Range(%d, %d) yielded %d => %q", from, to, k, v)
			}
			keys = append(keys, k)
		}
		deepEqual(t, keys, expected)
	}
	o(3, 7, 3, 4, 5, 6, 7)
	o(11, 20)
	o(5, 5, 5)
	o(-5, 2, 1, 2)
	o(9, 100, 9, 10)
	o(1, 10, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	o(7, 3)
}

func TestTree_RangeBoundsBetweenKeys(t *testing.T) {
	tr := New[int, int]()
	for i := 0; i < 100; i += 10 {
		tr = tr.Insert(i, i)
	}
	var keys []int
	for k := range tr.Range(15, 55) {
		keys = append(keys, k)
	}
	deepEqual(t, keys, []int{20, 30, 40, 50})
}

func TestTree_RangeEarlyBreakAndRestart(t *testing.T) {
	tr := New[string, int]()
	for i, k := range []string{"a", "b", "c", "d", "e"} {
		tr = tr.Insert(k, i)
	}
	seq := tr.Range("b", "d")

	var first []string
	for k := range seq {
		first = append(first, k)
		if len(first) == 2 {
			break
		}
	}
	deepEqual(t, first, []string{"b", "c"})

	var all []string
	for k := range seq {
		all = append(all, k)
	}
	deepEqual(t, all, []string{"b", "c", "d"})

	// a newer version does not affect the sequence built from the old one
	tr.Insert("bb", 42)
	all = nil
	for k := range seq {
		all = append(all, k)
	}
	deepEqual(t, all, []string{"b", "c", "d"})
}

func TestTree_RangeEmptyTree(t *testing.T) {
	for k := range New[int, int]().Range(0, 100) {
		t.Fatalf("empty tree yielded %d", k)
	}
}

func TestTree_RangeMatchesFilteredAll(t *testing.T) {
	tr := New[int, int]()
	for i := 0; i < 500; i++ {
		tr = tr.Insert((i*7919)%1000, i)
	}
	for _, b := range [][2]int{{0, 999}, {13, 14}, {250, 750}, {998, 2000}, {-1, 0}} {
		var want, got []int
		for k := range tr.All() {
			if k >= b[0] && k <= b[1] {
				want = append(want, k)
			}
		}
		for k := range tr.Range(b[0], b[1]) {
			got = append(got, k)
		}
		deepEqual(t, got, want)
	}
}
