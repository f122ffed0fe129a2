package rbtree

import (
	"errors"
	"iter"
	"math/rand/v2"
	"reflect"
	"slices"
	"strings"
	"testing"
)

func TestTree_InsertGet(t *testing.T) {
	tr := New[int, string]()
	if !tr.IsEmpty() || tr.Len() != 0 {
		t.Fatalf("new tree: IsEmpty = %v, Len = %d, wanted true, 0", tr.IsEmpty(), tr.Len())
	}
	for i, k := range []int{5, 3, 8, 1, 4, 7, 9, 2, 6} {
		tr = tr.Insert(k, strings.Repeat("x", i+1))
		ensure(tr.Check())
	}
	if tr.Len() != 9 {
		t.Fatalf("Len = %d, wanted 9", tr.Len())
	}
	if v, ok := tr.Get(4); !ok || v != "xxxxx" {
		t.Fatalf("Get(4) = (%q, %v), wanted (\"xxxxx\", true)", v, ok)
	}
	if v, ok := tr.Get(42); ok || v != "" {
		t.Fatalf("Get(42) = (%q, %v), wanted (\"\", false)", v, ok)
	}
	deepEqual(t, tr.Keys(), []int{1, 2, 3, 4, 5, 6, 7, 8, 9})
}

func TestTree_Sexp(t *testing.T) {
	tr := New[int, int]()
	for _, k := range []int{1, 2, 3} {
		tr = tr.Insert(k, k)
	}
	if got := tr.Sexp(); got != "(2 1 3)" {
		t.Fatalf("Sexp = %q, wanted %q", got, "(2 1 3)")
	}
}

func TestTree_InsertExistingKeyKeepsOldVersion(t *testing.T) {
	v1 := New[string, int]().Insert("a", 1).Insert("b", 2).Insert("c", 3)
	v2 := v1.Insert("b", 20)

	if v, _ := v1.Get("b"); v != 2 {
		t.Fatalf("old version Get(b) = %d, wanted 2", v)
	}
	if v, _ := v2.Get("b"); v != 20 {
		t.Fatalf("new version Get(b) = %d, wanted 20", v)
	}
	deepEqual(t, collect(v1.All()), []pair[string, int]{{"a", 1}, {"b", 2}, {"c", 3}})
	deepEqual(t, collect(v2.All()), []pair[string, int]{{"a", 1}, {"b", 20}, {"c", 3}})
}

func TestTree_PersistenceAcrossInsertAndDelete(t *testing.T) {
	base := New[int, int]()
	for i := 1; i <= 50; i++ {
		base = base.Insert(i, i*10)
	}
	before := collect(base.All())

	grown := base.Insert(1000, 1)
	shrunk, v, ok := base.Delete(25)
	if !ok || v != 250 {
		t.Fatalf("Delete(25) = (%d, %v), wanted (250, true)", v, ok)
	}
	ensure(grown.Check())
	ensure(shrunk.Check())

	deepEqual(t, collect(base.All()), before)
	if grown.Len() != 51 || shrunk.Len() != 49 {
		t.Fatalf("grown.Len = %d, shrunk.Len = %d, wanted 51, 49", grown.Len(), shrunk.Len())
	}
	if shrunk.Has(25) || !base.Has(25) {
		t.Fatalf("Has(25): shrunk = %v, base = %v; wanted false, true", shrunk.Has(25), base.Has(25))
	}
}

func TestTree_DeleteMissingKey(t *testing.T) {
	tr := New[int, int]()
	for i := 0; i < 10; i++ {
		tr = tr.Insert(i*2, i)
	}
	before := collect(tr.All())
	tr2, v, ok := tr.Delete(7)
	if ok || v != 0 {
		t.Fatalf("Delete(7) = (%d, %v), wanted (0, false)", v, ok)
	}
	deepEqual(t, collect(tr2.All()), before)

	empty := New[int, int]()
	empty2, _, ok := empty.Delete(1)
	if ok || !empty2.IsEmpty() {
		t.Fatalf("Delete on empty tree: ok = %v, IsEmpty = %v; wanted false, true", ok, empty2.IsEmpty())
	}
}

func TestTree_DeleteEverything(t *testing.T) {
	tr := New[int, int]()
	for i := 0; i < 64; i++ {
		tr = tr.Insert(i, i)
	}
	for i := 0; i < 64; i++ {
		var ok bool
		tr, _, ok = tr.Delete((i * 37) % 64)
		if !ok {
			t.Fatalf("Delete(%d) found nothing", (i*37)%64)
		}
		ensure(tr.Check())
	}
	if !tr.IsEmpty() {
		t.Fatalf("tree not empty after deleting everything: %s", tr.Sexp())
	}
}

func TestTree_RandomOperations(t *testing.T) {
	for seed := uint64(1); seed <= 8; seed++ {
		rnd := rand.New(rand.NewPCG(seed, 42))
		tr := New[int, int]()
		model := make(map[int]int)
		var versions []Tree[int, int]
		var snapshots [][]pair[int, int]

		for step := 0; step < 2000; step++ {
			k := rnd.IntN(200)
			if rnd.IntN(3) == 0 {
				var v int
				var ok bool
				tr, v, ok = tr.Delete(k)
				mv, mok := model[k]
				if ok != mok || v != mv {
					t.Fatalf("seed %d step %d: Delete(%d) = (%d, %v), wanted (%d, %v)", seed, step, k, v, ok, mv, mok)
				}
				delete(model, k)
			} else {
				v := rnd.Int()
				tr = tr.Insert(k, v)
				model[k] = v
			}
			if err := tr.Check(); err != nil {
				t.Fatalf("seed %d step %d: %v", seed, step, err)
			}
			if step%250 == 0 {
				versions = append(versions, tr)
				snapshots = append(snapshots, collect(tr.All()))
			}
		}

		deepEqual(t, collect(tr.All()), sortedModel(model))
		for i, v := range versions {
			deepEqual(t, collect(v.All()), snapshots[i])
		}
	}
}

func TestTree_AllIsRestartable(t *testing.T) {
	tr := New[string, int]().Insert("b", 2).Insert("a", 1).Insert("c", 3)
	seq := tr.All()
	first := collect(seq)
	second := collect(seq)
	deepEqual(t, first, second)

	var n int
	for range seq {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("break after first item yielded %d items, wanted 1", n)
	}
}

func TestTree_MinMax(t *testing.T) {
	tr := New[int, string]()
	if _, _, ok := tr.Min(); ok {
		t.Fatalf("Min on empty tree reported ok")
	}
	tr = tr.Insert(5, "e").Insert(1, "a").Insert(9, "i")
	if k, v, _ := tr.Min(); k != 1 || v != "a" {
		t.Fatalf("Min = (%d, %q), wanted (1, \"a\")", k, v)
	}
	if k, v, _ := tr.Max(); k != 9 || v != "i" {
		t.Fatalf("Max = (%d, %q), wanted (9, \"i\")", k, v)
	}
}

func TestTree_BadComparatorPanics(t *testing.T) {
	tr := NewFunc[int, int](func(a, b int) int { return (a - b) * 2 })
	tr = tr.Insert(1, 1)

	defer func() {
		p := recover()
		err, ok := p.(error)
		var ce *ComparisonError
		if !ok || !errors.As(err, &ce) {
			t.Fatalf("panic = %v, wanted *ComparisonError", p)
		}
		if ce.Result != 2 {
			t.Fatalf("ComparisonError.Result = %d, wanted 2", ce.Result)
		}
	}()
	tr.Insert(2, 2)
}

func TestTree_CheckDetectsViolations(t *testing.T) {
	redRed := Tree[int, int]{compare: New[int, int]().compare, root: &node[int, int]{
		key: 2, color: Black,
		left:  &node[int, int]{key: 1, color: Red, left: &node[int, int]{key: 0, color: Red}},
		right: &node[int, int]{key: 3, color: Red},
	}}
	unbalanced := Tree[int, int]{compare: New[int, int]().compare, root: &node[int, int]{
		key: 2, color: Black,
		left: &node[int, int]{key: 1, color: Black},
	}}
	unordered := Tree[int, int]{compare: New[int, int]().compare, root: &node[int, int]{
		key: 2, color: Black,
		left:  &node[int, int]{key: 3, color: Red},
		right: &node[int, int]{key: 1, color: Red},
	}}

	for name, tr := range map[string]Tree[int, int]{"red/red": redRed, "unbalanced": unbalanced, "unordered": unordered} {
		var ie *InvariantError
		if err := tr.Check(); !errors.As(err, &ie) {
			t.Errorf("%s: Check() = %v, wanted *InvariantError", name, err)
		}
	}
}

func TestMap_DefaultPolicies(t *testing.T) {
	m := NewMap[string, int]()
	if v := m.Get("missing"); v != 0 {
		t.Fatalf("Get(missing) = %d, wanted 0", v)
	}

	m = NewMapWithDefault[string, int](-1)
	m.Set("a", 1)
	if v := m.Get("a"); v != 1 {
		t.Fatalf("Get(a) = %d, wanted 1", v)
	}
	if v := m.Get("b"); v != -1 {
		t.Fatalf("Get(b) = %d, wanted -1", v)
	}
	if _, ok := m.Lookup("b"); ok {
		t.Fatalf("Lookup(b) reported found")
	}

	calls := 0
	m2 := NewMapWithDefaultFunc[string, []int](func() []int {
		calls++
		return []int{calls}
	})
	deepEqual(t, m2.Get("x"), []int{1})
	deepEqual(t, m2.Get("y"), []int{2})
}

func TestMap_SetDeleteAndSnapshots(t *testing.T) {
	Debug = true
	defer func() { Debug = false }()

	m := NewMap[string, string]()
	m.Set("person:1", "CoderPuppy")
	m.Set("person:2", "Lilia")
	m.Set("person:3", "Thallion")
	snap := m.Root()

	if v, ok := m.Delete("person:2"); !ok || v != "Lilia" {
		t.Fatalf("Delete = (%q, %v), wanted (\"Lilia\", true)", v, ok)
	}
	if _, ok := m.Delete("person:2"); ok {
		t.Fatalf("second Delete reported found")
	}
	deepEqual(t, m.Keys(), []string{"person:1", "person:3"})
	deepEqual(t, snap.Keys(), []string{"person:1", "person:2", "person:3"})
	deepEqual(t, ToMap(m), map[string]string{"person:1": "CoderPuppy", "person:3": "Thallion"})

	m.Reset(snap)
	if m.Len() != 3 {
		t.Fatalf("Len after Reset = %d, wanted 3", m.Len())
	}
	m.Clear()
	if !m.IsEmpty() || !m.Root().IsEmpty() {
		t.Fatalf("map not empty after Clear")
	}
	if snap.Len() != 3 {
		t.Fatalf("snapshot Len after Clear = %d, wanted 3", snap.Len())
	}
}

type pair[K, V any] struct {
	K K
	V V
}

func collect[K, V any](seq iter.Seq2[K, V]) []pair[K, V] {
	var result []pair[K, V]
	for k, v := range seq {
		result = append(result, pair[K, V]{k, v})
	}
	return result
}

func sortedModel(m map[int]int) []pair[int, int] {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var result []pair[int, int]
	for _, k := range keys {
		result = append(result, pair[int, int]{k, m[k]})
	}
	return result
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}
