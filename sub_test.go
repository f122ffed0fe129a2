package objstore

import (
	"testing"
)

func TestSub_PrefixesAndStrips(t *testing.T) {
	db := NewMemStore()
	ensure(Put(db, []byte("other"), []byte("x")))
	s := NewSub(db, "S1:")

	ensure(s.Apply(NewBatch().Put([]byte(""), []byte("scalar")).Put([]byte(">k"), []byte("1:2"))))
	getEq(t, db, "S1:", "scalar", true)
	getEq(t, db, "S1:>k", "1:2", true)
	getEq(t, s, ">k", "1:2", true)
	getEq(t, s, "other", "", false)

	scanEq(t, s, "", "\x7F", "", ">k")
	scanEq(t, s, ">", ">\x7F", ">k")

	ensure(Delete(s, []byte(">k")))
	getEq(t, db, "S1:>k", "", false)
	getEq(t, db, "other", "x", true)
}

func TestSub_Nested(t *testing.T) {
	db := NewMemStore()
	inner := NewSub(NewSub(db, "a/"), "b/")
	if inner.Prefix() != "a/b/" {
		t.Fatalf("Prefix = %q, wanted %q", inner.Prefix(), "a/b/")
	}
	ensure(Put(inner, []byte("k"), []byte("v")))
	getEq(t, db, "a/b/k", "v", true)
}

func TestSub_SiblingIDsDoNotOverlap(t *testing.T) {
	db := NewMemStore()
	ensure(Put(NewSub(db, "S1:"), []byte("x"), []byte("1")))
	ensure(Put(NewSub(db, "S10:"), []byte("x"), []byte("10")))
	kvs := must(Collect(NewSub(db, "S1:"), FullRange()))
	deepEqual(t, kvs, []KV{{[]byte("x"), []byte("1")}})
}
