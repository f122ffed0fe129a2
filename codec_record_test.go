package objstore

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

type (
	Point struct {
		X int `msgpack:"x" json:"x"`
		Y int `msgpack:"y" json:"y"`
	}

	Post struct {
		Time    time.Time `msgpack:"tm" json:"tm"`
		Content string    `msgpack:"c" json:"c"`
	}
)

func setupRecords(t testing.TB, enc encodingMethod) *ObjectStore {
	t.Helper()
	rc := NewRecordCodec(enc)
	RegisterRecord[Point](rc, "point")
	RegisterRecord[*Post](rc, "post")
	return NewDefault(NewMemStore(), Options{}).RegisterCodec("rec", rc)
}

func TestRecordCodec_RoundTrip(t *testing.T) {
	for _, enc := range []encodingMethod{MsgPack, JSON} {
		t.Run(enc.String(), func(t *testing.T) {
			o := setupRecords(t, enc)
			id := must(o.Add(Point{3, 4}))
			deepEqual(t, must(o.Get(id)), any(Point{3, 4}))
			getEq(t, o.Store(), "S"+id.String()+"$type", "rec:-:point", true)

			post := &Post{Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), Content: "hi"}
			id = must(o.Add(post))
			got := must(o.GetEager(id)).(*Post)
			if !got.Time.Equal(post.Time) || got.Content != "hi" {
				t.Fatalf("post round trip = %+v, wanted %+v", got, post)
			}

			// *Point was not registered
			var ute *UnknownTypeError
			if _, err := o.Add(&Point{}); !errors.As(err, &ute) {
				t.Fatalf("Add(*Point) = %v, wanted *UnknownTypeError", err)
			}
		})
	}
}

func TestRecordCodec_AsMapKeys(t *testing.T) {
	o := setupRecords(t, MsgPack)
	id := must(o.Add(map[any]any{Point{1, 2}: "a", Point{2, 1}: "b"}))
	view := must(o.Get(id)).(*MapView)
	v, found := must2(view.Get(Point{2, 1}))
	if !found || v != "b" {
		t.Fatalf("view.Get(Point{2, 1}) = (%v, %v), wanted (b, true)", v, found)
	}
	deepEqual(t, must(o.GetEager(id)), any(map[any]any{Point{1, 2}: "a", Point{2, 1}: "b"}))
}

func TestRecordCodec_RegisterPanics(t *testing.T) {
	rc := NewRecordCodec(MsgPack)
	RegisterRecord[Point](rc, "point")
	for name, f := range map[string]func(){
		"dup name": func() { RegisterRecord[Post](rc, "point") },
		"dup type": func() { RegisterRecord[Point](rc, "point2") },
		"empty":    func() { RegisterRecord[Post](rc, "") },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: did not panic", name)
				}
			}()
			f()
		}()
	}
}

func TestEncoding_SortedMapKeys(t *testing.T) {
	a := must(canonicalMsgPack(map[string]int{"a": 1, "b": 2, "c": 3}))
	for i := 0; i < 20; i++ {
		b := must(canonicalMsgPack(map[string]int{"c": 3, "b": 2, "a": 1}))
		if string(a) != string(b) {
			t.Fatalf("msgpack encoding is not canonical: %x vs %x", a, b)
		}
	}
}

func TestEncoding_DecodeError(t *testing.T) {
	var p Point
	var de *DataError
	for _, enc := range []encodingMethod{MsgPack, JSON} {
		err := enc.DecodeValue([]byte{0xC1}, reflect.ValueOf(&p))
		if !errors.As(err, &de) {
			t.Errorf("%v: DecodeValue(garbage) = %v, wanted *DataError", enc, err)
		}
	}
}
