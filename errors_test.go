package objstore

import (
	"errors"
	"strings"
	"testing"
)

func TestDataError_ErrorAndUnwrap(t *testing.T) {
	t.Run("small data", func(t *testing.T) {
		inner := errors.New("inner")
		err := dataErrf([]byte{0xAA, 0xBB}, 1, inner, "oops")
		var de *DataError
		if !errors.As(err, &de) {
			t.Fatalf("err = %T, wanted *DataError", err)
		}
		if !errors.Is(err, inner) {
			t.Fatalf("errors.Is(err, inner) = false, wanted true")
		}
		s := err.Error()
		if !strings.Contains(s, "oops") || !strings.Contains(s, "inner") || !strings.Contains(s, "(2)") {
			t.Fatalf("err.Error() = %q, wanted message with oops/inner/(2)", s)
		}
	})

	t.Run("large data includes prefix+suffix", func(t *testing.T) {
		data := make([]byte, 200)
		for i := range data {
			data[i] = byte(i)
		}
		err := dataErrf(data, 0, nil, "oops")
		s := err.Error()
		if !strings.Contains(s, "(200)") || !strings.Contains(s, "...") {
			t.Fatalf("err.Error() = %q, wanted message with (200) and ...", s)
		}
	})
}

func TestStoreError_ErrorAndUnwrap(t *testing.T) {
	inner := errors.New("disk on fire")
	err := storeErr("get", []byte("S1$type"), inner)
	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is(err, inner) = false, wanted true")
	}
	if s := err.Error(); s != `get "S1$type": disk on fire` {
		t.Fatalf("err.Error() = %q", s)
	}
	if s := storeErr("commit", nil, inner).Error(); s != "commit: disk on fire" {
		t.Fatalf("err.Error() = %q", s)
	}
	if storeErr("get", nil, nil) != nil {
		t.Fatalf("storeErr(nil) != nil")
	}
}

func TestTypeErrors(t *testing.T) {
	s := (&UnknownTypeError{Value: struct{}{}}).Error()
	if !strings.Contains(s, "struct {}") {
		t.Fatalf("UnknownTypeError(value) = %q", s)
	}
	s = (&UnknownTypeError{ID: 7, Tag: "nope:-:x"}).Error()
	if !strings.Contains(s, "object 7") || !strings.Contains(s, "nope:-:x") {
		t.Fatalf("UnknownTypeError(tag) = %q", s)
	}
	s = (&AmbiguousTypeError{Value: 1, Codecs: []string{"a", "b"}}).Error()
	if !strings.Contains(s, "int") || !strings.Contains(s, "a, b") {
		t.Fatalf("AmbiguousTypeError = %q", s)
	}
}
