package objstore

import (
	"reflect"
	"testing"
)

func TestBytesBuilder_Basics(t *testing.T) {
	var bb bytesBuilder
	_, _ = bb.Write([]byte{1, 2})
	_, _ = bb.Write([]byte{9, 8})
	if !reflect.DeepEqual(bb.Buf, []byte{1, 2, 9, 8}) {
		t.Fatalf("after Write: bb.Buf = %x, wanted 01020908", bb.Buf)
	}

	_ = bb.WriteByte(7)
	if !reflect.DeepEqual(bb.Buf, []byte{1, 2, 9, 8, 7}) {
		t.Fatalf("after WriteByte: bb.Buf = %x, wanted 0102090807", bb.Buf)
	}
}

func TestByteUtil_Grow(t *testing.T) {
	buf := ensureCapacity(nil, 3)
	if cap(buf) != 16 || len(buf) != 0 {
		t.Fatalf("ensureCapacity(nil, 3): len %d cap %d, wanted 0, 16", len(buf), cap(buf))
	}
	buf = appendRaw([]byte{0xAA}, make([]byte, 40))
	if len(buf) != 41 || cap(buf) != 64 {
		t.Fatalf("appendRaw: len %d cap %d, wanted 41, 64", len(buf), cap(buf))
	}
	off, buf := grow(buf, 2)
	if off != 41 || len(buf) != 43 {
		t.Fatalf("grow = (%d, len %d), wanted (41, len 43)", off, len(buf))
	}
}
