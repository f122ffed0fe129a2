package objstore

import (
	"encoding/hex"
	"log/slog"
	"strconv"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// incLast increments the last byte in place. Returns false, leaving data
// untouched, if data is empty or the last byte is 0xFF.
func incLast(data []byte) bool {
	n := len(data)
	if n == 0 || data[n-1] == 0xFF {
		return false
	}
	data[n-1]++
	return true
}

// decLast decrements the last byte in place. Returns false, leaving data
// untouched, if data is empty or the last byte is 0x00.
func decLast(data []byte) bool {
	n := len(data)
	if n == 0 || data[n-1] == 0 {
		return false
	}
	data[n-1]--
	return true
}

func concat(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	result := make([]byte, 0, n)
	for _, p := range parts {
		result = append(result, p...)
	}
	return result
}

func appendUint(buf []byte, v uint64) []byte {
	return strconv.AppendUint(buf, v, 10)
}

func hexstr(b []byte) string {
	if b == nil {
		return "<nil>"
	}
	if len(b) == 0 {
		return "<empty>"
	}
	return hex.EncodeToString(b)
}

func hexAttr(key string, b []byte) slog.Attr {
	return slog.String(key, hexstr(b))
}
