package objstore

import (
	"bytes"
	"slices"
)

// Default inclusive bounds of a Range. Together they cover every key that
// follows the ASCII convention (all bytes below 0x7F).
var (
	MinKey = []byte("")
	MaxKey = []byte("\x7F")
)

// Range is a key range with optional exclusive (Gt, Lt) and inclusive (Gte,
// Lte) bounds. A nil field is unset; a non-nil empty slice is the empty key.
// When both bounds of a side are set, the exclusive one wins.
//
// The constructors use mnemonics: O means open, I means inclusive, E means
// exclusive; the first letter is for the lower bound, the second for the
// upper bound.
type Range struct {
	Gt, Gte []byte
	Lt, Lte []byte
}

func FullRange() Range            { return Range{} }
func RangeIO(l []byte) Range      { return Range{Gte: nonNilBytes(l)} }
func RangeEO(l []byte) Range      { return Range{Gt: nonNilBytes(l)} }
func RangeOI(u []byte) Range      { return Range{Lte: nonNilBytes(u)} }
func RangeOE(u []byte) Range      { return Range{Lt: nonNilBytes(u)} }
func RangeII(l, u []byte) Range   { return Range{Gte: nonNilBytes(l), Lte: nonNilBytes(u)} }
func RangeIE(l, u []byte) Range   { return Range{Gte: nonNilBytes(l), Lt: nonNilBytes(u)} }
func RangeEI(l, u []byte) Range   { return Range{Gt: nonNilBytes(l), Lte: nonNilBytes(u)} }
func RangeEE(l, u []byte) Range   { return Range{Gt: nonNilBytes(l), Lt: nonNilBytes(u)} }
func PrefixRange(p []byte) Range  { return RangeII(p, append(slices.Clone(p), MaxKey...)) }
func StringPrefix(p string) Range { return PrefixRange([]byte(p)) }

// Bounds translates the range into inclusive [from, to] bounds. ok is false
// when the range cannot contain any key.
//
// An exclusive lower bound k becomes k with its last byte incremented (0x01
// for the empty key); an exclusive upper bound k becomes k with its last byte
// decremented. This skips keys that extend k by trailing bytes, which is fine
// under the ASCII key convention. At the byte extremes, a lower bound ending
// in 0xFF is extended with 0x00 instead of wrapping, an upper bound ending in
// 0x00 loses that byte, and an exclusive upper bound of "" is empty.
func (r Range) Bounds() (from, to []byte, ok bool) {
	from, to = MinKey, MaxKey
	if r.Gte != nil {
		from = r.Gte
	}
	if r.Lte != nil {
		to = r.Lte
	}
	if r.Gt != nil {
		from = after(r.Gt)
	}
	if r.Lt != nil {
		if len(r.Lt) == 0 {
			return nil, nil, false
		}
		to = before(r.Lt)
	}
	if bytes.Compare(from, to) > 0 {
		return nil, nil, false
	}
	return from, to, true
}

// Contains reports whether key falls within the translated bounds.
func (r Range) Contains(key []byte) bool {
	from, to, ok := r.Bounds()
	return ok && bytes.Compare(key, from) >= 0 && bytes.Compare(key, to) <= 0
}

func after(k []byte) []byte {
	if len(k) == 0 {
		return []byte{0x01}
	}
	result := slices.Clone(k)
	if !incLast(result) {
		result = append(result, 0x00)
	}
	return result
}

func before(k []byte) []byte {
	result := slices.Clone(k)
	if !decLast(result) {
		result = result[:len(result)-1]
	}
	return result
}

// ScanRange scans the translated bounds of r.
func ScanRange(s Store, r Range) Cursor {
	from, to, ok := r.Bounds()
	if !ok {
		return newSliceCursor(nil)
	}
	return s.Scan(from, to)
}
