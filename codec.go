package objstore

import (
	"strings"
)

// Codec stores one family of Go types in an object's field space. The
// variant returned by Match is persisted in the object's type tag and passed
// back to every other method.
//
// fields is scoped to the object: the codec may use any keys in it. objs lets
// composite codecs store their elements as objects of their own; an id
// obtained from objs.Add belongs to the codec, which must release it from
// Delete (and wherever a view replaces an element).
type Codec interface {
	Match(v any) (variant string, ok bool)
	Serialize(variant string, v any, fields Store, objs Objects) error

	// Synthesize may return a lazy view that keeps reading and writing
	// fields after it returns.
	Synthesize(variant string, fields Store, objs Objects) (any, error)

	// Unserialize returns a fully materialized value detached from storage.
	Unserialize(variant string, fields Store, objs Objects) (any, error)

	// Delete releases every id the object references. Fields left behind
	// are removed by the caller.
	Delete(variant string, fields Store, objs Objects) error
}

// Canonicalizer is implemented by codecs that can produce an equality-
// preserving byte encoding of their values, used by Objects.Hash. Codecs
// without it fall back to sorted-keys msgpack.
type Canonicalizer interface {
	Canonical(variant string, v any) ([]byte, error)
}

// Objects is the part of ObjectStore available to codecs.
type Objects interface {
	Add(v any) (ID, error)
	Ref(id ID) error
	Release(id ID) error
	Get(id ID) (any, error)
	GetEager(id ID) (any, error)
	// Hash returns a short key-safe digest of v under its codec, equal for
	// equal values.
	Hash(v any) (string, error)
}

const tagSep = ":-:"

type typeTag struct {
	codec   string
	variant string
}

func (t typeTag) String() string {
	return t.codec + tagSep + t.variant
}

func parseTypeTag(s string) (typeTag, bool) {
	codec, variant, ok := strings.Cut(s, tagSep)
	if !ok || codec == "" {
		return typeTag{}, false
	}
	return typeTag{codec, variant}, true
}
