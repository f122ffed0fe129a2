package objstore

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
)

const StdLibCodecID = "stdlib"

// Symbol is an interned-name string, stored separately from plain strings so
// that the distinction survives a round trip.
type Symbol string

// Set is a set of comparable values.
type Set map[any]struct{}

func NewSet(items ...any) Set {
	s := make(Set, len(items))
	for _, v := range items {
		s[v] = struct{}{}
	}
	return s
}

// StdLib stores Go's built-in scalar types, *big.Rat, map[any]any and Set.
// Scalars keep their text form in a single field. Maps and sets store each
// element as a separate object and keep one field per entry, keyed by the
// hash of the element (maps: ">{hash}" => "{kid}:{vid}"; sets: "={hash}" =>
// "{id}"), so a single entry is reachable without a scan.
type StdLib struct{}

const (
	variantString  = "string"
	variantSymbol  = "symbol"
	variantBool    = "bool"
	variantInt     = "int"
	variantInt64   = "int64"
	variantUint64  = "uint64"
	variantFloat64 = "float64"
	variantDecimal = "decimal"
	variantMap     = "map"
	variantSet     = "set"

	mapEntryPrefix = ">"
	setEntryPrefix = "="
)

var scalarField = []byte{}

func (StdLib) Match(v any) (string, bool) {
	switch v.(type) {
	case string:
		return variantString, true
	case Symbol:
		return variantSymbol, true
	case bool:
		return variantBool, true
	case int:
		return variantInt, true
	case int64:
		return variantInt64, true
	case uint64:
		return variantUint64, true
	case float64:
		return variantFloat64, true
	case *big.Rat:
		return variantDecimal, true
	case map[any]any, *MapView:
		return variantMap, true
	case Set, *SetView:
		return variantSet, true
	default:
		return "", false
	}
}

func (c StdLib) Serialize(variant string, v any, fields Store, objs Objects) error {
	switch variant {
	case variantMap:
		return serializeMap(v, fields, objs)
	case variantSet:
		return serializeSet(v, fields, objs)
	}
	raw, err := scalarText(variant, v)
	if err != nil {
		return err
	}
	return Put(fields, scalarField, raw)
}

// Canonical returns the hash input of a scalar: its stored text form, except
// that -0 hashes as 0 and NaN cannot be hashed, matching Go map key equality.
func (StdLib) Canonical(variant string, v any) ([]byte, error) {
	if variant == variantFloat64 {
		f := v.(float64)
		if math.IsNaN(f) {
			return nil, errors.New("NaN is not a valid key")
		}
		if f == 0 {
			v = 0.0
		}
	}
	return scalarText(variant, v)
}

func scalarText(variant string, v any) ([]byte, error) {
	switch variant {
	case variantString:
		return []byte(v.(string)), nil
	case variantSymbol:
		return []byte(v.(Symbol)), nil
	case variantBool:
		return strconv.AppendBool(nil, v.(bool)), nil
	case variantInt:
		return strconv.AppendInt(nil, int64(v.(int)), 10), nil
	case variantInt64:
		return strconv.AppendInt(nil, v.(int64), 10), nil
	case variantUint64:
		return strconv.AppendUint(nil, v.(uint64), 10), nil
	case variantFloat64:
		return strconv.AppendFloat(nil, v.(float64), 'g', -1, 64), nil
	case variantDecimal:
		return []byte(v.(*big.Rat).RatString()), nil
	case variantMap, variantSet:
		return nil, fmt.Errorf("%s values are not hashable", variant)
	default:
		return nil, fmt.Errorf("stdlib: unknown variant %q", variant)
	}
}

func (c StdLib) Synthesize(variant string, fields Store, objs Objects) (any, error) {
	switch variant {
	case variantMap:
		return &MapView{fields, objs}, nil
	case variantSet:
		return &SetView{fields, objs}, nil
	}
	return c.Unserialize(variant, fields, objs)
}

func (StdLib) Unserialize(variant string, fields Store, objs Objects) (any, error) {
	switch variant {
	case variantMap:
		return (&MapView{fields, objs}).Materialize()
	case variantSet:
		return (&SetView{fields, objs}).Materialize()
	}

	raw, found, err := fields.Get(scalarField)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("stdlib %s: missing value field", variant)
	}
	return parseScalar(variant, raw)
}

func parseScalar(variant string, raw []byte) (any, error) {
	s := string(raw)
	switch variant {
	case variantString:
		return s, nil
	case variantSymbol:
		return Symbol(s), nil
	case variantBool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, dataErrf(raw, 0, err, "invalid bool")
		}
		return v, nil
	case variantInt:
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, dataErrf(raw, 0, err, "invalid int")
		}
		return v, nil
	case variantInt64:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, dataErrf(raw, 0, err, "invalid int64")
		}
		return v, nil
	case variantUint64:
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, dataErrf(raw, 0, err, "invalid uint64")
		}
		return v, nil
	case variantFloat64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, dataErrf(raw, 0, err, "invalid float64")
		}
		return v, nil
	case variantDecimal:
		v, ok := new(big.Rat).SetString(s)
		if !ok {
			return nil, dataErrf(raw, 0, nil, "invalid decimal")
		}
		return v, nil
	default:
		return nil, fmt.Errorf("stdlib: unknown variant %q", variant)
	}
}

func (StdLib) Delete(variant string, fields Store, objs Objects) error {
	switch variant {
	case variantMap:
		return eachEntry(fields, mapEntryPrefix, func(_ []byte, ids []ID) error {
			return releaseAll(objs, ids)
		})
	case variantSet:
		return eachEntry(fields, setEntryPrefix, func(_ []byte, ids []ID) error {
			return releaseAll(objs, ids)
		})
	}
	return Delete(fields, scalarField)
}

func serializeMap(v any, fields Store, objs Objects) error {
	var m map[any]any
	switch v := v.(type) {
	case map[any]any:
		m = v
	case *MapView:
		var err error
		m, err = v.Materialize()
		if err != nil {
			return err
		}
	}
	b := NewBatch()
	var added []ID
	var err error
	for k, val := range m {
		var ids []ID
		if ids, err = putEntry(b, mapEntryPrefix, objs, k, k, val); err != nil {
			break
		}
		added = append(added, ids...)
	}
	// partial entries are stored too, so that Delete releases them
	if aerr := fields.Apply(b); aerr != nil {
		return errors.Join(aerr, releaseAll(objs, added))
	}
	return err
}

func serializeSet(v any, fields Store, objs Objects) error {
	var s Set
	switch v := v.(type) {
	case Set:
		s = v
	case *SetView:
		var err error
		s, err = v.Materialize()
		if err != nil {
			return err
		}
	}
	b := NewBatch()
	var added []ID
	var err error
	for item := range s {
		var ids []ID
		if ids, err = putEntry(b, setEntryPrefix, objs, item, item); err != nil {
			break
		}
		added = append(added, ids...)
	}
	if aerr := fields.Apply(b); aerr != nil {
		return errors.Join(aerr, releaseAll(objs, added))
	}
	return err
}

// putEntry adds values as objects and records them under the hash of key.
// It returns the added ids, which the caller must release if b is never
// applied. A key whose hash is already in b is rejected before anything is
// added.
func putEntry(b *Batch, prefix string, objs Objects, key any, values ...any) ([]ID, error) {
	h, err := objs.Hash(key)
	if err != nil {
		return nil, err
	}
	ek := entryKey(prefix, h)
	if _, _, present := b.Lookup(ek); present {
		return nil, fmt.Errorf("key %v collides with another key (hash %s)", key, h)
	}
	ids, err := addEntry(objs, values...)
	if err != nil {
		return nil, err
	}
	b.Put(ek, formatEntry(ids))
	return ids, nil
}

func entryKey(prefix, hash string) []byte {
	return []byte(prefix + hash)
}

// addEntry adds each value as an object. On failure, objects added so far
// are released.
func addEntry(objs Objects, values ...any) ([]ID, error) {
	var added []ID
	for _, v := range values {
		id, err := objs.Add(v)
		if err != nil {
			releaseAll(objs, added)
			return nil, err
		}
		added = append(added, id)
	}
	return added, nil
}

// formatEntry joins ids as "id1:id2".
func formatEntry(ids []ID) []byte {
	var buf []byte
	for i, id := range ids {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = appendUint(buf, uint64(id))
	}
	return buf
}

func parseEntry(raw []byte) ([]ID, error) {
	parts := bytes.Split(raw, []byte{':'})
	ids := make([]ID, 0, len(parts))
	for _, p := range parts {
		id, err := parseID(p)
		if err != nil {
			return nil, dataErrf(raw, 0, err, "invalid composite entry")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func releaseAll(objs Objects, ids []ID) error {
	for _, id := range ids {
		if err := objs.Release(id); err != nil {
			return err
		}
	}
	return nil
}

// eachEntry calls f for every entry under prefix. It reads all entries
// before calling f, so f may modify fields.
func eachEntry(fields Store, prefix string, f func(key []byte, ids []ID) error) error {
	kvs, err := Collect(fields, StringPrefix(prefix))
	if err != nil {
		return err
	}
	for _, kv := range kvs {
		ids, err := parseEntry(kv.Value)
		if err != nil {
			return err
		}
		if err := f(kv.Key, ids); err != nil {
			return err
		}
	}
	return nil
}
