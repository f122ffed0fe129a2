package objstore

import (
	"fmt"
	"reflect"
)

// RecordCodec stores registered Go types as a single encoded field. The
// variant is the registration name, so renaming a Go type does not orphan
// stored data.
type RecordCodec struct {
	encoding encodingMethod
	types    map[string]reflect.Type
	names    map[reflect.Type]string
}

func NewRecordCodec(encoding encodingMethod) *RecordCodec {
	return &RecordCodec{
		encoding: encoding,
		types:    make(map[string]reflect.Type),
		names:    make(map[reflect.Type]string),
	}
}

// RegisterRecord makes c accept values of type T under name. T is matched
// exactly: registering Point does not make c accept *Point.
func RegisterRecord[T any](c *RecordCodec, name string) *RecordCodec {
	c.Register(name, reflect.TypeFor[T]())
	return c
}

func (c *RecordCodec) Register(name string, typ reflect.Type) {
	if name == "" {
		panic("record name must not be empty")
	}
	if c.types[name] != nil {
		panic(fmt.Errorf("record name %q already registered for %v", name, c.types[name]))
	}
	if prev, ok := c.names[typ]; ok {
		panic(fmt.Errorf("%v already registered as %q", typ, prev))
	}
	c.types[name] = typ
	c.names[typ] = name
}

func (c *RecordCodec) Match(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	name, ok := c.names[reflect.TypeOf(v)]
	return name, ok
}

func (c *RecordCodec) Canonical(variant string, v any) ([]byte, error) {
	return c.encoding.EncodeValue(nil, reflect.ValueOf(v))
}

func (c *RecordCodec) Serialize(variant string, v any, fields Store, objs Objects) error {
	raw, err := c.Canonical(variant, v)
	if err != nil {
		return err
	}
	return Put(fields, scalarField, raw)
}

func (c *RecordCodec) Synthesize(variant string, fields Store, objs Objects) (any, error) {
	return c.Unserialize(variant, fields, objs)
}

func (c *RecordCodec) Unserialize(variant string, fields Store, objs Objects) (any, error) {
	typ := c.types[variant]
	if typ == nil {
		return nil, fmt.Errorf("record %q is not registered", variant)
	}
	raw, found, err := fields.Get(scalarField)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("record %q: missing value field", variant)
	}
	ptr := reflect.New(typ)
	if err := c.encoding.DecodeValue(raw, ptr); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

func (c *RecordCodec) Delete(variant string, fields Store, objs Objects) error {
	return Delete(fields, scalarField)
}
