package objstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ID identifies a stored object. IDs are allocated from 1; zero is never a
// valid object.
type ID uint64

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseID(b []byte) (ID, error) {
	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, dataErrf(b, 0, err, "invalid object id")
	}
	return ID(v), nil
}

const (
	nameKeyPrefix   = "R"
	objectKeyPrefix = "S"
	maxIDKey        = "max_id"

	typeSuffix  = "$type"
	refsSuffix  = "$refs"
	fieldsInfix = ":"

	defaultTagCacheSize = 4096
)

func nameKey(name string) []byte { return []byte(nameKeyPrefix + name) }
func typeKey(id ID) []byte       { return []byte(objectKeyPrefix + id.String() + typeSuffix) }
func refsKey(id ID) []byte       { return []byte(objectKeyPrefix + id.String() + refsSuffix) }
func fieldsPrefix(id ID) string  { return objectKeyPrefix + id.String() + fieldsInfix }

type Options struct {
	Logger *slog.Logger
	// Verbose logs every object lifecycle event at debug level.
	Verbose bool
	// Strict makes Add fail when more than one codec matches a value.
	Strict bool
	// TagCacheSize bounds the in-memory cache of type tags. Zero means the
	// default; negative disables the cache. The cache assumes this
	// ObjectStore is the only writer of the underlying store.
	TagCacheSize int
}

// ObjectStore maps Go values onto a Store: each value becomes an object with
// a numeric ID, a type tag naming the codec that stores it, a reference
// count, and codec-owned fields. Named roots give objects stable names.
//
// Key layout:
//
//	R{name}       object id of a named root
//	S{id}$type    "{codec}:-:{variant}"
//	S{id}$refs    reference count
//	S{id}:{field} codec-owned data
//	max_id        next id to allocate
//
// Objects are freed when their reference count drops to zero. Reference
// cycles are never freed.
//
// An ObjectStore does not synchronize its writers.
type ObjectStore struct {
	store   Store
	logger  *slog.Logger
	verbose bool
	strict  bool

	codecs     []registeredCodec
	codecsByID map[string]Codec

	tags *lru.Cache[ID, typeTag]
}

type registeredCodec struct {
	id    string
	codec Codec
}

var _ Objects = (*ObjectStore)(nil)

// New returns an ObjectStore with no codecs registered.
func New(store Store, opt Options) *ObjectStore {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	o := &ObjectStore{
		store:      store,
		logger:     opt.Logger,
		verbose:    opt.Verbose,
		strict:     opt.Strict,
		codecsByID: make(map[string]Codec),
	}
	size := opt.TagCacheSize
	if size == 0 {
		size = defaultTagCacheSize
	}
	if size > 0 {
		o.tags = must(lru.New[ID, typeTag](size))
	}
	return o
}

// NewDefault returns an ObjectStore with StdLib registered as "stdlib".
func NewDefault(store Store, opt Options) *ObjectStore {
	return New(store, opt).RegisterCodec(StdLibCodecID, StdLib{})
}

// RegisterCodec appends a codec to the registry. Codecs are asked in
// registration order and the first match wins. Panics on a duplicate or
// malformed id.
func (o *ObjectStore) RegisterCodec(id string, codec Codec) *ObjectStore {
	if id == "" || strings.Contains(id, tagSep) {
		panic(fmt.Errorf("invalid codec id %q", id))
	}
	if o.codecsByID[id] != nil {
		panic(fmt.Errorf("codec %q already registered", id))
	}
	o.codecs = append(o.codecs, registeredCodec{id, codec})
	o.codecsByID[id] = codec
	return o
}

// Store returns the underlying store.
func (o *ObjectStore) Store() Store {
	return o.store
}

// Match returns the ids of every codec that accepts v, in registration order.
func (o *ObjectStore) Match(v any) []string {
	var result []string
	for _, rc := range o.codecs {
		if _, ok := rc.codec.Match(v); ok {
			result = append(result, rc.id)
		}
	}
	return result
}

func (o *ObjectStore) classify(v any, strict bool) (typeTag, Codec, error) {
	var tag typeTag
	var codec Codec
	var matched []string
	for _, rc := range o.codecs {
		variant, ok := rc.codec.Match(v)
		if !ok {
			continue
		}
		if codec == nil {
			tag, codec = typeTag{rc.id, variant}, rc.codec
			if !strict {
				break
			}
		}
		matched = append(matched, rc.id)
	}
	if codec == nil {
		return typeTag{}, nil, &UnknownTypeError{Value: v}
	}
	if len(matched) > 1 {
		return typeTag{}, nil, &AmbiguousTypeError{Value: v, Codecs: matched}
	}
	return tag, codec, nil
}

// Add stores v as a new object with a reference count of 1, owned by the
// caller.
func (o *ObjectStore) Add(v any) (ID, error) {
	tag, codec, err := o.classify(v, o.strict)
	if err != nil {
		return 0, err
	}
	id, err := o.allocID()
	if err != nil {
		return 0, err
	}
	return id, o.add(id, v, tag, codec)
}

// AddWithID is Add with a caller-chosen id, which must not be in use.
func (o *ObjectStore) AddWithID(id ID, v any) error {
	if id == 0 {
		return fmt.Errorf("object id 0 is reserved")
	}
	tag, codec, err := o.classify(v, o.strict)
	if err != nil {
		return err
	}
	if _, found, err := o.tag(id); err != nil {
		return err
	} else if found {
		return fmt.Errorf("object %d already exists", id)
	}
	next, err := o.nextID()
	if err != nil {
		return err
	}
	if id >= next {
		if err := Put(o.store, []byte(maxIDKey), appendUint(nil, uint64(id)+1)); err != nil {
			return err
		}
	}
	return o.add(id, v, tag, codec)
}

func (o *ObjectStore) add(id ID, v any, tag typeTag, codec Codec) error {
	b := NewBatch().
		Put(typeKey(id), []byte(tag.String())).
		Put(refsKey(id), []byte("1"))
	if err := o.store.Apply(b); err != nil {
		return err
	}
	if o.tags != nil {
		o.tags.Add(id, tag)
	}

	fields := o.fields(id)
	if err := codec.Serialize(tag.variant, v, fields, o); err != nil {
		// roll back partial writes
		if err2 := o.free(id, tag, codec); err2 != nil {
			o.logger.Warn("objstore: cleanup after failed add", slog.Uint64("id", uint64(id)), slog.Any("err", err2))
		}
		return fmt.Errorf("object %d (%s): %w", id, tag, err)
	}
	if o.verbose {
		o.logger.LogAttrs(context.Background(), slog.LevelDebug, "objstore: add", slog.Uint64("id", uint64(id)), slog.String("type", tag.String()))
	}
	return nil
}

func (o *ObjectStore) nextID() (ID, error) {
	raw, found, err := o.store.Get([]byte(maxIDKey))
	if err != nil || !found {
		return 1, err
	}
	return parseID(raw)
}

func (o *ObjectStore) allocID() (ID, error) {
	id, err := o.nextID()
	if err != nil {
		return 0, err
	}
	if err := Put(o.store, []byte(maxIDKey), appendUint(nil, uint64(id)+1)); err != nil {
		return 0, err
	}
	return id, nil
}

func (o *ObjectStore) fields(id ID) Store {
	return NewSub(o.store, fieldsPrefix(id))
}

// tag reads the type tag of id; found is false for unknown or freed ids.
func (o *ObjectStore) tag(id ID) (typeTag, bool, error) {
	if o.tags != nil {
		if tag, ok := o.tags.Get(id); ok {
			return tag, true, nil
		}
	}
	raw, found, err := o.store.Get(typeKey(id))
	if err != nil || !found {
		return typeTag{}, false, err
	}
	tag, ok := parseTypeTag(string(raw))
	if !ok {
		return typeTag{}, false, dataErrf(raw, 0, nil, "object %d: invalid type tag", id)
	}
	if o.tags != nil {
		o.tags.Add(id, tag)
	}
	return tag, true, nil
}

func (o *ObjectStore) resolve(id ID) (typeTag, Codec, error) {
	tag, found, err := o.tag(id)
	if err != nil {
		return typeTag{}, nil, err
	}
	if !found {
		return typeTag{}, nil, fmt.Errorf("object %d: %w", id, ErrNotFound)
	}
	codec := o.codecsByID[tag.codec]
	if codec == nil {
		return typeTag{}, nil, &UnknownTypeError{ID: id, Tag: tag.String()}
	}
	return tag, codec, nil
}

// Get returns the value of an object. Composite values may come back as
// lazy views that read and write the store on demand.
func (o *ObjectStore) Get(id ID) (any, error) {
	tag, codec, err := o.resolve(id)
	if err != nil {
		return nil, err
	}
	return codec.Synthesize(tag.variant, o.fields(id), o)
}

// GetEager returns a fully materialized copy of an object's value.
func (o *ObjectStore) GetEager(id ID) (any, error) {
	tag, codec, err := o.resolve(id)
	if err != nil {
		return nil, err
	}
	return codec.Unserialize(tag.variant, o.fields(id), o)
}

func (o *ObjectStore) GetNamed(name string) (any, error) {
	id, err := o.mustLookup(name)
	if err != nil {
		return nil, err
	}
	return o.Get(id)
}

func (o *ObjectStore) GetEagerNamed(name string) (any, error) {
	id, err := o.mustLookup(name)
	if err != nil {
		return nil, err
	}
	return o.GetEager(id)
}

// Refs returns the reference count of id, zero for unknown ids.
func (o *ObjectStore) Refs(id ID) (int, error) {
	raw, found, err := o.store.Get(refsKey(id))
	if err != nil || !found {
		return 0, err
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, dataErrf(raw, 0, err, "object %d: invalid refcount", id)
	}
	return n, nil
}

// Ref adds a reference to a live object.
func (o *ObjectStore) Ref(id ID) error {
	if _, found, err := o.tag(id); err != nil {
		return err
	} else if !found {
		return fmt.Errorf("object %d: %w", id, ErrNotFound)
	}
	refs, err := o.Refs(id)
	if err != nil {
		return err
	}
	if o.verbose {
		o.logger.LogAttrs(context.Background(), slog.LevelDebug, "objstore: ref", slog.Uint64("id", uint64(id)), slog.Int("refs", refs+1))
	}
	return Put(o.store, refsKey(id), appendUint(nil, uint64(refs+1)))
}

// Release drops a reference. The last release frees the object: its header
// goes first, then the codec releases whatever the object references, then
// the remaining fields are removed. Releasing an unknown or already freed id
// does nothing.
func (o *ObjectStore) Release(id ID) error {
	refs, err := o.Refs(id)
	if err != nil || refs <= 0 {
		return err
	}
	refs--
	if o.verbose {
		o.logger.LogAttrs(context.Background(), slog.LevelDebug, "objstore: release", slog.Uint64("id", uint64(id)), slog.Int("refs", refs))
	}
	if refs > 0 {
		return Put(o.store, refsKey(id), appendUint(nil, uint64(refs)))
	}

	tag, found, err := o.tag(id)
	if err != nil {
		return err
	}
	if !found {
		return Delete(o.store, refsKey(id))
	}
	codec := o.codecsByID[tag.codec]
	if codec == nil {
		return &UnknownTypeError{ID: id, Tag: tag.String()}
	}
	return o.free(id, tag, codec)
}

func (o *ObjectStore) free(id ID, tag typeTag, codec Codec) error {
	// The header goes first so that a cycle leading back here finds
	// nothing to release.
	if err := o.store.Apply(NewBatch().Delete(typeKey(id)).Delete(refsKey(id))); err != nil {
		return err
	}
	if o.tags != nil {
		o.tags.Remove(id)
	}
	fields := o.fields(id)
	delErr := codec.Delete(tag.variant, fields, o)
	if err := DeleteRange(fields, FullRange()); err != nil {
		return errors.Join(delErr, err)
	}
	if delErr != nil {
		return fmt.Errorf("object %d (%s): %w", id, tag, delErr)
	}
	if o.verbose {
		o.logger.LogAttrs(context.Background(), slog.LevelDebug, "objstore: free", slog.Uint64("id", uint64(id)), slog.String("type", tag.String()))
	}
	return nil
}

// Lookup resolves a named root.
func (o *ObjectStore) Lookup(name string) (ID, bool, error) {
	raw, found, err := o.store.Get(nameKey(name))
	if err != nil || !found {
		return 0, false, err
	}
	id, err := parseID(raw)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (o *ObjectStore) mustLookup(name string) (ID, error) {
	id, found, err := o.Lookup(name)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("name %q: %w", name, ErrNotFound)
	}
	return id, nil
}

// validName reports whether name keeps its key within the ASCII keyspace
// that Names scans.
func validName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] >= 0x7F {
			return false
		}
	}
	return true
}

func checkName(name string) error {
	if !validName(name) {
		return fmt.Errorf("name %q: %w", name, ErrInvalidName)
	}
	return nil
}

// Register points name at id, adding a reference to id. A previous target
// of name is released. Names must be non-empty printable ASCII.
func (o *ObjectStore) Register(name string, id ID) error {
	if err := checkName(name); err != nil {
		return err
	}
	old, hadOld, err := o.Lookup(name)
	if err != nil {
		return err
	}
	if err := o.Ref(id); err != nil {
		return err
	}
	if err := Put(o.store, nameKey(name), []byte(id.String())); err != nil {
		return err
	}
	if hadOld {
		return o.Release(old)
	}
	return nil
}

// Unregister removes a named root and releases its object. Unknown names
// are ignored.
func (o *ObjectStore) Unregister(name string) error {
	id, found, err := o.Lookup(name)
	if err != nil || !found {
		return err
	}
	if err := o.Release(id); err != nil {
		return err
	}
	return Delete(o.store, nameKey(name))
}

// Put stores v under name, replacing and releasing whatever was there.
func (o *ObjectStore) Put(name string, v any) (ID, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	id, err := o.Add(v)
	if err != nil {
		return 0, err
	}
	if err := o.Register(name, id); err != nil {
		return 0, errors.Join(err, o.Release(id))
	}
	return id, o.Release(id)
}

// Names lists named roots in key order.
func (o *ObjectStore) Names() ([]string, error) {
	keys, err := CollectKeys(o.store, StringPrefix(nameKeyPrefix))
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, string(k[len(nameKeyPrefix):]))
	}
	return result, nil
}

// IDs lists live objects in key order (which is not numeric order).
func (o *ObjectStore) IDs() ([]ID, error) {
	var result []ID
	c := ScanRange(o.store, StringPrefix(objectKeyPrefix))
	defer c.Close()
	for c.Next() {
		id, suffix, err := splitObjectKey(c.Key())
		if err != nil {
			return nil, err
		}
		if suffix == typeSuffix {
			result = append(result, id)
		}
	}
	return result, c.Err()
}

// splitObjectKey parses "S{id}{suffix}" where suffix is "$type", "$refs" or
// ":{field}".
func splitObjectKey(key []byte) (ID, string, error) {
	rest := key[len(objectKeyPrefix):]
	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	id, err := parseID(rest[:n])
	if err != nil {
		return 0, "", err
	}
	return id, string(rest[n:]), nil
}

// Hash digests v for use as a field key by composite codecs. Equal values
// of the same codec hash equally; collisions are not detected.
func (o *ObjectStore) Hash(v any) (string, error) {
	tag, codec, err := o.classify(v, false)
	if err != nil {
		return "", err
	}
	var canon []byte
	if c, ok := codec.(Canonicalizer); ok {
		canon, err = c.Canonical(tag.variant, v)
	} else {
		canon, err = canonicalMsgPack(v)
	}
	if err != nil {
		return "", fmt.Errorf("hashing %T: %w", v, err)
	}
	d := xxhash.New()
	d.WriteString(tag.String())
	d.Write([]byte{0})
	d.Write(canon)
	return fmt.Sprintf("%016x", d.Sum64()), nil
}
