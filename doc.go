/*
Package objstore implements an object store on top of an ordered key-value
store (in memory, in a persistent red-black tree, in Bolt or in Pebble).

We implement:

1. Stores, ordered byte-key/byte-value backends with batched writes and
inclusive range scans, plus decorators: Sub scopes a store to a key prefix,
Cached buffers writes in memory until Save.

2. Ranges, translating exclusive bounds (gt, lt) into the inclusive bounds
every backend implements.

3. The ObjectStore, turning Go values into reference-counted objects with
numeric ids and optional names.

4. Codecs, pluggable per-type encoders. StdLib handles scalars, maps and sets;
RecordCodec handles registered Go types.

# Technical Details

**Keys.**
Keys are compared byte-lexicographically. Everything the ObjectStore writes is
ASCII below 0x7F, so the range "" to "\x7F" covers all of it and a prefix p is
covered by p to p+"\x7F".

**Objects.**
An object with id N owns the keys starting with "SN": "SN$type" holds
"{codec}:-:{variant}", "SN$refs" the decimal reference count, and "SN:" is the
prefix of the codec-owned fields. Named roots live under "R{name}" and hold
the decimal id. "max_id" holds the next id to allocate.

**Reference counting.**
Add returns an object with one reference, owned by the caller. Register adds
one per name. Release drops one; at zero the object is freed and its codec
releases everything it references. Cycles are never freed.

**Composite values.**
A map stores each key and each value as its own object. Entry ">{hash}"
holds "{kid}:{vid}", where hash is the xxhash of the key's type tag and
canonical encoding. A set stores "={hash}" => "{id}". Reading a composite
with Get returns a MapView or SetView that works on single entries without
loading the rest; GetEager returns a detached map[any]any or Set.
*/
package objstore
