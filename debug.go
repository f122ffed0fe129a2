package objstore

import (
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpNames = DumpFlags(1 << iota)
	DumpObjects
	DumpValues
	DumpStats

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// DumpStore renders every key and value within r, one per line.
func DumpStore(s Store, r Range) string {
	var buf strings.Builder
	c := ScanRange(s, r)
	defer c.Close()
	for c.Next() {
		fmt.Fprintf(&buf, "%q = %q\n", c.Key(), c.Value())
	}
	if err := c.Err(); err != nil {
		fmt.Fprintf(&buf, "** ERROR: %v\n", err)
	}
	return buf.String()
}

// Dump renders the named roots and the objects for debugging.
func (o *ObjectStore) Dump(f DumpFlags) string {
	var buf strings.Builder
	if f.Contains(DumpStats) {
		fmt.Fprintln(&buf, dumpSep1)
		if st, err := o.Stats(); err != nil {
			fmt.Fprintf(&buf, "stats: ** ERROR: %v\n", err)
		} else {
			fmt.Fprintf(&buf, "stats: objects = %d, names = %d, refs = %d, fields = %d\n", st.Objects, st.Names, st.Refs, st.Fields)
		}
	}
	if f.Contains(DumpNames) {
		fmt.Fprintln(&buf, dumpSep1)
		o.dumpNames(&buf)
	}
	if f.Contains(DumpObjects) {
		fmt.Fprintln(&buf, dumpSep1)
		ids, err := o.IDs()
		if err != nil {
			fmt.Fprintf(&buf, "** ERROR: %v\n", err)
		}
		for i, id := range ids {
			if i > 0 {
				fmt.Fprintln(&buf, dumpSep2)
			}
			o.dumpObject(&buf, f, id)
		}
	}
	return buf.String()
}

func (o *ObjectStore) dumpNames(w *strings.Builder) {
	names, err := o.Names()
	if err != nil {
		fmt.Fprintf(w, "** ERROR: %v\n", err)
		return
	}
	for _, name := range names {
		id, _, err := o.Lookup(name)
		if err != nil {
			fmt.Fprintf(w, "%s => ** ERROR: %v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%s => %d\n", name, id)
	}
}

func (o *ObjectStore) dumpObject(w *strings.Builder, f DumpFlags, id ID) {
	tag, _, err := o.tag(id)
	if err != nil {
		fmt.Fprintf(w, "%d ** ERROR: %v\n", id, err)
		return
	}
	refs, _ := o.Refs(id)
	fmt.Fprintf(w, "%d (%s, refs %d)\n", id, tag, refs)
	if f.Contains(DumpValues) {
		v, err := o.GetEager(id)
		if err != nil {
			fmt.Fprintf(w, "%d = ** ERROR: %v\n", id, err)
		} else {
			fmt.Fprintf(w, "%d = %v\n", id, v)
		}
	}
}
