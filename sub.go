package objstore

import (
	"bytes"
	"slices"
)

// Sub scopes a Store to the keys that start with a fixed prefix. The prefix
// is added on every write and read and stripped from scanned keys, so code
// handed a Sub never learns where it lives.
type Sub struct {
	db     Store
	prefix []byte
}

func NewSub(db Store, prefix string) *Sub {
	// nested subs collapse into one
	if inner, ok := db.(*Sub); ok {
		return &Sub{inner.db, concat(inner.prefix, []byte(prefix))}
	}
	return &Sub{db, []byte(prefix)}
}

func (s *Sub) Prefix() string {
	return string(s.prefix)
}

func (s *Sub) Apply(b *Batch) error {
	pb := NewBatch()
	b.Each(func(key, value []byte, tombstone bool) error {
		if tombstone {
			pb.Delete(concat(s.prefix, key))
		} else {
			pb.Put(concat(s.prefix, key), value)
		}
		return nil
	})
	return s.db.Apply(pb)
}

func (s *Sub) Get(key []byte) ([]byte, bool, error) {
	return s.db.Get(concat(s.prefix, key))
}

func (s *Sub) Scan(from, to []byte) Cursor {
	return &subCursor{s.db.Scan(concat(s.prefix, from), concat(s.prefix, to)), s.prefix}
}

type subCursor struct {
	Cursor
	prefix []byte
}

func (c *subCursor) Next() bool {
	if !c.Cursor.Next() {
		return false
	}
	if !bytes.HasPrefix(c.Cursor.Key(), c.prefix) {
		panic(dataErrf(slices.Clone(c.Cursor.Key()), 0, nil, "scan of prefix %q returned a foreign key", c.prefix))
	}
	return true
}

func (c *subCursor) Key() []byte {
	k := c.Cursor.Key()
	if k == nil {
		return nil
	}
	return k[len(c.prefix):]
}
