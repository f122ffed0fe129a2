package objstore

import (
	"errors"
	"fmt"
)

// MapView is a stored map[any]any read and written on demand. Single-entry
// operations touch one field; enumeration scans the entries and resolves
// each id as it goes. Values come back the way ObjectStore.Get returns them,
// so nested maps and sets are views too.
type MapView struct {
	fields Store
	objs   Objects
}

func (m *MapView) lookup(key any) (hash string, ids []ID, found bool, err error) {
	hash, err = m.objs.Hash(key)
	if err != nil {
		return "", nil, false, err
	}
	raw, found, err := m.fields.Get(entryKey(mapEntryPrefix, hash))
	if err != nil || !found {
		return hash, nil, false, err
	}
	ids, err = parseEntry(raw)
	if err != nil {
		return "", nil, false, err
	}
	if len(ids) != 2 {
		return "", nil, false, dataErrf(raw, 0, nil, "invalid map entry")
	}
	return hash, ids, true, nil
}

// Get returns the value under key; found is false if there is none.
func (m *MapView) Get(key any) (value any, found bool, err error) {
	_, ids, found, err := m.lookup(key)
	if err != nil || !found {
		return nil, false, err
	}
	value, err = m.objs.Get(ids[1])
	return value, err == nil, err
}

// GetEager is Get with the value fully materialized.
func (m *MapView) GetEager(key any) (value any, found bool, err error) {
	_, ids, found, err := m.lookup(key)
	if err != nil || !found {
		return nil, false, err
	}
	value, err = m.objs.GetEager(ids[1])
	return value, err == nil, err
}

func (m *MapView) Has(key any) (bool, error) {
	_, _, found, err := m.lookup(key)
	return found, err
}

// Put stores value under key, releasing the entry it replaces.
func (m *MapView) Put(key, value any) error {
	_, old, found, err := m.lookup(key)
	if err != nil {
		return err
	}
	b := NewBatch()
	added, err := putEntry(b, mapEntryPrefix, m.objs, key, key, value)
	if err != nil {
		return err
	}
	if err := m.fields.Apply(b); err != nil {
		return errors.Join(err, releaseAll(m.objs, added))
	}
	if found {
		return releaseAll(m.objs, old)
	}
	return nil
}

// Delete removes key; deleted is false if there was nothing to remove.
func (m *MapView) Delete(key any) (deleted bool, err error) {
	hash, ids, found, err := m.lookup(key)
	if err != nil || !found {
		return false, err
	}
	if err := Delete(m.fields, entryKey(mapEntryPrefix, hash)); err != nil {
		return false, err
	}
	return true, releaseAll(m.objs, ids)
}

func (m *MapView) Len() (int, error) {
	keys, err := CollectKeys(m.fields, StringPrefix(mapEntryPrefix))
	return len(keys), err
}

// Each calls f for every entry in hash order, which is stable but
// unrelated to the keys' own order.
func (m *MapView) Each(f func(key, value any) error) error {
	return eachEntry(m.fields, mapEntryPrefix, func(raw []byte, ids []ID) error {
		if len(ids) != 2 {
			return dataErrf(raw, 0, nil, "invalid map entry")
		}
		k, err := m.objs.Get(ids[0])
		if err != nil {
			return err
		}
		v, err := m.objs.Get(ids[1])
		if err != nil {
			return err
		}
		return f(k, v)
	})
}

func (m *MapView) Keys() ([]any, error) {
	var result []any
	err := m.Each(func(key, _ any) error {
		result = append(result, key)
		return nil
	})
	return result, err
}

func (m *MapView) Values() ([]any, error) {
	var result []any
	err := m.Each(func(_, value any) error {
		result = append(result, value)
		return nil
	})
	return result, err
}

// Materialize reads the whole map, nested values included.
func (m *MapView) Materialize() (map[any]any, error) {
	result := make(map[any]any)
	err := eachEntry(m.fields, mapEntryPrefix, func(raw []byte, ids []ID) error {
		if len(ids) != 2 {
			return dataErrf(raw, 0, nil, "invalid map entry")
		}
		k, err := m.objs.GetEager(ids[0])
		if err != nil {
			return err
		}
		v, err := m.objs.GetEager(ids[1])
		if err != nil {
			return err
		}
		if !isHashable(k) {
			return fmt.Errorf("map key of type %T cannot be materialized", k)
		}
		result[k] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetView is a stored Set read and written on demand.
type SetView struct {
	fields Store
	objs   Objects
}

func (s *SetView) lookup(item any) (hash string, id ID, found bool, err error) {
	hash, err = s.objs.Hash(item)
	if err != nil {
		return "", 0, false, err
	}
	raw, found, err := s.fields.Get(entryKey(setEntryPrefix, hash))
	if err != nil || !found {
		return hash, 0, false, err
	}
	id, err = parseID(raw)
	if err != nil {
		return "", 0, false, err
	}
	return hash, id, true, nil
}

// Add inserts item; added is false if it was already present.
func (s *SetView) Add(item any) (added bool, err error) {
	_, _, found, err := s.lookup(item)
	if err != nil || found {
		return false, err
	}
	b := NewBatch()
	ids, err := putEntry(b, setEntryPrefix, s.objs, item, item)
	if err != nil {
		return false, err
	}
	if err := s.fields.Apply(b); err != nil {
		return false, errors.Join(err, releaseAll(s.objs, ids))
	}
	return true, nil
}

func (s *SetView) Has(item any) (bool, error) {
	_, _, found, err := s.lookup(item)
	return found, err
}

// Remove deletes item; removed is false if it was not present.
func (s *SetView) Remove(item any) (removed bool, err error) {
	hash, id, found, err := s.lookup(item)
	if err != nil || !found {
		return false, err
	}
	if err := Delete(s.fields, entryKey(setEntryPrefix, hash)); err != nil {
		return false, err
	}
	return true, s.objs.Release(id)
}

func (s *SetView) Len() (int, error) {
	keys, err := CollectKeys(s.fields, StringPrefix(setEntryPrefix))
	return len(keys), err
}

// Each calls f for every item in hash order.
func (s *SetView) Each(f func(item any) error) error {
	return eachEntry(s.fields, setEntryPrefix, func(_ []byte, ids []ID) error {
		for _, id := range ids {
			v, err := s.objs.Get(id)
			if err != nil {
				return err
			}
			if err := f(v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SetView) Materialize() (Set, error) {
	result := make(Set)
	err := eachEntry(s.fields, setEntryPrefix, func(_ []byte, ids []ID) error {
		for _, id := range ids {
			v, err := s.objs.GetEager(id)
			if err != nil {
				return err
			}
			if !isHashable(v) {
				return fmt.Errorf("set item of type %T cannot be materialized", v)
			}
			result[v] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
