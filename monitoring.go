package objstore

import "strconv"

// StoreStats describes the size of a Store. Keys is -1 when the backend
// cannot count keys cheaply.
type StoreStats struct {
	Keys       int
	KeyBytes   int64
	ValueBytes int64
	AllocBytes int64
}

func (ss *StoreStats) TotalSize() int64 {
	return ss.KeyBytes + ss.ValueBytes
}

// statser is implemented by backends that keep their own accounting.
type statser interface {
	Stats() StoreStats
}

// StatsOf asks the store for its stats, falling back to a full scan.
func StatsOf(s Store) (StoreStats, error) {
	if st, ok := s.(statser); ok {
		return st.Stats(), nil
	}
	var result StoreStats
	c := ScanRange(s, FullRange())
	defer c.Close()
	for c.Next() {
		result.Keys++
		result.KeyBytes += int64(len(c.Key()))
		result.ValueBytes += int64(len(c.Value()))
	}
	result.AllocBytes = result.TotalSize()
	return result, c.Err()
}

type ObjectStats struct {
	Objects int
	Names   int
	// Refs is the sum of all reference counts.
	Refs int
	// Fields counts codec-owned keys.
	Fields int
}

// Stats scans the whole store.
func (o *ObjectStore) Stats() (ObjectStats, error) {
	var result ObjectStats
	names, err := CollectKeys(o.store, StringPrefix(nameKeyPrefix))
	if err != nil {
		return result, err
	}
	result.Names = len(names)

	c := ScanRange(o.store, StringPrefix(objectKeyPrefix))
	defer c.Close()
	for c.Next() {
		id, suffix, err := splitObjectKey(c.Key())
		if err != nil {
			return result, err
		}
		switch suffix {
		case typeSuffix:
			result.Objects++
		case refsSuffix:
			n, err := strconv.Atoi(string(c.Value()))
			if err != nil {
				return result, dataErrf(c.Value(), 0, err, "object %d: invalid refcount", id)
			}
			result.Refs += n
		default:
			result.Fields++
		}
	}
	return result, c.Err()
}
