package objstore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an id or name does not resolve to a live object.
	ErrNotFound = errors.New("object not found")
	ErrClosed   = errors.New("store closed")
	ErrReadOnly = errors.New("store is read-only")

	// ErrInvalidName is returned for root names that are empty or contain
	// bytes outside printable ASCII.
	ErrInvalidName = errors.New("invalid name")
)

// DataError reports stored bytes that cannot be parsed.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}

// UnknownTypeError is returned when no registered codec accepts a value, or
// when a stored type tag names a codec that is not registered. Exactly one of
// Value and Tag is meaningful.
type UnknownTypeError struct {
	ID    ID
	Tag   string
	Value any
}

func (e *UnknownTypeError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("object %d: unknown type tag %q", e.ID, e.Tag)
	}
	return fmt.Sprintf("no codec for %T", e.Value)
}

// AmbiguousTypeError is returned in strict mode when several codecs match
// the same value.
type AmbiguousTypeError struct {
	Value  any
	Codecs []string
}

func (e *AmbiguousTypeError) Error() string {
	return fmt.Sprintf("%T is matched by several codecs: %s", e.Value, strings.Join(e.Codecs, ", "))
}

// StoreError wraps a failure of the underlying storage engine.
type StoreError struct {
	Op  string
	Key []byte
	Err error
}

func storeErr(op string, key []byte, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{op, key, err}
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Op)
	if e.Key != nil {
		buf.WriteByte(' ')
		buf.WriteString(fmt.Sprintf("%q", e.Key))
	}
	buf.WriteString(": ")
	buf.WriteString(e.Err.Error())
	return buf.String()
}
