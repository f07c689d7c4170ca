package jotdb

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get for a missing primary key.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned by all operations after Close.
	ErrClosed = errors.New("database closed")
)

// QueryShapeError indicates a malformed query: an $or value that is not
// a sequence of sub-queries, or a field predicate whose value is a sequence.
type QueryShapeError struct {
	Key string
	Msg string
}

func queryShapeErrf(key string, format string, args ...any) error {
	return &QueryShapeError{key, fmt.Sprintf(format, args...)}
}

func (e *QueryShapeError) Error() string {
	return fmt.Sprintf("invalid query shape at %q: %s", e.Key, e.Msg)
}

// IndexKindError indicates an index kind that is neither TextIndex nor
// NumberIndex.
type IndexKindError struct {
	Kind IndexKind
}

func (e *IndexKindError) Error() string {
	return fmt.Sprintf("invalid index kind %d", e.Kind)
}

// IndexUnknownError indicates a search against an index name that has no
// definition in the database metadata.
type IndexUnknownError struct {
	Name string
}

func (e *IndexUnknownError) Error() string {
	return fmt.Sprintf("unknown index %q", e.Name)
}

// MetaCorruptError indicates that the metadata artifact failed its checksum
// or could not be decoded.
type MetaCorruptError struct {
	Path string
	Err  error
}

func (e *MetaCorruptError) Unwrap() error {
	return e.Err
}

func (e *MetaCorruptError) Error() string {
	return fmt.Sprintf("corrupt metadata at %s: %v", e.Path, e.Err)
}

// DataError indicates a stored value that could not be decoded.
type DataError struct {
	Data []byte
	Err  error
	Msg  string
}

func dataErrf(data []byte, err error, format string, args ...any) error {
	return &DataError{data, err, fmt.Sprintf(format, args...)}
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
