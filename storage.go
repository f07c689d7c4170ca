package jotdb

import (
	"fmt"
	"path/filepath"
)

// storage represents a key-value storage backend (Bolt, in-memory, Pebble,
// Badger).
type storage interface {
	// BeginTx starts a new transaction.
	BeginTx(writable bool) (storageTx, error)
	// Close closes the storage.
	Close() error
}

// storageTx represents a storage transaction.
type storageTx interface {
	// Writable returns true if this is a writable transaction.
	Writable() bool

	// Bucket returns a bucket. Use sub="" for a root bucket, non-empty for
	// a nested bucket. Returns nil if the bucket doesn't exist.
	Bucket(name, sub string) storageBucket

	// CreateBucket creates a bucket if it doesn't exist.
	// For sub != "", it must also ensure the root bucket exists.
	CreateBucket(name, sub string) (storageBucket, error)

	// Commit commits the transaction.
	Commit() error

	// Rollback aborts the transaction. It should be safe to call multiple times.
	Rollback() error
}

// storageBucket represents a bucket (sorted key-value collection).
type storageBucket interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(key []byte) []byte

	// Put stores a key-value pair.
	Put(key, value []byte) error

	// Cursor returns a forward cursor over the bucket in bytewise key order.
	Cursor() storageCursor
}

// storageCursor iterates over a sorted bucket, forward only. A cursor is
// valid until its transaction ends.
type storageCursor interface {
	// First moves to the first key-value pair.
	First() (key, value []byte)

	// Seek moves to the first key >= seek.
	Seek(seek []byte) (key, value []byte)

	// Next moves to the next key-value pair.
	Next() (key, value []byte)
}

// Backend selects the key-value substrate a database directory uses.
type Backend int

const (
	BoltBackend Backend = iota
	MemoryBackend
	PebbleBackend
	BadgerBackend
)

func (b Backend) String() string {
	switch b {
	case BoltBackend:
		return "bolt"
	case MemoryBackend:
		return "memory"
	case PebbleBackend:
		return "pebble"
	case BadgerBackend:
		return "badger"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// bucketDataPrefix scopes a bucket's keys within a flat keyspace (Pebble,
// Badger). bucketMarkerKey records the bucket's existence in a separate
// namespace so that an empty bucket is distinguishable from a missing one.
func bucketDataPrefix(name, sub string) []byte {
	p := make([]byte, 0, len(name)+len(sub)+5)
	p = append(p, 'd', 0)
	p = append(p, name...)
	p = append(p, 0)
	p = append(p, sub...)
	p = append(p, 0)
	return p
}

func bucketMarkerKey(name, sub string) []byte {
	p := make([]byte, 0, len(name)+len(sub)+4)
	p = append(p, 'b', 0)
	p = append(p, name...)
	p = append(p, 0)
	p = append(p, sub...)
	return p
}

func openStorage(backend Backend, dir string, isTesting bool) (storage, error) {
	switch backend {
	case BoltBackend:
		return newBoltStorage(filepath.Join(dir, "data.db"), isTesting)
	case MemoryBackend:
		return newMemStorage(), nil
	case PebbleBackend:
		return newPebbleStorage(filepath.Join(dir, "pebble"))
	case BadgerBackend:
		return newBadgerStorage(filepath.Join(dir, "badger"))
	default:
		return nil, fmt.Errorf("unknown backend %v", backend)
	}
}
