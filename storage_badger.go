package jotdb

import (
	"fmt"
	"slices"

	badger "github.com/dgraph-io/badger/v4"
)

// badgerStorage emulates buckets over Badger the same way the Pebble backend
// does, with prefix-scoped data keys and marker keys for bucket existence.
type badgerStorage struct {
	bdb *badger.DB
}

func newBadgerStorage(dir string) (storage, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: %w", err)
	}
	return &badgerStorage{bdb: bdb}, nil
}

func (s *badgerStorage) BeginTx(writable bool) (storageTx, error) {
	return &badgerTx{txn: s.bdb.NewTransaction(writable), writable: writable}, nil
}

func (s *badgerStorage) Close() error {
	return s.bdb.Close()
}

type badgerTx struct {
	txn      *badger.Txn
	writable bool
	cursors  []*badgerCursor
	done     bool
}

func (tx *badgerTx) Writable() bool { return tx.writable }

func (tx *badgerTx) Bucket(name, sub string) storageBucket {
	if tx.done {
		panic("tx is closed")
	}
	_, err := tx.txn.Get(bucketMarkerKey(name, sub))
	if err == badger.ErrKeyNotFound {
		return nil
	}
	ensure(err)
	return badgerBucket{tx: tx, prefix: bucketDataPrefix(name, sub)}
}

func (tx *badgerTx) CreateBucket(name, sub string) (storageBucket, error) {
	if tx.done {
		panic("tx is closed")
	}
	if !tx.writable {
		return nil, fmt.Errorf("tx not writable")
	}
	if sub != "" {
		if err := tx.txn.Set(bucketMarkerKey(name, ""), nil); err != nil {
			return nil, err
		}
	}
	if err := tx.txn.Set(bucketMarkerKey(name, sub), nil); err != nil {
		return nil, err
	}
	return badgerBucket{tx: tx, prefix: bucketDataPrefix(name, sub)}, nil
}

func (tx *badgerTx) Commit() error {
	if !tx.writable {
		return fmt.Errorf("tx not writable")
	}
	if tx.done {
		return nil
	}
	tx.closeCursors()
	tx.done = true
	return tx.txn.Commit()
}

func (tx *badgerTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.closeCursors()
	tx.done = true
	tx.txn.Discard()
	return nil
}

func (tx *badgerTx) closeCursors() {
	for _, c := range tx.cursors {
		c.close()
	}
	tx.cursors = nil
}

type badgerBucket struct {
	tx     *badgerTx
	prefix []byte
}

func (b badgerBucket) fullKey(key []byte) []byte {
	return append(slices.Clone(b.prefix), key...)
}

func (b badgerBucket) Get(key []byte) []byte {
	item, err := b.tx.txn.Get(b.fullKey(key))
	if err == badger.ErrKeyNotFound {
		return nil
	}
	ensure(err)
	return must(item.ValueCopy(nil))
}

func (b badgerBucket) Put(key, value []byte) error {
	if !b.tx.writable {
		return fmt.Errorf("tx not writable")
	}
	return b.tx.txn.Set(b.fullKey(key), value)
}

func (b badgerBucket) Cursor() storageCursor {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = b.prefix
	c := &badgerCursor{it: b.tx.txn.NewIterator(opts), prefix: b.prefix}
	b.tx.cursors = append(b.tx.cursors, c)
	return c
}

type badgerCursor struct {
	it     *badger.Iterator
	prefix []byte
	closed bool
}

// Badger allows a single active iterator on a read-write transaction, so an
// exhausted cursor releases its iterator eagerly instead of waiting for the
// transaction to end.
func (c *badgerCursor) close() {
	if !c.closed {
		c.closed = true
		c.it.Close()
	}
}

func (c *badgerCursor) current() ([]byte, []byte) {
	if c.closed {
		return nil, nil
	}
	if !c.it.Valid() {
		c.close()
		return nil, nil
	}
	item := c.it.Item()
	key := item.KeyCopy(nil)[len(c.prefix):]
	return key, must(item.ValueCopy(nil))
}

func (c *badgerCursor) First() ([]byte, []byte) {
	if c.closed {
		return nil, nil
	}
	c.it.Rewind()
	return c.current()
}

func (c *badgerCursor) Seek(seek []byte) ([]byte, []byte) {
	if c.closed {
		return nil, nil
	}
	c.it.Seek(append(slices.Clone(c.prefix), seek...))
	return c.current()
}

func (c *badgerCursor) Next() ([]byte, []byte) {
	if c.closed {
		return nil, nil
	}
	c.it.Next()
	return c.current()
}
