package jotdb

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/pebble"
)

// pebbleStorage emulates buckets over Pebble's flat keyspace: each bucket's
// keys live under a "d\x00name\x00sub\x00" prefix, and bucket existence is
// tracked by a marker key in a separate "b\x00" namespace.
type pebbleStorage struct {
	pdb *pebble.DB
}

func newPebbleStorage(dir string) (storage, error) {
	pdb, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble: %w", err)
	}
	return &pebbleStorage{pdb: pdb}, nil
}

func (s *pebbleStorage) BeginTx(writable bool) (storageTx, error) {
	if writable {
		return &pebbleTx{batch: s.pdb.NewIndexedBatch()}, nil
	}
	return &pebbleTx{snap: s.pdb.NewSnapshot()}, nil
}

func (s *pebbleStorage) Close() error {
	return s.pdb.Close()
}

type pebbleTx struct {
	batch *pebble.Batch
	snap  *pebble.Snapshot
	iters []*pebbleCursor
	done  bool
}

func (tx *pebbleTx) reader() pebble.Reader {
	if tx.batch != nil {
		return tx.batch
	}
	return tx.snap
}

func (tx *pebbleTx) Writable() bool { return tx.batch != nil }

func (tx *pebbleTx) Bucket(name, sub string) storageBucket {
	if tx.done {
		panic("tx is closed")
	}
	_, closer, err := tx.reader().Get(bucketMarkerKey(name, sub))
	if err == pebble.ErrNotFound {
		return nil
	}
	ensure(err)
	ensure(closer.Close())
	return pebbleBucket{tx: tx, prefix: bucketDataPrefix(name, sub)}
}

func (tx *pebbleTx) CreateBucket(name, sub string) (storageBucket, error) {
	if tx.done {
		panic("tx is closed")
	}
	if tx.batch == nil {
		return nil, fmt.Errorf("tx not writable")
	}
	if sub != "" {
		if err := tx.batch.Set(bucketMarkerKey(name, ""), nil, nil); err != nil {
			return nil, err
		}
	}
	if err := tx.batch.Set(bucketMarkerKey(name, sub), nil, nil); err != nil {
		return nil, err
	}
	return pebbleBucket{tx: tx, prefix: bucketDataPrefix(name, sub)}, nil
}

func (tx *pebbleTx) Commit() error {
	if tx.batch == nil {
		return fmt.Errorf("tx not writable")
	}
	if tx.done {
		return nil
	}
	tx.closeIters()
	tx.done = true
	err := tx.batch.Commit(pebble.Sync)
	closeErr := tx.batch.Close()
	if err != nil {
		return err
	}
	return closeErr
}

func (tx *pebbleTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.closeIters()
	tx.done = true
	if tx.batch != nil {
		return tx.batch.Close()
	}
	return tx.snap.Close()
}

func (tx *pebbleTx) closeIters() {
	for _, c := range tx.iters {
		c.close()
	}
	tx.iters = nil
}

type pebbleBucket struct {
	tx     *pebbleTx
	prefix []byte
}

func (b pebbleBucket) fullKey(key []byte) []byte {
	return append(slices.Clone(b.prefix), key...)
}

func (b pebbleBucket) Get(key []byte) []byte {
	v, closer, err := b.tx.reader().Get(b.fullKey(key))
	if err == pebble.ErrNotFound {
		return nil
	}
	ensure(err)
	out := slices.Clone(v)
	ensure(closer.Close())
	return out
}

func (b pebbleBucket) Put(key, value []byte) error {
	if b.tx.batch == nil {
		return fmt.Errorf("tx not writable")
	}
	return b.tx.batch.Set(b.fullKey(key), value, nil)
}

func (b pebbleBucket) Cursor() storageCursor {
	it, err := b.tx.reader().NewIter(&pebble.IterOptions{
		LowerBound: b.prefix,
		UpperBound: prefixSuccessor(b.prefix),
	})
	ensure(err)
	c := &pebbleCursor{it: it, prefix: b.prefix}
	b.tx.iters = append(b.tx.iters, c)
	return c
}

type pebbleCursor struct {
	it     *pebble.Iterator
	prefix []byte
	closed bool
}

// An exhausted cursor releases its iterator eagerly so that writes to the
// same batch never race an open iterator.
func (c *pebbleCursor) close() {
	if !c.closed {
		c.closed = true
		_ = c.it.Close()
	}
}

func (c *pebbleCursor) current(valid bool) ([]byte, []byte) {
	if !valid {
		c.close()
		return nil, nil
	}
	return slices.Clone(c.it.Key()[len(c.prefix):]), slices.Clone(c.it.Value())
}

func (c *pebbleCursor) First() ([]byte, []byte) {
	if c.closed {
		return nil, nil
	}
	return c.current(c.it.First())
}

func (c *pebbleCursor) Seek(seek []byte) ([]byte, []byte) {
	if c.closed {
		return nil, nil
	}
	return c.current(c.it.SeekGE(append(slices.Clone(c.prefix), seek...)))
}

func (c *pebbleCursor) Next() ([]byte, []byte) {
	if c.closed {
		return nil, nil
	}
	return c.current(c.it.Next())
}
