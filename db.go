package jotdb

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	docsBucket = "docs"
	idxBucket  = "idx"
)

// Document is an arbitrary string-keyed record. The store treats it as opaque
// except for projecting single top-level fields by name.
type Document map[string]any

// Result pairs a primary key with its document.
type Result struct {
	Key string
	Doc Document
}

type DB struct {
	dir    string
	stor   storage
	meta   *metadata
	logger *slog.Logger
	opts   Options
	closed bool
}

type Options struct {
	// Backend selects the key-value substrate; BoltBackend by default.
	Backend Backend
	Logger  *slog.Logger
	// IsTesting trades durability for speed on backends that support it.
	IsTesting bool
	// NoCompression disables zstd compression of large document values.
	NoCompression bool
}

// Open opens (creating if necessary) the database stored in dir. Loads the
// metadata artifact and flushes it back immediately, so the on-disk artifact
// exists deterministically after Open.
func Open(dir string, opt Options) (*DB, error) {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, err
	}

	stor, err := openStorage(opt.Backend, dir, opt.IsTesting)
	if err != nil {
		return nil, err
	}

	meta, err := loadMetadata(filepath.Join(dir, metaFileName))
	if err != nil {
		stor.Close()
		return nil, err
	}

	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db := &DB{
		dir:    dir,
		stor:   stor,
		meta:   meta,
		logger: logger,
		opts:   opt,
	}

	err = db.update(func(tx storageTx) error {
		_, err := tx.CreateBucket(docsBucket, "")
		return err
	})
	if err != nil {
		stor.Close()
		return nil, err
	}
	if err := db.saveMeta(); err != nil {
		stor.Close()
		return nil, err
	}
	return db, nil
}

// Close flushes metadata and releases the storage. No operation is valid on
// the handle afterwards.
func (db *DB) Close() error {
	if db.closed {
		return nil
	}
	if err := db.saveMeta(); err != nil {
		return err
	}
	db.closed = true
	return db.stor.Close()
}

func (db *DB) Dir() string { return db.dir }

func (db *DB) saveMeta() error {
	return db.meta.save(filepath.Join(db.dir, metaFileName))
}

func (db *DB) update(f func(tx storageTx) error) error {
	if db.closed {
		return ErrClosed
	}
	tx, err := db.stor.BeginTx(true)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) view(f func(tx storageTx) error) error {
	if db.closed {
		return ErrClosed
	}
	tx, err := db.stor.BeginTx(false)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return f(tx)
}

// Insert upserts key → doc, then rebuilds every registered index. An empty
// key is replaced with a generated one; the key actually used is returned.
func (db *DB) Insert(key string, doc Document) (string, error) {
	key, err := db.insert(key, doc)
	if err != nil {
		return "", err
	}
	if err := db.rebuildAll("insert"); err != nil {
		return "", err
	}
	return key, nil
}

// insert writes the document without touching indexes.
func (db *DB) insert(key string, doc Document) (string, error) {
	if key == "" {
		key = uuid.NewString()
	}
	data, err := encodeDoc(doc, !db.opts.NoCompression)
	if err != nil {
		return "", err
	}
	err = db.update(func(tx storageTx) error {
		b, err := tx.CreateBucket(docsBucket, "")
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return "", err
	}
	insertCount.Inc()
	return key, nil
}

// Get returns the document stored under key, or ErrNotFound.
func (db *DB) Get(key string) (Document, error) {
	var doc Document
	err := db.view(func(tx storageTx) error {
		b := tx.Bucket(docsBucket, "")
		if b == nil {
			return fmt.Errorf("%q: %w", key, ErrNotFound)
		}
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%q: %w", key, ErrNotFound)
		}
		var err error
		doc, err = decodeDoc(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
