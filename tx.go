package jotdb

import (
	"fmt"
	"runtime/debug"
)

// Inserter is the restricted view of a database a Transaction body receives:
// inserts go straight to the primary store with no index maintenance. The
// capability shape, rather than a runtime flag, is what enforces the
// deferral.
type Inserter interface {
	Insert(key string, doc Document) (string, error)
}

type batchInserter struct {
	db *DB
}

func (b batchInserter) Insert(key string, doc Document) (string, error) {
	return b.db.insert(key, doc)
}

// Transaction runs body with deferred index maintenance: documents inserted
// through the restricted view hit the primary store immediately, and every
// registered index is rebuilt exactly once after body returns successfully.
// If body fails (or panics), no rebuild happens; documents already written
// stay written. Durability is the store's job, this layer only batches index
// cost.
func (db *DB) Transaction(body func(ins Inserter) error) error {
	if db.closed {
		return ErrClosed
	}
	if err := safelyCall(body, batchInserter{db: db}); err != nil {
		return err
	}
	return db.rebuildAll("transaction")
}

type panicked struct {
	reason any
	stack  string
}

func (p panicked) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.reason, p.stack)
}

func safelyCall(body func(ins Inserter) error, ins Inserter) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicked{p, string(debug.Stack())}
		}
	}()
	return body(ins)
}
