package jotdb

import (
	"fmt"
	"slices"
	"time"
)

// IndexDefinition names an index over a single top-level document field.
type IndexDefinition struct {
	Name  string
	Field string
	Kind  IndexKind
}

// CreateIndex registers the index and performs a full build of its postings
// by scanning the entire primary store. Re-creating an existing index simply
// rebuilds it. The definition is persisted to the metadata artifact before
// CreateIndex returns.
func (db *DB) CreateIndex(def IndexDefinition) error {
	if db.closed {
		return ErrClosed
	}
	if !def.Kind.valid() {
		return &IndexKindError{def.Kind}
	}
	if def.Name == "" {
		return fmt.Errorf("index name must not be empty")
	}

	if err := db.rebuild(def, "create"); err != nil {
		return err
	}
	db.meta.Indexes[def.Name] = indexDef{Field: def.Field, Kind: def.Kind}
	return db.saveMeta()
}

// rebuildAll re-derives postings for every registered index, once per index.
// The rebuild is a full scan: cost is proportional to the document count
// regardless of what changed.
func (db *DB) rebuildAll(reason string) error {
	for _, name := range sortedKeys(db.meta.Indexes) {
		d := db.meta.Indexes[name]
		def := IndexDefinition{Name: name, Field: d.Field, Kind: d.Kind}
		if err := db.rebuild(def, reason); err != nil {
			return err
		}
	}
	if len(db.meta.Indexes) > 0 {
		return db.saveMeta()
	}
	return nil
}

func (db *DB) rebuild(def IndexDefinition, reason string) error {
	start := time.Now()
	var scanned int
	err := db.update(func(tx storageTx) error {
		var err error
		scanned, err = rebuildIndexTx(tx, def)
		return err
	})
	if err != nil {
		reindexCount.WithLabelValues(def.Name, reason, "error").Inc()
		return err
	}
	elapsed := time.Since(start)
	reindexCount.WithLabelValues(def.Name, reason, "ok").Inc()
	reindexDuration.WithLabelValues(def.Name).Observe(elapsed.Seconds())
	db.logger.Debug("reindex", "index", def.Name, "field", def.Field,
		"reason", reason, "docs", scanned, "elapsed", elapsed)
	return nil
}

// rebuildIndexTx scans the primary store in key order and appends each
// document's key to the posting list for its projected field value, unless
// the key is already a member. Membership, not set semantics: a posting
// list keeps first-appearance order and is never reordered.
func rebuildIndexTx(tx storageTx, def IndexDefinition) (int, error) {
	posts, err := tx.CreateBucket(idxBucket, def.Name)
	if err != nil {
		return 0, err
	}
	docs := tx.Bucket(docsBucket, "")
	if docs == nil {
		return 0, nil
	}

	// Scan first, write after: some backends (Badger) do not allow writes
	// while a transaction iterator is open.
	type entry struct {
		ikey []byte
		key  string
	}
	var entries []entry
	var scanned int
	cur := docs.Cursor()
	for k, v := cur.First(); k != nil; k, v = cur.Next() {
		scanned++
		doc, err := decodeDoc(v)
		if err != nil {
			return scanned, err
		}
		fv, present := doc[def.Field]
		if !present {
			continue
		}
		ikey, ok := encodeIndexKey(def.Kind, fv)
		if !ok {
			continue
		}
		entries = append(entries, entry{ikey: ikey, key: string(k)})
	}

	for _, e := range entries {
		keys, err := decodePostings(posts.Get(e.ikey))
		if err != nil {
			return scanned, err
		}
		if slices.Contains(keys, e.key) {
			continue
		}
		keys = append(keys, e.key)
		data, err := encodePostings(keys)
		if err != nil {
			return scanned, err
		}
		if err := posts.Put(e.ikey, data); err != nil {
			return scanned, err
		}
	}
	return scanned, nil
}
