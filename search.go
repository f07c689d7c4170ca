package jotdb

import (
	"bytes"
)

// Search resolves an equality and/or prefix query against one named index,
// then resolves the accumulated posting keys into documents. Results come
// back in posting-list order (not primary-store order). When both $eq and
// $startsWith are supplied, their key sets are concatenated, not
// intersected, and no deduplication happens across postings. Kept as is.
func (db *DB) Search(index string, q Query) ([]Result, error) {
	if db.closed {
		return nil, ErrClosed
	}
	def, known := db.meta.Indexes[index]
	if !known {
		return nil, &IndexUnknownError{index}
	}

	var results []Result
	err := db.view(func(tx storageTx) error {
		keys, err := resolvePostings(tx, index, def, q)
		if err != nil || len(keys) == 0 {
			return err
		}

		docs := tx.Bucket(docsBucket, "")
		if docs == nil {
			return nil
		}
		for _, k := range keys {
			data := docs.Get([]byte(k))
			if data == nil {
				continue
			}
			doc, err := decodeDoc(data)
			if err != nil {
				return err
			}
			results = append(results, Result{Key: k, Doc: doc})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	searchCount.WithLabelValues(index).Inc()
	return results, nil
}

func resolvePostings(tx storageTx, index string, def indexDef, q Query) ([]string, error) {
	posts := tx.Bucket(idxBucket, index)
	if posts == nil {
		return nil, nil // index registered but never built against this store
	}

	var keys []string
	if operand, ok := q["$eq"]; ok {
		if ikey, ok := encodeIndexKey(def.Kind, operand); ok {
			list, err := decodePostings(posts.Get(ikey))
			if err != nil {
				return nil, err
			}
			keys = append(keys, list...)
		}
	}
	if operand, ok := q["$startsWith"]; ok {
		prefix, ok := operand.(string)
		if !ok {
			return nil, queryShapeErrf("$startsWith", "operand must be a string, got %T", operand)
		}
		p := []byte(prefix)
		cur := posts.Cursor()
		for k, v := cur.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = cur.Next() {
			list, err := decodePostings(v)
			if err != nil {
				return nil, err
			}
			keys = append(keys, list...)
		}
	}
	return keys, nil
}
