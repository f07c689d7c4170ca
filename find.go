package jotdb

// Find returns a lazy cursor over documents matching q, in primary-store key
// order. The cursor is single-pass and forward-only; each call to Find
// produces a fresh scan. Iterate with Next, then read Key/Doc; check Err
// after Next returns false. Close releases the underlying read transaction
// early (an exhausted cursor releases it automatically).
func (db *DB) Find(q Query) *Cursor {
	return &Cursor{db: db, q: q}
}

// FindAll drains a Find cursor into a slice.
func (db *DB) FindAll(q Query) ([]Result, error) {
	c := db.Find(q)
	defer c.Close()
	var out []Result
	for c.Next() {
		out = append(out, Result{Key: c.Key(), Doc: c.Doc()})
	}
	return out, c.Err()
}

type Cursor struct {
	db  *DB
	q   Query
	tx  storageTx
	cur storageCursor
	key string
	doc Document
	err error
	eof bool
}

func (c *Cursor) Next() bool {
	if c.eof || c.err != nil {
		return false
	}

	var k, v []byte
	if c.cur == nil {
		if c.db.closed {
			return c.fail(ErrClosed)
		}
		tx, err := c.db.stor.BeginTx(false)
		if err != nil {
			return c.fail(err)
		}
		c.tx = tx
		b := tx.Bucket(docsBucket, "")
		if b == nil {
			c.finish()
			return false
		}
		c.cur = b.Cursor()
		k, v = c.cur.First()
	} else {
		k, v = c.cur.Next()
	}

	for ; k != nil; k, v = c.cur.Next() {
		doc, err := decodeDoc(v)
		if err != nil {
			return c.fail(err)
		}
		ok, err := Match(c.q, doc)
		if err != nil {
			return c.fail(err)
		}
		if ok {
			c.key = string(k)
			c.doc = doc
			return true
		}
	}
	c.finish()
	return false
}

func (c *Cursor) Key() string   { return c.key }
func (c *Cursor) Doc() Document { return c.doc }
func (c *Cursor) Err() error    { return c.err }

func (c *Cursor) Close() {
	c.finish()
}

func (c *Cursor) fail(err error) bool {
	c.err = err
	c.finish()
	return false
}

func (c *Cursor) finish() {
	c.eof = true
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
		c.cur = nil
	}
}
