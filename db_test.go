package jotdb

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opt Options) *DB {
	t.Helper()
	opt.IsTesting = true
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	db, err := Open(t.TempDir(), opt)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func setupMem(t *testing.T) *DB {
	return setup(t, Options{Backend: MemoryBackend})
}

func TestInsertGetRoundTrip(t *testing.T) {
	db := setupMem(t)

	doc := Document{"title": "hello", "views": float64(3), "tags": []any{"a", "b"}}
	key, err := db.Insert("p1", doc)
	require.NoError(t, err)
	assert.Equal(t, "p1", key)

	got, err := db.Get("p1")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestInsertGeneratesKey(t *testing.T) {
	db := setupMem(t)

	key, err := db.Insert("", Document{"a": "b"})
	require.NoError(t, err)
	require.NotEmpty(t, key)

	got, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, Document{"a": "b"}, got)
}

func TestInsertUpsert(t *testing.T) {
	db := setupMem(t)

	_, err := db.Insert("k", Document{"v": "old"})
	require.NoError(t, err)
	_, err = db.Insert("k", Document{"v": "new"})
	require.NoError(t, err)

	got, err := db.Get("k")
	require.NoError(t, err)
	assert.Equal(t, Document{"v": "new"}, got)
}

func TestGetNotFound(t *testing.T) {
	db := setupMem(t)

	_, err := db.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindOrScenario(t *testing.T) {
	db := setupMem(t)

	_, err := db.Insert("1", Document{"id": float64(1), "type": "post"})
	require.NoError(t, err)
	_, err = db.Insert("2", Document{"id": float64(2), "type": "comment"})
	require.NoError(t, err)
	_, err = db.Insert("3", Document{"id": float64(3), "type": "other"})
	require.NoError(t, err)

	results, err := db.FindAll(Query{"$or": []Query{
		{"type": Query{"$eq": "comment"}},
		{"type": Query{"$eq": "post"}},
	}})
	require.NoError(t, err)

	var keys []string
	for _, r := range results {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"1", "2"}, keys) // primary-store key order
}

func TestFindLazyCursor(t *testing.T) {
	db := setupMem(t)

	for _, k := range []string{"a", "b", "c"} {
		_, err := db.Insert(k, Document{"k": k})
		require.NoError(t, err)
	}

	c := db.Find(Query{})
	require.True(t, c.Next())
	assert.Equal(t, "a", c.Key())
	c.Close() // abandoning mid-scan must release the read transaction

	// A fresh call produces a fresh, restarted scan.
	c = db.Find(Query{})
	var keys []string
	for c.Next() {
		keys = append(keys, c.Key())
	}
	require.NoError(t, c.Err())
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.False(t, c.Next()) // exhausted cursors stay exhausted
}

func TestFindEmptyDatabase(t *testing.T) {
	db := setupMem(t)

	results, err := db.FindAll(Query{"x": Query{"$eq": "y"}})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindPropagatesShapeError(t *testing.T) {
	db := setupMem(t)
	_, err := db.Insert("1", Document{"a": "b"})
	require.NoError(t, err)

	var shapeErr *QueryShapeError
	_, err = db.FindAll(Query{"$or": "bad"})
	require.Error(t, err)
	assert.True(t, errors.As(err, &shapeErr))
}

func TestClosedDatabase(t *testing.T) {
	db := setupMem(t)
	require.NoError(t, db.Close())

	_, err := db.Insert("k", Document{})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = db.Get("k")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = db.FindAll(Query{})
	assert.ErrorIs(t, err, ErrClosed)
	err = db.CreateIndex(IndexDefinition{Name: "i", Field: "f", Kind: TextIndex})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = db.Search("i", Query{"$eq": "x"})
	assert.ErrorIs(t, err, ErrClosed)
	err = db.Transaction(func(ins Inserter) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)

	assert.NoError(t, db.Close()) // idempotent
}

func TestLargeValueCompression(t *testing.T) {
	db := setupMem(t)

	big := strings.Repeat("all work and no play makes jack a dull boy ", 100)
	_, err := db.Insert("big", Document{"text": big})
	require.NoError(t, err)

	got, err := db.Get("big")
	require.NoError(t, err)
	assert.Equal(t, big, got["text"])
}

func TestNoCompressionOption(t *testing.T) {
	db := setup(t, Options{Backend: MemoryBackend, NoCompression: true})

	big := strings.Repeat("x", 4096)
	_, err := db.Insert("big", Document{"text": big})
	require.NoError(t, err)

	got, err := db.Get("big")
	require.NoError(t, err)
	assert.Equal(t, big, got["text"])
}

func TestRoundTripAllBackends(t *testing.T) {
	for _, backend := range []Backend{MemoryBackend, BoltBackend, PebbleBackend, BadgerBackend} {
		t.Run(backend.String(), func(t *testing.T) {
			db := setup(t, Options{Backend: backend})

			doc := Document{"title": "hello", "n": float64(42)}
			_, err := db.Insert("k", doc)
			require.NoError(t, err)

			got, err := db.Get("k")
			require.NoError(t, err)
			assert.Equal(t, doc, got)

			require.NoError(t, db.CreateIndex(IndexDefinition{Name: "byTitle", Field: "title", Kind: TextIndex}))
			results, err := db.Search("byTitle", Query{"$eq": "hello"})
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, "k", results[0].Key)
		})
	}
}
