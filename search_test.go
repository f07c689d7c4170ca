package jotdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchKeys(t *testing.T, db *DB, index string, q Query) []string {
	t.Helper()
	results, err := db.Search(index, q)
	require.NoError(t, err)
	keys := make([]string, 0, len(results))
	for _, r := range results {
		keys = append(keys, r.Key)
	}
	return keys
}

func TestSearchEq(t *testing.T) {
	db := setupMem(t)

	_, err := db.Insert("a", Document{"type": "post"})
	require.NoError(t, err)
	_, err = db.Insert("b", Document{"type": "comment"})
	require.NoError(t, err)
	require.NoError(t, db.CreateIndex(IndexDefinition{Name: "byType", Field: "type", Kind: TextIndex}))

	assert.Equal(t, []string{"a"}, searchKeys(t, db, "byType", Query{"$eq": "post"}))
	assert.Empty(t, searchKeys(t, db, "byType", Query{"$eq": "nothing"})) // miss is empty, not an error
}

func TestSearchStartsWith(t *testing.T) {
	db := setupMem(t)

	_, err := db.Insert("A", Document{"title": "Node JS Basics"})
	require.NoError(t, err)
	_, err = db.Insert("B", Document{"title": "Node Advanced"})
	require.NoError(t, err)
	require.NoError(t, db.CreateIndex(IndexDefinition{Name: "byTitle", Field: "title", Kind: TextIndex}))

	// "Node Advanced" < "Node JS" lexicographically: the seek starts past it
	// and it is excluded even though it shares the shorter "Node " prefix.
	assert.Equal(t, []string{"A"}, searchKeys(t, db, "byTitle", Query{"$startsWith": "Node JS"}))

	got := searchKeys(t, db, "byTitle", Query{"$startsWith": "Node"})
	assert.Equal(t, []string{"B", "A"}, got) // posting-key order, not insertion order

	assert.Empty(t, searchKeys(t, db, "byTitle", Query{"$startsWith": "Zzz"}))
}

// $eq and $startsWith together concatenate their key sets without
// deduplication. Pinned behavior.
func TestSearchEqAndStartsWithConcatenate(t *testing.T) {
	db := setupMem(t)

	_, err := db.Insert("a", Document{"title": "go"})
	require.NoError(t, err)
	require.NoError(t, db.CreateIndex(IndexDefinition{Name: "byTitle", Field: "title", Kind: TextIndex}))

	got := searchKeys(t, db, "byTitle", Query{"$eq": "go", "$startsWith": "g"})
	assert.Equal(t, []string{"a", "a"}, got)
}

func TestSearchUnknownIndex(t *testing.T) {
	db := setupMem(t)

	var unknownErr *IndexUnknownError
	_, err := db.Search("nope", Query{"$eq": "x"})
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "nope", unknownErr.Name)
}

func TestSearchStartsWithBadOperand(t *testing.T) {
	db := setupMem(t)
	require.NoError(t, db.CreateIndex(IndexDefinition{Name: "i", Field: "f", Kind: TextIndex}))

	var shapeErr *QueryShapeError
	_, err := db.Search("i", Query{"$startsWith": 42})
	require.ErrorAs(t, err, &shapeErr)
}

func TestSearchEmptyQuery(t *testing.T) {
	db := setupMem(t)

	_, err := db.Insert("a", Document{"f": "v"})
	require.NoError(t, err)
	require.NoError(t, db.CreateIndex(IndexDefinition{Name: "i", Field: "f", Kind: TextIndex}))

	// Neither $eq nor $startsWith: nothing accumulates.
	assert.Empty(t, searchKeys(t, db, "i", Query{}))
}

func TestSearchMultiplePostings(t *testing.T) {
	db := setupMem(t)

	// Three documents share a value; posting order is primary-scan order of
	// the rebuild, which is key order here.
	for _, k := range []string{"c", "a", "b"} {
		_, err := db.Insert(k, Document{"type": "post"})
		require.NoError(t, err)
	}
	require.NoError(t, db.CreateIndex(IndexDefinition{Name: "byType", Field: "type", Kind: TextIndex}))

	assert.Equal(t, []string{"a", "b", "c"}, searchKeys(t, db, "byType", Query{"$eq": "post"}))
}
