package jotdb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchOperators(t *testing.T) {
	doc := Document{"type": "post", "views": float64(7), "title": "hello"}

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"empty query", Query{}, true},
		{"eq hit", Query{"type": Query{"$eq": "post"}}, true},
		{"eq miss", Query{"type": Query{"$eq": "comment"}}, false},
		{"neq hit", Query{"type": Query{"$neq": "comment"}}, true},
		{"neq miss", Query{"type": Query{"$neq": "post"}}, false},
		{"gt hit", Query{"views": Query{"$gt": float64(5)}}, true},
		{"gt miss", Query{"views": Query{"$gt": float64(7)}}, false},
		{"gt mixed int operand", Query{"views": Query{"$gt": 5}}, true},
		{"absent field satisfied", Query{"missing": Query{"$eq": "anything"}}, true},
		{"unrecognized operator", Query{"type": Query{"$lt": "zzz"}}, false},
		{"no operator object", Query{"type": "post"}, false},
		{"two fields both hit", Query{"type": Query{"$eq": "post"}, "views": Query{"$gt": 1}}, true},
		{"two fields one miss", Query{"type": Query{"$eq": "post"}, "views": Query{"$gt": 100}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(tt.q, doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchOr(t *testing.T) {
	doc := Document{"type": "comment"}

	ok, err := Match(Query{"$or": []Query{
		{"type": Query{"$eq": "post"}},
		{"type": Query{"$eq": "comment"}},
	}}, doc)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Match(Query{"$or": []Query{
		{"type": Query{"$eq": "post"}},
		{"type": Query{"$eq": "other"}},
	}}, doc)
	require.NoError(t, err)
	assert.False(t, ok)

	// []any element shapes, as produced by JSON decoding.
	ok, err = Match(Query{"$or": []any{
		map[string]any{"type": map[string]any{"$eq": "comment"}},
	}}, doc)
	require.NoError(t, err)
	assert.True(t, ok)
}

// $or next to sibling keys returns the $or verdict immediately; siblings
// sorting after it are never evaluated. Longstanding behavior, pinned here
// so nobody "fixes" it by accident.
func TestMatchOrShortCircuitsSiblings(t *testing.T) {
	doc := Document{"type": "other"}

	ok, err := Match(Query{
		"$or":  []Query{{"type": Query{"$eq": "other"}}},
		"type": Query{"$eq": "post"}, // would fail, must not be reached
	}, doc)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Match(Query{
		"$or":  []Query{{"type": Query{"$eq": "nope"}}},
		"type": Query{"$eq": "other"}, // would pass, must not be reached
	}, doc)
	require.NoError(t, err)
	assert.False(t, ok)
}

// A missing $gt operand compares against zero. Also pinned.
func TestMatchGtNilOperand(t *testing.T) {
	ok, err := Match(Query{"n": Query{"$gt": nil}}, Document{"n": float64(1)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Match(Query{"n": Query{"$gt": nil}}, Document{"n": float64(-1)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchFirstOperatorWins(t *testing.T) {
	// Both $eq and $gt present: only $eq is consulted.
	ok, err := Match(Query{"n": Query{"$eq": float64(1), "$gt": nil}}, Document{"n": float64(2)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchShapeErrors(t *testing.T) {
	var shapeErr *QueryShapeError

	_, err := Match(Query{"$or": "not a sequence"}, Document{})
	require.Error(t, err)
	assert.True(t, errors.As(err, &shapeErr))

	_, err = Match(Query{"type": []any{"a", "b"}}, Document{})
	require.Error(t, err)
	assert.True(t, errors.As(err, &shapeErr))

	// Shape is validated even when the field is absent from the document.
	_, err = Match(Query{"missing": []string{"a"}}, Document{})
	require.Error(t, err)
	assert.True(t, errors.As(err, &shapeErr))

	_, err = Match(Query{"$or": []any{"not a query"}}, Document{})
	require.Error(t, err)
	assert.True(t, errors.As(err, &shapeErr))
}

func TestMatchStringComparison(t *testing.T) {
	ok, err := Match(Query{"name": Query{"$gt": "a"}}, Document{"name": "b"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Match(Query{"name": Query{"$eq": "b"}}, Document{"name": "b"})
	require.NoError(t, err)
	assert.True(t, ok)
}
