package jotdb

import (
	"reflect"
)

// Query is a recursive predicate expression. Each key either names a document
// field mapped to an operator object ({"$eq": v}, {"$neq": v}, {"$gt": v}),
// or is "$or" mapped to a sequence of sub-queries.
type Query map[string]any

const orKey = "$or"

// Match reports whether doc satisfies q. An empty query matches everything;
// a predicate on a field the document lacks is satisfied.
//
// Go maps are unordered, so keys are evaluated in sorted order to keep the
// result deterministic. Note that evaluation returns as soon as $or is
// reached: sibling keys sorting after $or are never consulted. Since "$"
// precedes letters, $or in practice short-circuits the whole query object.
func Match(q Query, doc Document) (bool, error) {
	for _, k := range sortedKeys(q) {
		v := q[k]
		if k == orKey {
			subs, err := subQueries(v)
			if err != nil {
				return false, err
			}
			for _, sub := range subs {
				ok, err := Match(sub, doc)
				if err != nil {
					return false, err
				}
				if ok {
					return true, nil
				}
			}
			return false, nil
		}

		if isSequence(v) {
			return false, queryShapeErrf(k, "field predicate must not be a sequence")
		}
		fv, present := doc[k]
		if !present {
			continue
		}
		if !evaluate(operatorObject(v), fv) {
			return false, nil
		}
	}
	return true, nil
}

// evaluate applies an operator object to a field value. Exactly one operator
// is consulted per call, in fixed precedence order; anything else evaluates
// false.
func evaluate(op map[string]any, value any) bool {
	if operand, ok := op["$eq"]; ok {
		return valueEqual(value, operand)
	}
	if operand, ok := op["$neq"]; ok {
		return !valueEqual(value, operand)
	}
	if operand, ok := op["$gt"]; ok {
		if operand == nil {
			// Missing operand compares against zero. Longstanding behavior,
			// kept as is.
			operand = float64(0)
		}
		return valueGreater(value, operand)
	}
	return false
}

func operatorObject(v any) map[string]any {
	switch op := v.(type) {
	case map[string]any:
		return op
	case Query:
		return op
	default:
		return nil // no recognized operator, evaluates false
	}
}

func subQueries(v any) ([]Query, error) {
	switch s := v.(type) {
	case []Query:
		return s, nil
	case []map[string]any:
		out := make([]Query, len(s))
		for i, m := range s {
			out[i] = Query(m)
		}
		return out, nil
	case []any:
		out := make([]Query, len(s))
		for i, e := range s {
			switch sub := e.(type) {
			case Query:
				out[i] = sub
			case map[string]any:
				out[i] = Query(sub)
			default:
				return nil, queryShapeErrf(orKey, "sub-query %d is %T, not a query", i, e)
			}
		}
		return out, nil
	default:
		return nil, queryShapeErrf(orKey, "value must be a sequence of sub-queries, got %T", v)
	}
}

func isSequence(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func valueEqual(a, b any) bool {
	if x, ok := toFloat(a); ok {
		y, ok := toFloat(b)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}

func valueGreater(a, b any) bool {
	if x, ok := toFloat(a); ok {
		y, ok := toFloat(b)
		return ok && x > y
	}
	if x, ok := a.(string); ok {
		y, ok := b.(string)
		return ok && x > y
	}
	return false
}
