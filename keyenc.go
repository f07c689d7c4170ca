package jotdb

import (
	"encoding/binary"
	"fmt"
	"math"
)

// IndexKind determines the ordering semantics of an index's posting keys.
type IndexKind uint8

const (
	// TextIndex orders posting keys as raw field-value bytes.
	TextIndex IndexKind = iota + 1
	// NumberIndex orders posting keys numerically via an order-preserving
	// float64 encoding.
	NumberIndex
)

func (k IndexKind) valid() bool {
	return k == TextIndex || k == NumberIndex
}

func (k IndexKind) String() string {
	switch k {
	case TextIndex:
		return "text"
	case NumberIndex:
		return "number"
	default:
		return fmt.Sprintf("IndexKind(%d)", uint8(k))
	}
}

// encodeIndexKey derives the posting-store key for an indexed field value.
// Returns false for values the kind cannot represent (a non-numeric value
// under a number index); such documents are simply not indexed.
func encodeIndexKey(kind IndexKind, value any) ([]byte, bool) {
	switch kind {
	case TextIndex:
		if s, ok := value.(string); ok {
			return []byte(s), true
		}
		return []byte(fmt.Sprint(value)), true
	case NumberIndex:
		f, ok := toFloat(value)
		if !ok {
			return nil, false
		}
		bits := math.Float64bits(f)
		if bits&(1<<63) == 0 {
			bits |= 1 << 63
		} else {
			bits = ^bits
		}
		return binary.BigEndian.AppendUint64(nil, bits), true
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
