package storeapi

import (
	"bytes"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// equalValue compares two values decoded from bson.Marshal/Unmarshal round
// trips. Binary (our Id/OID types marshal as primitive.Binary) compares by byte
// content; everything else falls back to reflect.DeepEqual after normalizing
// numeric kinds, since bson decodes integers inconsistently (int32 vs int64)
// depending on the literal used when the filter was built.
func equalValue(a, b any) bool {
	if ab, ok := a.(primitive.Binary); ok {
		bb, ok := b.(primitive.Binary)
		if !ok {
			// The stored row went through a bson.Marshal/Unmarshal round trip,
			// decoding an ids.Id/ids.OID field into primitive.Binary. The
			// filter value, built directly in Go (e.g. bson.M{"data.in_vs":
			// id}), never does — normalize it through its own
			// MarshalBSONValue so the comparison isn't type-asymmetric.
			bb, ok = marshalToBinary(b)
			if !ok {
				return false
			}
		}
		return bytes.Equal(ab.Data, bb.Data)
	}
	if an, ok := asFloat(a); ok {
		if bn, ok := asFloat(b); ok {
			return an == bn
		}
	}
	return reflect.DeepEqual(a, b)
}

// compareValue returns -1, 0, 1 as in a three-way comparator. Non-numeric,
// non-comparable values compare unequal-but-unordered as 0, which is acceptable
// for this in-memory fake: the Store contract never promises ordering outside
// of the fields this codebase actually range-filters on (all numeric).
func compareValue(a, b any) int {
	if an, ok := asFloat(a); ok {
		if bn, ok := asFloat(b); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	return 0
}

// marshalToBinary renders v (an ids.Id[T] or ids.OID, typically) through its
// own bson.ValueMarshaler the same way bson.Marshal would inline it into a
// document, so it can be compared byte-for-byte against an already-decoded
// primitive.Binary.
func marshalToBinary(v any) (primitive.Binary, bool) {
	t, data, err := bson.MarshalValue(v)
	if err != nil {
		return primitive.Binary{}, false
	}
	var bin primitive.Binary
	if err := bson.UnmarshalValue(t, data, &bin); err != nil {
		return primitive.Binary{}, false
	}
	return bin, true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
