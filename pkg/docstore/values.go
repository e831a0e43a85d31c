package docstore

import (
	"math"
	"time"
)

// Field accessors tolerant of the numeric widening backends perform. A
// chunk sequence number stored as int32 may come back as int64 from BadgerDB
// or as float64 after passing through a JSON boundary; these helpers
// normalize instead of forcing every caller to type-switch.

// Int32Field returns the named field as an int32.
func Int32Field(doc Document, key string) (int32, bool) {
	v, ok := Int64Field(doc, key)
	if !ok || v < math.MinInt32 || v > math.MaxInt32 {
		return 0, false
	}
	return int32(v), true
}

// Int64Field returns the named field as an int64. Float values are accepted
// only when integral.
func Int64Field(doc Document, key string) (int64, bool) {
	switch v := doc[key].(type) {
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// StringField returns the named field as a string.
func StringField(doc Document, key string) (string, bool) {
	v, ok := doc[key].(string)
	return v, ok
}

// BinaryField returns the named field as a byte slice.
func BinaryField(doc Document, key string) ([]byte, bool) {
	v, ok := doc[key].([]byte)
	return v, ok
}

// TimeField returns the named field as a time.Time.
func TimeField(doc Document, key string) (time.Time, bool) {
	v, ok := doc[key].(time.Time)
	return v, ok
}

// DocumentField returns the named field as a nested Document.
func DocumentField(doc Document, key string) (Document, bool) {
	switch v := doc[key].(type) {
	case Document:
		return v, true
	case map[string]any:
		return Document(v), true
	default:
		return nil, false
	}
}

// IsAscending reports whether an index key marker means "ascending". Stores
// represent the marker as the integer 1 or as a floating-point value
// numerically equal to 1, in any combination across the fields of a compound
// key, so the check must be duck-typed over every numeric width.
func IsAscending(order any) bool {
	switch v := order.(type) {
	case int:
		return v == 1
	case int32:
		return v == 1
	case int64:
		return v == 1
	case float32:
		return math.Abs(float64(v)-1.0) < 1e-4
	case float64:
		return math.Abs(v-1.0) < 1e-4
	default:
		return false
	}
}
