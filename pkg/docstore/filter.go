package docstore

import (
	"bytes"
	"sort"
	"time"
)

// Filter matching and in-memory sorting shared by the embedded backends
// (memory, BadgerDB). The MongoDB backend pushes filters to the server and
// does not use these.

// Match reports whether the document satisfies the filter. Filters are
// conjunctions of field equality checks; a nil or empty filter matches every
// document. Numeric values compare by magnitude, not Go type, mirroring how
// document stores compare across numeric widths.
func Match(doc Document, filter Document) bool {
	for field, want := range filter {
		got, present := doc[field]
		if !present || !EqualValues(got, want) {
			return false
		}
	}
	return true
}

// EqualValues compares two document values across the representation
// differences backends introduce (int32 vs int64 vs float64, Document vs
// map[string]any).
func EqualValues(a, b any) bool {
	if an, aok := numeric(a); aok {
		bn, bok := numeric(b)
		return bok && an == bn
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case Document:
		return equalDocuments(av, b)
	case map[string]any:
		return equalDocuments(Document(av), b)
	case nil:
		return b == nil
	default:
		return a == b
	}
}

func equalDocuments(a Document, b any) bool {
	bd, ok := DocumentField(Document{"v": b}, "v")
	if !ok || len(a) != len(bd) {
		return false
	}
	for k, av := range a {
		bv, present := bd[k]
		if !present || !EqualValues(av, bv) {
			return false
		}
	}
	return true
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// SortDocuments orders docs in place by the given sort keys. The sort is
// stable so documents comparing equal keep their store order.
func SortDocuments(docs []Document, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range keys {
			c := compareValues(docs[i][key.Field], docs[j][key.Field])
			if c == 0 {
				continue
			}
			if key.Order < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareValues orders two document values. Missing values (nil) sort first.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	if an, aok := numeric(a); aok {
		if bn, bok := numeric(b); bok {
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

	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1
			case as > bs:
				return 1
			default:
				return 0
			}
		}
	}

	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}

	// Values of unrelated types have no defined order.
	return 0
}

// ApplyProjection restricts doc to the fields the projection includes
// (marker value 1). The _id field is always kept unless explicitly excluded
// with a 0 marker. A nil projection returns doc unchanged.
func ApplyProjection(doc Document, projection Document) Document {
	if projection == nil {
		return doc
	}
	out := Document{}
	if id, present := doc["_id"]; present {
		if marker, listed := projection["_id"]; !listed || EqualValues(marker, int32(1)) {
			out["_id"] = id
		}
	}
	for field, marker := range projection {
		if field == "_id" || !EqualValues(marker, int32(1)) {
			continue
		}
		if v, present := doc[field]; present {
			out[field] = v
		}
	}
	return out
}

// ApplyFindOptions sorts and windows a materialized result set: sort first,
// then skip, then limit, matching server-side query semantics.
func ApplyFindOptions(docs []Document, opts *FindOptions) []Document {
	if opts == nil {
		return docs
	}
	SortDocuments(docs, opts.Sort)
	if opts.Skip > 0 {
		if opts.Skip >= int64(len(docs)) {
			return nil
		}
		docs = docs[opts.Skip:]
	}
	if opts.Limit != nil && *opts.Limit >= 0 && int64(len(docs)) > *opts.Limit {
		docs = docs[:*opts.Limit]
	}
	return docs
}

// CloneDocument returns a deep copy of doc. Backends copy documents at the
// store boundary so callers can't mutate stored state through retained
// references.
func CloneDocument(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case Document:
		return CloneDocument(tv)
	case map[string]any:
		return CloneDocument(Document(tv))
	case []byte:
		out := make([]byte, len(tv))
		copy(out, tv)
		return out
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
