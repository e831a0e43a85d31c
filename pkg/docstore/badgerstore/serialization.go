package badgerstore

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marmos91/gridstore/pkg/docstore"
)

// Document serialization
// ======================
//
// Documents are stored as JSON with every value wrapped in a {"$t", "$v"}
// envelope. Plain JSON would collapse int32/int64 into float64 and turn
// binary payloads into strings, which breaks the round-trip guarantees the
// docstore.Document contract makes. The envelope keeps the Go type intact:
//
//	Type        $t      $v
//	-------------------------------------------
//	string      "s"     the string
//	bool        "b"     the bool
//	int32       "i32"   JSON number
//	int64/int   "i64"   JSON number
//	float64     "f64"   JSON number
//	[]byte      "bin"   base64 string
//	time.Time   "ts"    RFC 3339 nano string (UTC)
//	Document    "doc"   object of wrapped values
//	[]any       "arr"   array of wrapped values
//	nil         "null"  null

type taggedValue struct {
	T string          `json:"$t"`
	V json.RawMessage `json:"$v,omitempty"`
}

func encodeDocument(doc docstore.Document) ([]byte, error) {
	wrapped, err := wrapValue(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wrapped)
}

func decodeDocument(data []byte) (docstore.Document, error) {
	var tagged taggedValue
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&tagged); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	value, err := unwrapValue(tagged)
	if err != nil {
		return nil, err
	}
	doc, ok := value.(docstore.Document)
	if !ok {
		return nil, fmt.Errorf("decoded value is %T, not a document", value)
	}
	return doc, nil
}

func wrapValue(v any) (*taggedValue, error) {
	raw := func(inner any) (json.RawMessage, error) {
		return json.Marshal(inner)
	}

	switch tv := v.(type) {
	case nil:
		return &taggedValue{T: "null"}, nil
	case string:
		r, err := raw(tv)
		return &taggedValue{T: "s", V: r}, err
	case bool:
		r, err := raw(tv)
		return &taggedValue{T: "b", V: r}, err
	case int32:
		r, err := raw(tv)
		return &taggedValue{T: "i32", V: r}, err
	case int:
		r, err := raw(int64(tv))
		return &taggedValue{T: "i64", V: r}, err
	case int64:
		r, err := raw(tv)
		return &taggedValue{T: "i64", V: r}, err
	case float64:
		r, err := raw(tv)
		return &taggedValue{T: "f64", V: r}, err
	case []byte:
		r, err := raw(base64.StdEncoding.EncodeToString(tv))
		return &taggedValue{T: "bin", V: r}, err
	case time.Time:
		r, err := raw(tv.UTC().Format(time.RFC3339Nano))
		return &taggedValue{T: "ts", V: r}, err
	case docstore.Document:
		return wrapDocument(tv)
	case map[string]any:
		return wrapDocument(docstore.Document(tv))
	case []any:
		items := make([]*taggedValue, len(tv))
		for i, e := range tv {
			w, err := wrapValue(e)
			if err != nil {
				return nil, err
			}
			items[i] = w
		}
		r, err := raw(items)
		return &taggedValue{T: "arr", V: r}, err
	default:
		return nil, fmt.Errorf("unsupported document value type %T", v)
	}
}

func wrapDocument(doc docstore.Document) (*taggedValue, error) {
	fields := make(map[string]*taggedValue, len(doc))
	for k, fv := range doc {
		w, err := wrapValue(fv)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		fields[k] = w
	}
	r, err := json.Marshal(fields)
	return &taggedValue{T: "doc", V: r}, err
}

func unwrapValue(tagged taggedValue) (any, error) {
	decodeInto := func(target any) error {
		dec := json.NewDecoder(bytes.NewReader(tagged.V))
		dec.UseNumber()
		return dec.Decode(target)
	}

	switch tagged.T {
	case "null":
		return nil, nil
	case "s":
		var s string
		return s, decodeInto(&s)
	case "b":
		var b bool
		return b, decodeInto(&b)
	case "i32":
		var n json.Number
		if err := decodeInto(&n); err != nil {
			return nil, err
		}
		i, err := n.Int64()
		return int32(i), err
	case "i64":
		var n json.Number
		if err := decodeInto(&n); err != nil {
			return nil, err
		}
		return n.Int64()
	case "f64":
		var n json.Number
		if err := decodeInto(&n); err != nil {
			return nil, err
		}
		return n.Float64()
	case "bin":
		var s string
		if err := decodeInto(&s); err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(s)
	case "ts":
		var s string
		if err := decodeInto(&s); err != nil {
			return nil, err
		}
		return time.Parse(time.RFC3339Nano, s)
	case "doc":
		var fields map[string]taggedValue
		if err := decodeInto(&fields); err != nil {
			return nil, err
		}
		doc := make(docstore.Document, len(fields))
		for k, fv := range fields {
			v, err := unwrapValue(fv)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			doc[k] = v
		}
		return doc, nil
	case "arr":
		var items []taggedValue
		if err := decodeInto(&items); err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := unwrapValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown value tag %q", tagged.T)
	}
}

func encodeIndexModel(model docstore.IndexModel) ([]byte, error) {
	doc := docstore.Document{"name": model.Name}
	keys := make([]any, 0, len(model.Keys))
	for _, key := range model.Keys {
		order := any(int32(-1))
		if docstore.IsAscending(key.Order) {
			order = int32(1)
		}
		keys = append(keys, docstore.Document{"field": key.Field, "order": order})
	}
	doc["keys"] = keys
	return encodeDocument(doc)
}

func decodeIndexModel(data []byte) (docstore.IndexModel, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return docstore.IndexModel{}, err
	}

	model := docstore.IndexModel{}
	model.Name, _ = docstore.StringField(doc, "name")
	keys, _ := doc["keys"].([]any)
	for _, raw := range keys {
		key, ok := raw.(docstore.Document)
		if !ok {
			continue
		}
		field, _ := docstore.StringField(key, "field")
		model.Keys = append(model.Keys, docstore.IndexKey{Field: field, Order: key["order"]})
	}
	return model, nil
}
