package badgerstore

import "fmt"

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so collections are flattened into prefixed
// keys. This keeps the different record kinds from colliding and makes every
// per-collection operation a prefix scan.
//
// Data Type          Prefix    Key Format                    Value
// =====================================================================
// Documents          "doc:"    doc:<collection>:<id>         tagged JSON
// Indexes            "idx:"    idx:<collection>:<name>       tagged JSON
// Collection marker  "coll:"   coll:<collection>             empty
//
// The marker entry records that a collection exists even while it holds no
// documents, so ListCollectionNames and CreateCollection behave like a real
// document store. Document ids are UUID strings; ids supplied by the caller
// are rendered with %v so any comparable value works as a key.
const (
	prefixDocument   = "doc:"
	prefixIndex      = "idx:"
	prefixCollection = "coll:"
)

func documentKey(collection string, id any) []byte {
	return fmt.Appendf(nil, "%s%s:%v", prefixDocument, collection, id)
}

func documentPrefix(collection string) []byte {
	return fmt.Appendf(nil, "%s%s:", prefixDocument, collection)
}

func indexKey(collection, name string) []byte {
	return fmt.Appendf(nil, "%s%s:%s", prefixIndex, collection, name)
}

func indexPrefix(collection string) []byte {
	return fmt.Appendf(nil, "%s%s:", prefixIndex, collection)
}

func collectionKey(collection string) []byte {
	return fmt.Appendf(nil, "%s%s", prefixCollection, collection)
}
