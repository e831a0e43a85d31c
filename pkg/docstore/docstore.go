package docstore

import (
	"context"
	"time"
)

// ============================================================================
// Document Store Interfaces
// ============================================================================

// Document is a single record in a document store. Values are restricted to
// the types every backend can round-trip:
//   - string, bool
//   - int32, int64 (backends may widen plain int to int64)
//   - float64
//   - []byte (binary payloads)
//   - time.Time
//   - Document (nested documents)
//   - []any of the above
//
// Backends that persist documents (BadgerDB) or ship them over the wire
// (MongoDB) normalize values on the way back, so callers must not assume a
// numeric field comes back with the exact Go type it was stored with. The
// field accessors in values.go exist for exactly this reason.
type Document map[string]any

// Database is a named collection namespace.
//
// This interface abstracts away the underlying document store (MongoDB, an
// embedded BadgerDB database, plain memory) and exposes only the operations
// the chunked-storage convention needs. It deliberately does NOT cover
// connection management, transactions, or query execution beyond simple
// filters; those stay inside each backend.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type Database interface {
	// Name returns the database name.
	Name() string

	// Collection returns a handle for the named collection. The collection
	// does not need to exist yet; it is materialized on first insert or by
	// CreateCollection. Passing nil options inherits the database's
	// durability and consistency settings.
	Collection(name string, opts *CollectionOptions) Collection

	// ListCollectionNames returns the names of existing collections matching
	// the filter. A nil or empty filter matches every collection; a filter
	// of the form {"name": "x"} restricts the result to that collection.
	ListCollectionNames(ctx context.Context, filter Document) ([]string, error)

	// CreateCollection explicitly creates an empty collection. Creating a
	// collection that already exists is an error for some backends; callers
	// are expected to check ListCollectionNames first.
	CreateCollection(ctx context.Context, name string) error
}

// Collection is a set of documents supporting the minimal operation surface
// required by the chunked-storage convention: point inserts, filtered reads,
// single-document updates, deletes, and index management.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// InsertOne stores a new document and returns its identifier. If the
	// document carries an "_id" field that value is used; otherwise the
	// store generates an opaque identifier.
	InsertOne(ctx context.Context, doc Document) (any, error)

	// FindOne returns the first document matching the filter, honoring the
	// collection's read settings. Returns ErrNoDocuments when nothing
	// matches.
	FindOne(ctx context.Context, filter Document, opts *FindOneOptions) (Document, error)

	// Find returns a forward-only cursor over all documents matching the
	// filter. The cursor must be closed by the caller.
	Find(ctx context.Context, filter Document, opts *FindOptions) (Cursor, error)

	// UpdateOne sets the given fields on the first document matching the
	// filter. A zero MatchedCount is not an error.
	UpdateOne(ctx context.Context, filter Document, set Document) (*UpdateResult, error)

	// DeleteOne removes the first document matching the filter and returns
	// the number of documents removed (0 or 1).
	DeleteOne(ctx context.Context, filter Document) (int64, error)

	// DeleteMany removes every document matching the filter and returns the
	// number of documents removed.
	DeleteMany(ctx context.Context, filter Document) (int64, error)

	// ListIndexes returns the index definitions present on the collection.
	ListIndexes(ctx context.Context) ([]IndexModel, error)

	// CreateIndex creates a secondary index and returns its name. Issuing a
	// duplicate create for an identical definition is a no-op.
	CreateIndex(ctx context.Context, model IndexModel) (string, error)

	// Drop removes the collection and all of its documents and indexes.
	// Dropping a collection that does not exist is a no-op.
	Drop(ctx context.Context) error
}

// Cursor is a forward-only, single-pass iterator over query results.
//
// Usage:
//
//	cur, err := coll.Find(ctx, filter, nil)
//	if err != nil {
//	    return err
//	}
//	defer cur.Close(ctx)
//	for cur.Next(ctx) {
//	    doc := cur.Current()
//	    // ...
//	}
//	if err := cur.Err(); err != nil {
//	    return err
//	}
type Cursor interface {
	// Next advances the cursor, blocking while the next batch is fetched
	// from the store. It returns false when the cursor is exhausted or an
	// error occurred; the two cases are distinguished via Err.
	Next(ctx context.Context) bool

	// Current returns the document the cursor is positioned on. Only valid
	// after a Next call that returned true.
	Current() Document

	// Err returns the error that terminated iteration, if any.
	Err() error

	// Close releases the server-side resources held by the cursor.
	Close(ctx context.Context) error
}

// ============================================================================
// Indexes
// ============================================================================

// IndexKey is one field of a compound index. Order is 1 for ascending and -1
// for descending, but stores may report the marker as any numeric type
// (int32, int64, or a float equal to 1); use IsAscending when inspecting
// keys read back from ListIndexes.
type IndexKey struct {
	Field string
	Order any
}

// IndexModel describes a secondary index.
type IndexModel struct {
	// Name is the index name. Empty on create lets the store pick one.
	Name string

	// Keys are the indexed fields in significance order.
	Keys []IndexKey
}

// ============================================================================
// Operation Options
// ============================================================================

// WriteConcern selects the durability level for write operations. The zero
// value inherits the database default.
type WriteConcern string

const (
	// WriteConcernInherit uses the database's write concern.
	WriteConcernInherit WriteConcern = ""

	// WriteConcernAcknowledged waits for a single-node acknowledgment.
	WriteConcernAcknowledged WriteConcern = "acknowledged"

	// WriteConcernMajority waits for a majority of replicas.
	WriteConcernMajority WriteConcern = "majority"

	// WriteConcernUnacknowledged fires and forgets.
	WriteConcernUnacknowledged WriteConcern = "unacknowledged"
)

// ReadConcern selects the consistency level for read operations. The zero
// value inherits the database default.
type ReadConcern string

const (
	ReadConcernInherit      ReadConcern = ""
	ReadConcernLocal        ReadConcern = "local"
	ReadConcernAvailable    ReadConcern = "available"
	ReadConcernMajority     ReadConcern = "majority"
	ReadConcernLinearizable ReadConcern = "linearizable"
)

// ReadPreference selects which replicas serve reads. The zero value inherits
// the database default. Embedded backends (memory, BadgerDB) are single-node
// and ignore it.
type ReadPreference string

const (
	ReadPreferenceInherit            ReadPreference = ""
	ReadPreferencePrimary            ReadPreference = "primary"
	ReadPreferencePrimaryPreferred   ReadPreference = "primaryPreferred"
	ReadPreferenceSecondary          ReadPreference = "secondary"
	ReadPreferenceSecondaryPreferred ReadPreference = "secondaryPreferred"
	ReadPreferenceNearest            ReadPreference = "nearest"
)

// CollectionOptions overrides the database's durability and consistency
// settings for a collection handle. Zero-value fields inherit.
type CollectionOptions struct {
	WriteConcern   WriteConcern
	ReadConcern    ReadConcern
	ReadPreference ReadPreference
}

// SortKey orders query results by one field. Order is 1 for ascending, -1
// for descending.
type SortKey struct {
	Field string
	Order int32
}

// FindOptions modifies the behavior of Collection.Find.
type FindOptions struct {
	// AllowDiskUse lets the server spill to temporary files while executing
	// the query. Sent only when explicitly set.
	AllowDiskUse *bool

	// BatchSize is the number of documents fetched per round trip.
	BatchSize *int32

	// Limit caps the number of documents returned.
	Limit *int64

	// MaxTime bounds the server-side execution time of the query.
	MaxTime *time.Duration

	// NoCursorTimeout suppresses the server's idle-cursor timeout.
	NoCursorTimeout *bool

	// Skip is the number of matching documents to skip before returning.
	Skip int64

	// Sort orders the results. Nil leaves the order unspecified.
	Sort []SortKey
}

// FindOneOptions modifies the behavior of Collection.FindOne.
type FindOneOptions struct {
	// Projection restricts the fields present in the returned document.
	// Fields mapped to a value of 1 are included. Nil returns everything.
	Projection Document
}

// UpdateResult reports the outcome of an UpdateOne.
type UpdateResult struct {
	// MatchedCount is the number of documents the filter matched (0 or 1).
	MatchedCount int64

	// ModifiedCount is the number of documents actually changed.
	ModifiedCount int64
}
