// Package bucket implements chunked file storage on top of a document
// store. Large binary payloads are split into fixed-size chunk documents
// held in a "<bucket>.chunks" collection, with one descriptor document per
// file in "<bucket>.files" carrying the filename, chunk size, total length,
// upload timestamp and an optional MD5 digest.
//
// A Bucket is a lightweight handle over a docstore.Database; it owns no
// connections and is safe for concurrent use. The two backing collections
// and their supporting indexes are provisioned lazily before the first
// write, so constructing a Bucket performs no I/O.
//
// === Typical usage ===
//
//	b := bucket.New(db, bucket.Options{})
//	id, err := b.UploadFromStream(ctx, "report.pdf", file, nil)
//	...
//	stream, err := b.OpenDownloadStream(ctx, id)
package bucket

import (
	"sync"

	"github.com/marmos91/gridstore/pkg/docstore"
)

// Bucket is a handle to one files/chunks collection pair inside a
// document database. All methods are safe for concurrent use.
type Bucket struct {
	db   docstore.Database
	opts Options

	// mu guards provisioned. The flag latches to true once the backing
	// collections and indexes are known to exist and is never reset, so
	// the provisioning probe runs at most once per successful upload
	// lifetime of the handle.
	mu          sync.Mutex
	provisioned bool
}

// New returns a Bucket over db. Zero fields in opts take their documented
// defaults. No I/O happens until the first operation.
func New(db docstore.Database, opts Options) *Bucket {
	return &Bucket{
		db:   db,
		opts: opts.withDefaults(),
	}
}

// Name returns the bucket name (the collection prefix).
func (b *Bucket) Name() string {
	return b.opts.BucketName
}

// ChunkSizeBytes returns the bucket-level default chunk size.
func (b *Bucket) ChunkSizeBytes() int32 {
	return b.opts.ChunkSizeBytes
}

func (b *Bucket) collectionOptions() *docstore.CollectionOptions {
	return &docstore.CollectionOptions{
		WriteConcern:   b.opts.WriteConcern,
		ReadConcern:    b.opts.ReadConcern,
		ReadPreference: b.opts.ReadPreference,
	}
}

// filesCollection returns the "<bucket>.files" collection handle.
func (b *Bucket) filesCollection() docstore.Collection {
	return b.db.Collection(b.opts.BucketName+".files", b.collectionOptions())
}

// chunksCollection returns the "<bucket>.chunks" collection handle.
func (b *Bucket) chunksCollection() docstore.Collection {
	return b.db.Collection(b.opts.BucketName+".chunks", b.collectionOptions())
}
