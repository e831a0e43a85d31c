package bucket

import (
	"time"

	"github.com/marmos91/gridstore/pkg/docstore"
)

const (
	// DefaultBucketName is the collection name prefix used when Options
	// leaves BucketName empty. Files land in "fs.files" and chunks in
	// "fs.chunks".
	DefaultBucketName = "fs"

	// DefaultChunkSizeBytes is the chunk payload size used when neither the
	// bucket nor the upload call specifies one (255 KiB).
	DefaultChunkSizeBytes int32 = 255 * 1024
)

// Options configures a Bucket. The zero value is usable: every field has a
// working default applied by New.
type Options struct {
	// BucketName is the prefix for the two backing collections
	// ("<name>.files" and "<name>.chunks"). Defaults to DefaultBucketName.
	BucketName string

	// ChunkSizeBytes is the payload size for every chunk except possibly
	// the last one. Non-positive values fall back to
	// DefaultChunkSizeBytes.
	ChunkSizeBytes int32

	// DisableMD5 skips digest computation during uploads; finalized file
	// documents then carry no md5 field at all.
	DisableMD5 bool

	// WriteConcern, ReadConcern and ReadPreference are forwarded to the
	// backing collections. Zero values inherit the database defaults.
	WriteConcern   docstore.WriteConcern
	ReadConcern    docstore.ReadConcern
	ReadPreference docstore.ReadPreference
}

// withDefaults returns a copy of o with every zero field replaced by its
// default.
func (o Options) withDefaults() Options {
	if o.BucketName == "" {
		o.BucketName = DefaultBucketName
	}
	if o.ChunkSizeBytes <= 0 {
		o.ChunkSizeBytes = DefaultChunkSizeBytes
	}
	return o
}

// ProgressReporter receives upload progress callbacks. OnProgress is invoked
// once per stored chunk with the cumulative number of payload bytes written
// so far.
type ProgressReporter interface {
	OnProgress(bytesWritten uint64)
}

// ProgressFunc adapts a plain function to the ProgressReporter interface.
type ProgressFunc func(bytesWritten uint64)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(bytesWritten uint64) {
	f(bytesWritten)
}

// UploadOptions customizes a single upload. A nil *UploadOptions means all
// bucket-level defaults apply.
type UploadOptions struct {
	// ChunkSizeBytes overrides the bucket chunk size for this upload only.
	// Non-positive values are ignored.
	ChunkSizeBytes int32

	// Metadata is stored verbatim under the file document's "metadata"
	// field. When nil the field is omitted entirely.
	Metadata docstore.Document

	// Progress, when non-nil, is notified after each chunk insert.
	Progress ProgressReporter
}

// FindOptions tunes Bucket.Find queries over the files collection.
type FindOptions struct {
	AllowDiskUse    *bool
	BatchSize       *int32
	Limit           *int64
	MaxTime         *time.Duration
	NoCursorTimeout *bool
	Skip            int64
	Sort            []docstore.SortKey
}

// storeFindOptions translates o into the document-store option set.
func (o *FindOptions) storeFindOptions() *docstore.FindOptions {
	if o == nil {
		return nil
	}
	return &docstore.FindOptions{
		AllowDiskUse:    o.AllowDiskUse,
		BatchSize:       o.BatchSize,
		Limit:           o.Limit,
		MaxTime:         o.MaxTime,
		NoCursorTimeout: o.NoCursorTimeout,
		Skip:            o.Skip,
		Sort:            o.Sort,
	}
}
