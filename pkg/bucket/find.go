package bucket

import (
	"context"
	"fmt"

	"github.com/marmos91/gridstore/pkg/docstore"
)

// Find queries the files collection and returns a cursor over the matching
// file documents. The filter uses the same equality semantics as the
// underlying store; a nil filter matches every file in the bucket.
func (b *Bucket) Find(ctx context.Context, filter docstore.Document, opts *FindOptions) (docstore.Cursor, error) {
	cursor, err := b.filesCollection().Find(ctx, filter, opts.storeFindOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to query files collection: %w", err)
	}
	return cursor, nil
}
