package bucket

import (
	"context"
	"fmt"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/docstore"
)

// Delete removes the files document with the given id and every chunk
// belonging to it. It returns ErrFileNotFound when no files document
// matched; in that case the chunks collection is not touched at all.
func (b *Bucket) Delete(ctx context.Context, id any) error {
	deleted, err := b.filesCollection().DeleteOne(ctx, docstore.Document{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete file document: %w", err)
	}

	if deleted == 0 {
		return fmt.Errorf("file %v: %w", id, ErrFileNotFound)
	}

	chunksDeleted, err := b.chunksCollection().DeleteMany(ctx, docstore.Document{"files_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	logger.Debug("Deleted file %v (%d chunks) from bucket %q", id, chunksDeleted, b.opts.BucketName)
	return nil
}
