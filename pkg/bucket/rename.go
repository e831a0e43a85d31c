package bucket

import (
	"context"
	"fmt"

	"github.com/marmos91/gridstore/pkg/docstore"
)

// Rename sets the filename field of the files document with the given id.
// Unlike Delete, renaming an id that matches nothing succeeds silently;
// callers that care should Find the file first.
func (b *Bucket) Rename(ctx context.Context, id any, newFilename string) error {
	_, err := b.filesCollection().UpdateOne(ctx,
		docstore.Document{"_id": id},
		docstore.Document{"filename": newFilename},
	)
	if err != nil {
		return fmt.Errorf("failed to rename file %v: %w", id, err)
	}
	return nil
}
