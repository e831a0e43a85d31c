package bucket

import (
	"context"
	"fmt"

	"github.com/marmos91/gridstore/internal/logger"
)

// Drop removes both backing collections and everything in them. Dropping a
// bucket that was never provisioned is a no-op. The provisioning latch is
// reset, so a later upload re-creates collections and indexes from scratch.
func (b *Bucket) Drop(ctx context.Context) error {
	if err := b.filesCollection().Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop files collection: %w", err)
	}
	if err := b.chunksCollection().Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop chunks collection: %w", err)
	}

	b.mu.Lock()
	b.provisioned = false
	b.mu.Unlock()

	logger.Debug("Dropped bucket %q", b.opts.BucketName)
	return nil
}
