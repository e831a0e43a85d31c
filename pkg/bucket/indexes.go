package bucket

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/docstore"
)

// ensureIndexes lazily provisions the backing collections and their
// supporting indexes. It is called before every write operation and is a
// no-op after the first success.
//
// The probe is cheap: a FindOne for any document in the files collection.
// If one exists the bucket was provisioned by an earlier writer (possibly
// another process) and nothing more is done. Only an empty files collection
// triggers the create-collection and create-index path. Errors leave the
// latch unset so the next write retries from scratch.
func (b *Bucket) ensureIndexes(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.provisioned {
		return nil
	}

	files := b.filesCollection()

	_, err := files.FindOne(ctx, docstore.Document{}, &docstore.FindOneOptions{
		Projection: docstore.Document{"_id": int32(1)},
	})
	if err == nil {
		b.provisioned = true
		return nil
	}
	if !errors.Is(err, docstore.ErrNoDocuments) {
		return fmt.Errorf("failed to probe files collection: %w", err)
	}

	logger.Debug("Provisioning bucket %q collections and indexes", b.opts.BucketName)

	err = b.ensureCollectionIndex(ctx, files, []string{"filename", "uploadDate"})
	if err != nil {
		return err
	}

	err = b.ensureCollectionIndex(ctx, b.chunksCollection(), []string{"files_id", "n"})
	if err != nil {
		return err
	}

	b.provisioned = true
	return nil
}

// ensureCollectionIndex creates coll if absent and guarantees it carries a
// compound ascending index over fields, in order. An existing index with a
// matching key pattern satisfies the requirement regardless of its name.
func (b *Bucket) ensureCollectionIndex(ctx context.Context, coll docstore.Collection, fields []string) error {
	name := coll.Name()

	existing, err := b.db.ListCollectionNames(ctx, docstore.Document{"name": name})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	if len(existing) == 0 {
		if err := b.db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to create collection %q: %w", name, err)
		}
	}

	indexes, err := coll.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes on %q: %w", name, err)
	}
	for _, model := range indexes {
		if indexMatches(model.Keys, fields) {
			return nil
		}
	}

	keys := make([]docstore.IndexKey, 0, len(fields))
	for _, field := range fields {
		keys = append(keys, docstore.IndexKey{Field: field, Order: int32(1)})
	}

	_, err = coll.CreateIndex(ctx, docstore.IndexModel{
		Name: name + "_index",
		Keys: keys,
	})
	if err != nil {
		return fmt.Errorf("failed to create index on %q: %w", name, err)
	}

	logger.Debug("Created index %q on collection %q", name+"_index", name)
	return nil
}

// indexMatches reports whether keys is exactly the ascending compound index
// over fields. Order values may arrive as any integer width or as floats,
// depending on the backend.
func indexMatches(keys []docstore.IndexKey, fields []string) bool {
	if len(keys) != len(fields) {
		return false
	}
	for i, field := range fields {
		if keys[i].Field != field || !docstore.IsAscending(keys[i].Order) {
			return false
		}
	}
	return true
}
