package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/marmos91/gridstore/pkg/docstore"
)

// Collection implements docstore.Collection as a key prefix inside the
// shared BadgerDB instance.
type Collection struct {
	db   *badger.DB
	name string
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// InsertOne serializes the document under doc:<collection>:<id>, generating
// a UUID identifier when the caller did not supply one. The collection
// marker is written in the same transaction so the collection materializes
// atomically with its first document.
func (c *Collection) InsertOne(ctx context.Context, doc docstore.Document) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := docstore.CloneDocument(doc)
	id, present := stored["_id"]
	if !present {
		id = uuid.NewString()
		stored["_id"] = id
	}

	encoded, err := encodeDocument(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	key := documentKey(c.name, id)
	err = c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("duplicate _id %v in collection %q", id, c.name)
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := c.ensureMarker(txn); err != nil {
			return err
		}
		return txn.Set(key, encoded)
	})
	if err != nil {
		return nil, fmt.Errorf("insert into %q failed: %w", c.name, err)
	}
	return id, nil
}

// FindOne returns the first matching document. Filters of the exact form
// {"_id": id} resolve with a point lookup; everything else scans the
// collection prefix.
func (c *Collection) FindOne(ctx context.Context, filter docstore.Document, opts *docstore.FindOneOptions) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result docstore.Document
	err := c.db.View(func(txn *badger.Txn) error {
		if id, isPoint := pointLookup(filter); isPoint {
			item, err := txn.Get(documentKey(c.name, id))
			if err == badger.ErrKeyNotFound {
				return docstore.ErrNoDocuments
			}
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				doc, err := decodeDocument(val)
				result = doc
				return err
			})
		}

		return c.scan(txn, filter, func(doc docstore.Document) bool {
			result = doc
			return false
		})
	})
	if errors.Is(err, docstore.ErrNoDocuments) || (err == nil && result == nil) {
		return nil, docstore.ErrNoDocuments
	}
	if err != nil {
		return nil, fmt.Errorf("find in %q failed: %w", c.name, err)
	}
	if opts != nil {
		result = docstore.ApplyProjection(result, opts.Projection)
	}
	return result, nil
}

// Find materializes the matching documents and returns a cursor over the
// snapshot sorted and windowed per opts.
func (c *Collection) Find(ctx context.Context, filter docstore.Document, opts *docstore.FindOptions) (docstore.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []docstore.Document
	err := c.db.View(func(txn *badger.Txn) error {
		return c.scan(txn, filter, func(doc docstore.Document) bool {
			results = append(results, doc)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("find in %q failed: %w", c.name, err)
	}

	results = docstore.ApplyFindOptions(results, opts)
	return docstore.NewSliceCursor(results), nil
}

// UpdateOne rewrites the first matching document with the set fields
// applied, all inside one transaction.
func (c *Collection) UpdateOne(ctx context.Context, filter docstore.Document, set docstore.Document) (*docstore.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &docstore.UpdateResult{}
	err := c.db.Update(func(txn *badger.Txn) error {
		var target docstore.Document
		if err := c.scan(txn, filter, func(doc docstore.Document) bool {
			target = doc
			return false
		}); err != nil {
			return err
		}
		if target == nil {
			return nil
		}

		result.MatchedCount = 1
		for field, value := range set {
			if old, present := target[field]; !present || !docstore.EqualValues(old, value) {
				result.ModifiedCount = 1
			}
			target[field] = value
		}

		encoded, err := encodeDocument(target)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		return txn.Set(documentKey(c.name, target["_id"]), encoded)
	})
	if err != nil {
		return nil, fmt.Errorf("update in %q failed: %w", c.name, err)
	}
	return result, nil
}

// DeleteOne removes the first matching document.
func (c *Collection) DeleteOne(ctx context.Context, filter docstore.Document) (int64, error) {
	return c.delete(ctx, filter, 1)
}

// DeleteMany removes every matching document.
func (c *Collection) DeleteMany(ctx context.Context, filter docstore.Document) (int64, error) {
	return c.delete(ctx, filter, -1)
}

func (c *Collection) delete(ctx context.Context, filter docstore.Document, limit int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var deleted int64
	err := c.db.Update(func(txn *badger.Txn) error {
		var keys [][]byte
		if err := c.scan(txn, filter, func(doc docstore.Document) bool {
			keys = append(keys, documentKey(c.name, doc["_id"]))
			return limit < 0 || int64(len(keys)) < limit
		}); err != nil {
			return err
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete in %q failed: %w", c.name, err)
	}
	return deleted, nil
}

// ListIndexes returns the recorded index definitions, including the
// implicit _id index when the collection exists.
func (c *Collection) ListIndexes(ctx context.Context) ([]docstore.IndexModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var models []docstore.IndexModel
	err := c.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(collectionKey(c.name)); err == badger.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}
		models = append(models, docstore.IndexModel{
			Name: "_id_",
			Keys: []docstore.IndexKey{{Field: "_id", Order: int32(1)}},
		})

		opts := badger.DefaultIteratorOptions
		opts.Prefix = indexPrefix(c.name)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				model, err := decodeIndexModel(val)
				if err != nil {
					return err
				}
				models = append(models, model)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list indexes on %q failed: %w", c.name, err)
	}
	return models, nil
}

// CreateIndex records the index definition. BadgerDB has no query planner to
// feed, so the definition is bookkeeping that makes provisioning observable
// and idempotent; scans stay scans.
func (c *Collection) CreateIndex(ctx context.Context, model docstore.IndexModel) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if model.Name == "" {
		parts := make([]string, 0, len(model.Keys)*2)
		for _, key := range model.Keys {
			order := "1"
			if !docstore.IsAscending(key.Order) {
				order = "-1"
			}
			parts = append(parts, key.Field, order)
		}
		model.Name = strings.Join(parts, "_")
	}

	encoded, err := encodeIndexModel(model)
	if err != nil {
		return "", fmt.Errorf("failed to encode index model: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		key := indexKey(c.name, model.Name)
		if _, err := txn.Get(key); err == nil {
			// Duplicate create for the same name is a no-op.
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := c.ensureMarker(txn); err != nil {
			return err
		}
		return txn.Set(key, encoded)
	})
	if err != nil {
		return "", fmt.Errorf("create index on %q failed: %w", c.name, err)
	}
	return model.Name, nil
}

// Drop removes the collection marker, every document, and every index.
// Dropping an absent collection is a no-op.
func (c *Collection) Drop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		for _, prefix := range [][]byte{documentPrefix(c.name), indexPrefix(c.name)} {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			opts.Prefix = prefix
			it := txn.NewIterator(opts)

			var keys [][]byte
			for it.Rewind(); it.Valid(); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			it.Close()

			for _, key := range keys {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
		}
		return txn.Delete(collectionKey(c.name))
	})
	if err != nil {
		return fmt.Errorf("drop of %q failed: %w", c.name, err)
	}
	return nil
}

// scan iterates the collection's documents in key order, invoking visit for
// each match until visit returns false.
func (c *Collection) scan(txn *badger.Txn, filter docstore.Document, visit func(docstore.Document) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = documentPrefix(c.name)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		var doc docstore.Document
		err := it.Item().Value(func(val []byte) error {
			decoded, err := decodeDocument(val)
			doc = decoded
			return err
		})
		if err != nil {
			return err
		}
		if !docstore.Match(doc, filter) {
			continue
		}
		if !visit(doc) {
			return nil
		}
	}
	return nil
}

func (c *Collection) ensureMarker(txn *badger.Txn) error {
	key := collectionKey(c.name)
	if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
		return txn.Set(key, nil)
	} else if err != nil {
		return err
	}
	return nil
}

// pointLookup reports whether the filter is exactly {"_id": id}.
func pointLookup(filter docstore.Document) (any, bool) {
	if len(filter) != 1 {
		return nil, false
	}
	id, present := filter["_id"]
	return id, present
}
