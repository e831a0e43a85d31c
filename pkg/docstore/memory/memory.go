// Package memory implements docstore on plain in-process data structures.
//
// The memory backend keeps every collection as an insertion-ordered slice of
// documents guarded by a read-write mutex. It exists for tests and for
// ephemeral single-process deployments; nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/marmos91/gridstore/pkg/docstore"
)

// Database implements docstore.Database in memory.
//
// Thread Safety:
// All operations are protected by a database-level read-write mutex plus a
// per-collection mutex. Coarse-grained, but correct, and collections in this
// backend are small by construction.
type Database struct {
	name string

	mu          sync.RWMutex
	collections map[string]*collectionData
}

// collectionData is the materialized state of one collection.
type collectionData struct {
	mu      sync.RWMutex
	docs    []docstore.Document
	indexes []docstore.IndexModel
}

// New creates an empty in-memory database with the given name.
func New(ctx context.Context, name string) (*Database, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Database{
		name:        name,
		collections: make(map[string]*collectionData),
	}, nil
}

// Name returns the database name.
func (d *Database) Name() string {
	return d.name
}

// Collection returns a handle for the named collection. Consistency options
// are accepted for interface compatibility and ignored; the backend is
// single-node and always reads its own writes.
func (d *Database) Collection(name string, opts *docstore.CollectionOptions) docstore.Collection {
	return &Collection{db: d, name: name}
}

// ListCollectionNames returns materialized collection names matching the
// filter ({"name": "x"} or empty), sorted for determinism.
func (d *Database) ListCollectionNames(ctx context.Context, filter docstore.Document) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var names []string
	for name := range d.collections {
		if docstore.Match(docstore.Document{"name": name}, filter) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// CreateCollection materializes an empty collection.
func (d *Database) CreateCollection(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.collections[name]; exists {
		return fmt.Errorf("collection %q: %w", name, docstore.ErrCollectionExists)
	}
	d.collections[name] = newCollectionData()
	return nil
}

// materialize returns the collection's data, creating it on first use the
// way document stores do on first insert.
func (d *Database) materialize(name string) *collectionData {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, exists := d.collections[name]
	if !exists {
		data = newCollectionData()
		d.collections[name] = data
	}
	return data
}

// lookup returns the collection's data without materializing it.
func (d *Database) lookup(name string) *collectionData {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.collections[name]
}

func (d *Database) remove(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.collections, name)
}

func newCollectionData() *collectionData {
	return &collectionData{
		// Document stores index _id implicitly; report it like they do.
		indexes: []docstore.IndexModel{
			{Name: "_id_", Keys: []docstore.IndexKey{{Field: "_id", Order: int32(1)}}},
		},
	}
}

// ============================================================================
// Collection
// ============================================================================

// Collection implements docstore.Collection for the memory backend.
type Collection struct {
	db   *Database
	name string
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// InsertOne appends a copy of the document, generating a UUID identifier
// when the caller did not supply one.
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

	data := c.db.materialize(c.name)
	data.mu.Lock()
	defer data.mu.Unlock()

	data.docs = append(data.docs, stored)
	return id, nil
}

// FindOne returns a copy of the first matching document in insertion order.
func (c *Collection) FindOne(ctx context.Context, filter docstore.Document, opts *docstore.FindOneOptions) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := c.db.lookup(c.name)
	if data == nil {
		return nil, docstore.ErrNoDocuments
	}

	data.mu.RLock()
	defer data.mu.RUnlock()

	for _, doc := range data.docs {
		if docstore.Match(doc, filter) {
			return applyFindOneOptions(docstore.CloneDocument(doc), opts), nil
		}
	}
	return nil, docstore.ErrNoDocuments
}

// Find snapshots the matching documents and returns a cursor over the
// snapshot. Sort, skip, and limit apply in that order.
func (c *Collection) Find(ctx context.Context, filter docstore.Document, opts *docstore.FindOptions) (docstore.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []docstore.Document
	if data := c.db.lookup(c.name); data != nil {
		data.mu.RLock()
		for _, doc := range data.docs {
			if docstore.Match(doc, filter) {
				results = append(results, docstore.CloneDocument(doc))
			}
		}
		data.mu.RUnlock()
	}

	results = docstore.ApplyFindOptions(results, opts)
	return docstore.NewSliceCursor(results), nil
}

// UpdateOne applies the set document to the first match.
func (c *Collection) UpdateOne(ctx context.Context, filter docstore.Document, set docstore.Document) (*docstore.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := c.db.lookup(c.name)
	if data == nil {
		return &docstore.UpdateResult{}, nil
	}

	data.mu.Lock()
	defer data.mu.Unlock()

	for _, doc := range data.docs {
		if !docstore.Match(doc, filter) {
			continue
		}
		modified := int64(0)
		for field, value := range set {
			if old, present := doc[field]; !present || !docstore.EqualValues(old, value) {
				modified = 1
			}
			doc[field] = cloneFieldValue(value)
		}
		return &docstore.UpdateResult{MatchedCount: 1, ModifiedCount: modified}, nil
	}
	return &docstore.UpdateResult{}, nil
}

// DeleteOne removes the first match.
func (c *Collection) DeleteOne(ctx context.Context, filter docstore.Document) (int64, error) {
	return c.delete(ctx, filter, true)
}

// DeleteMany removes every match.
func (c *Collection) DeleteMany(ctx context.Context, filter docstore.Document) (int64, error) {
	return c.delete(ctx, filter, false)
}

func (c *Collection) delete(ctx context.Context, filter docstore.Document, single bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data := c.db.lookup(c.name)
	if data == nil {
		return 0, nil
	}

	data.mu.Lock()
	defer data.mu.Unlock()

	var deleted int64
	kept := data.docs[:0]
	for i, doc := range data.docs {
		if (single && deleted > 0) || !docstore.Match(doc, filter) {
			kept = append(kept, doc)
			continue
		}
		deleted++
		if single && deleted == 1 {
			kept = append(kept, data.docs[i+1:]...)
			break
		}
	}
	data.docs = kept
	return deleted, nil
}

// ListIndexes returns the collection's index definitions.
func (c *Collection) ListIndexes(ctx context.Context) ([]docstore.IndexModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := c.db.lookup(c.name)
	if data == nil {
		return nil, nil
	}

	data.mu.RLock()
	defer data.mu.RUnlock()

	out := make([]docstore.IndexModel, len(data.indexes))
	copy(out, data.indexes)
	return out, nil
}

// CreateIndex records the index definition. A duplicate create for an
// existing name is a no-op so racing provisioners don't fail.
func (c *Collection) CreateIndex(ctx context.Context, model docstore.IndexModel) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if model.Name == "" {
		model.Name = defaultIndexName(model.Keys)
	}

	data := c.db.materialize(c.name)
	data.mu.Lock()
	defer data.mu.Unlock()

	for _, existing := range data.indexes {
		if existing.Name == model.Name {
			return model.Name, nil
		}
	}
	data.indexes = append(data.indexes, model)
	return model.Name, nil
}

// Drop discards the collection. Dropping an absent collection is a no-op.
func (c *Collection) Drop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.db.remove(c.name)
	return nil
}

func defaultIndexName(keys []docstore.IndexKey) string {
	parts := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		order := "1"
		if !docstore.IsAscending(key.Order) {
			order = "-1"
		}
		parts = append(parts, key.Field, order)
	}
	return strings.Join(parts, "_")
}

func applyFindOneOptions(doc docstore.Document, opts *docstore.FindOneOptions) docstore.Document {
	if opts == nil {
		return doc
	}
	return docstore.ApplyProjection(doc, opts.Projection)
}

func cloneFieldValue(v any) any {
	return docstore.CloneDocument(docstore.Document{"v": v})["v"]
}
