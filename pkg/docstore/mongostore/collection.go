package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/gridstore/pkg/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection implements docstore.Collection over mongo.Collection.
type Collection struct {
	coll *mongo.Collection
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.coll.Name()
}

// InsertOne stores the document and returns the driver-generated ObjectID
// (or the caller-supplied _id).
func (c *Collection) InsertOne(ctx context.Context, doc docstore.Document) (any, error) {
	res, err := c.coll.InsertOne(ctx, toBSON(doc))
	if err != nil {
		return nil, fmt.Errorf("insert into %q failed: %w", c.coll.Name(), err)
	}
	return res.InsertedID, nil
}

// FindOne returns the first matching document.
func (c *Collection) FindOne(ctx context.Context, filter docstore.Document, opts *docstore.FindOneOptions) (docstore.Document, error) {
	findOpts := options.FindOne()
	if opts != nil && opts.Projection != nil {
		findOpts.SetProjection(toBSON(opts.Projection))
	}

	var decoded bson.M
	err := c.coll.FindOne(ctx, toBSON(filter), findOpts).Decode(&decoded)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, docstore.ErrNoDocuments
	}
	if err != nil {
		return nil, fmt.Errorf("find in %q failed: %w", c.coll.Name(), err)
	}
	return fromBSON(decoded), nil
}

// Find runs the query server-side and wraps the driver cursor, so element
// production suspends on the driver's batch fetches.
func (c *Collection) Find(ctx context.Context, filter docstore.Document, opts *docstore.FindOptions) (docstore.Cursor, error) {
	findOpts := options.Find()
	if opts != nil {
		if opts.AllowDiskUse != nil {
			findOpts.SetAllowDiskUse(*opts.AllowDiskUse)
		}
		if opts.BatchSize != nil {
			findOpts.SetBatchSize(*opts.BatchSize)
		}
		if opts.Limit != nil {
			findOpts.SetLimit(*opts.Limit)
		}
		if opts.MaxTime != nil {
			findOpts.SetMaxTime(*opts.MaxTime)
		}
		if opts.NoCursorTimeout != nil {
			findOpts.SetNoCursorTimeout(*opts.NoCursorTimeout)
		}
		if opts.Skip != 0 {
			findOpts.SetSkip(opts.Skip)
		}
		if len(opts.Sort) > 0 {
			findOpts.SetSort(toSortDoc(opts.Sort))
		}
	}

	cur, err := c.coll.Find(ctx, toBSON(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find in %q failed: %w", c.coll.Name(), err)
	}
	return &driverCursor{cur: cur}, nil
}

// UpdateOne applies a $set of the given fields to the first match.
func (c *Collection) UpdateOne(ctx context.Context, filter docstore.Document, set docstore.Document) (*docstore.UpdateResult, error) {
	res, err := c.coll.UpdateOne(ctx, toBSON(filter), bson.M{"$set": toBSON(set)})
	if err != nil {
		return nil, fmt.Errorf("update in %q failed: %w", c.coll.Name(), err)
	}
	return &docstore.UpdateResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}, nil
}

// DeleteOne removes the first matching document.
func (c *Collection) DeleteOne(ctx context.Context, filter docstore.Document) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, toBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("delete in %q failed: %w", c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

// DeleteMany removes every matching document.
func (c *Collection) DeleteMany(ctx context.Context, filter docstore.Document) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, toBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("delete in %q failed: %w", c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

// ListIndexes returns the collection's index definitions. Key order inside
// each index is preserved by decoding into an ordered document.
func (c *Collection) ListIndexes(ctx context.Context) ([]docstore.IndexModel, error) {
	cur, err := c.coll.Indexes().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes on %q failed: %w", c.coll.Name(), err)
	}
	defer cur.Close(ctx)

	var models []docstore.IndexModel
	for cur.Next(ctx) {
		var spec struct {
			Name string `bson:"name"`
			Key  bson.D `bson:"key"`
		}
		if err := cur.Decode(&spec); err != nil {
			return nil, fmt.Errorf("failed to decode index spec: %w", err)
		}

		model := docstore.IndexModel{Name: spec.Name}
		for _, e := range spec.Key {
			model.Keys = append(model.Keys, docstore.IndexKey{Field: e.Key, Order: e.Value})
		}
		models = append(models, model)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list indexes on %q failed: %w", c.coll.Name(), err)
	}
	return models, nil
}

// CreateIndex creates a secondary index. MongoDB treats a duplicate create
// for an identical definition as a no-op server-side.
func (c *Collection) CreateIndex(ctx context.Context, model docstore.IndexModel) (string, error) {
	keys := make(bson.D, 0, len(model.Keys))
	for _, key := range model.Keys {
		keys = append(keys, bson.E{Key: key.Field, Value: key.Order})
	}

	indexOpts := options.Index()
	if model.Name != "" {
		indexOpts.SetName(model.Name)
	}

	name, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: indexOpts})
	if err != nil {
		return "", fmt.Errorf("create index on %q failed: %w", c.coll.Name(), err)
	}
	return name, nil
}

// Drop drops the collection. The server treats dropping an absent
// collection as a no-op.
func (c *Collection) Drop(ctx context.Context) error {
	if err := c.coll.Drop(ctx); err != nil {
		return fmt.Errorf("drop of %q failed: %w", c.coll.Name(), err)
	}
	return nil
}

// driverCursor adapts mongo.Cursor to docstore.Cursor.
type driverCursor struct {
	cur     *mongo.Cursor
	current docstore.Document
	err     error
}

func (c *driverCursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if !c.cur.Next(ctx) {
		return false
	}
	var decoded bson.M
	if err := c.cur.Decode(&decoded); err != nil {
		c.err = fmt.Errorf("failed to decode document: %w", err)
		return false
	}
	c.current = fromBSON(decoded)
	return true
}

func (c *driverCursor) Current() docstore.Document {
	return c.current
}

func (c *driverCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.cur.Err()
}

func (c *driverCursor) Close(ctx context.Context) error {
	return c.cur.Close(ctx)
}
