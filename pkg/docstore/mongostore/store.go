// Package mongostore implements docstore on a MongoDB deployment using the
// official Go driver. This is the backend the chunked-storage convention was
// designed for: filters, sorts, and cursor batching execute server-side, and
// the consistency knobs map directly onto MongoDB write concerns, read
// concerns, and read preferences.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/docstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config contains configuration for connecting to MongoDB.
type Config struct {
	// URI is the MongoDB connection string (mongodb://...).
	URI string `mapstructure:"uri"`

	// Database is the database name holding the bucket collections.
	Database string `mapstructure:"database"`

	// ConnectTimeout bounds the initial connect and ping. Zero uses 10s.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// Database implements docstore.Database over mongo.Database.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials the deployment, verifies it with a ping, and returns the
// database handle.
func Connect(ctx context.Context, cfg Config) (*Database, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo store: uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo store: database is required")
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Debug("Connected to mongodb database %q", cfg.Database)
	return &Database{client: client, db: client.Database(cfg.Database)}, nil
}

// Close disconnects the underlying client.
func (d *Database) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// DropDatabase removes the whole database server-side. Intended for test
// teardown.
func (d *Database) DropDatabase(ctx context.Context) error {
	return d.db.Drop(ctx)
}

// Name returns the database name.
func (d *Database) Name() string {
	return d.db.Name()
}

// Collection returns a handle with the requested consistency overrides
// applied; zero-valued options inherit the database settings.
func (d *Database) Collection(name string, opts *docstore.CollectionOptions) docstore.Collection {
	collOpts := options.Collection()
	if opts != nil {
		if wc := toWriteConcern(opts.WriteConcern); wc != nil {
			collOpts.SetWriteConcern(wc)
		}
		if rc := toReadConcern(opts.ReadConcern); rc != nil {
			collOpts.SetReadConcern(rc)
		}
		if rp := toReadPreference(opts.ReadPreference); rp != nil {
			collOpts.SetReadPreference(rp)
		}
	}
	return &Collection{coll: d.db.Collection(name, collOpts)}
}

// ListCollectionNames passes the filter through to the server.
func (d *Database) ListCollectionNames(ctx context.Context, filter docstore.Document) ([]string, error) {
	names, err := d.db.ListCollectionNames(ctx, toBSON(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// CreateCollection explicitly creates the collection.
func (d *Database) CreateCollection(ctx context.Context, name string) error {
	if err := d.db.CreateCollection(ctx, name); err != nil {
		return fmt.Errorf("failed to create collection %q: %w", name, err)
	}
	return nil
}

// ParseID converts the hex form of a MongoDB ObjectID back into the opaque
// identifier the store generates. Callers holding ids as strings (CLI
// arguments, URLs) use this before passing them to bucket operations.
func ParseID(s string) (any, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	return id, nil
}
