// Package badgerstore implements docstore on BadgerDB for persistence.
//
// This backend provides a durable single-node document store backed by
// BadgerDB, a fast embedded key-value store. It is suitable for deployments
// where stored files must survive process restarts without running a
// separate database server. Collections are flattened into prefixed keys
// (see keys.go) and documents are serialized with typed envelopes so binary
// chunk payloads and numeric fields round-trip exactly (see
// serialization.go).
//
// Consistency knobs (write concern, read concern, read preference) are
// accepted and ignored: BadgerDB is a single node with ACID transactions,
// so every read already observes every acknowledged write.
package badgerstore

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/docstore"
)

// Config contains configuration for opening a BadgerDB-backed database.
type Config struct {
	// Name is the logical database name reported by Database.Name.
	Name string `mapstructure:"name"`

	// Path is the directory where BadgerDB stores its files. Ignored when
	// InMemory is set.
	Path string `mapstructure:"path"`

	// InMemory keeps everything in RAM. Useful for tests that want the
	// badger code path without touching disk.
	InMemory bool `mapstructure:"in_memory"`
}

// Database implements docstore.Database on a BadgerDB instance.
//
// Thread Safety:
// BadgerDB transactions provide snapshot isolation; all exported operations
// are safe for concurrent use.
type Database struct {
	name string
	db   *badger.DB
}

// Open opens (creating if needed) a BadgerDB database at cfg.Path.
func Open(ctx context.Context, cfg Config) (*Database, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("badger store: path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	// Badger's default logger prints to stderr at INFO; route everything
	// through ours instead.
	opts = opts.WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "gridstore"
	}
	logger.Debug("Opened badger database %q at %q", name, cfg.Path)
	return &Database{name: name, db: db}, nil
}

// Close releases the underlying BadgerDB handle.
func (d *Database) Close() error {
	return d.db.Close()
}

// Name returns the database name.
func (d *Database) Name() string {
	return d.name
}

// Collection returns a handle for the named collection. Consistency options
// are accepted for interface compatibility; see the package comment.
func (d *Database) Collection(name string, opts *docstore.CollectionOptions) docstore.Collection {
	return &Collection{db: d.db, name: name}
}

// ListCollectionNames scans the collection markers.
func (d *Database) ListCollectionNames(ctx context.Context, filter docstore.Document) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var names []string
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixCollection)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			name := string(it.Item().Key()[len(prefixCollection):])
			if docstore.Match(docstore.Document{"name": name}, filter) {
				names = append(names, name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// CreateCollection writes the collection marker.
func (d *Database) CreateCollection(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return d.db.Update(func(txn *badger.Txn) error {
		key := collectionKey(name)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("collection %q: %w", name, docstore.ErrCollectionExists)
		} else if err != badger.ErrKeyNotFound {
			return fmt.Errorf("failed to check collection %q: %w", name, err)
		}
		return txn.Set(key, nil)
	})
}

// badgerLogger adapts badger's logging interface to internal/logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any)   { logger.Error(format, args...) }
func (badgerLogger) Warningf(format string, args ...any) { logger.Warn(format, args...) }
func (badgerLogger) Infof(format string, args ...any)    { logger.Debug(format, args...) }
func (badgerLogger) Debugf(format string, args ...any)   { logger.Debug(format, args...) }
