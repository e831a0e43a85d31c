package config

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/gridstore/pkg/bucket"
	"github.com/marmos91/gridstore/pkg/docstore"
	"github.com/marmos91/gridstore/pkg/docstore/badgerstore"
	"github.com/marmos91/gridstore/pkg/docstore/memory"
	"github.com/marmos91/gridstore/pkg/docstore/mongostore"
)

// CreateDatabase creates a document store backend based on configuration.
//
// This factory uses the Type field to determine which backend to create,
// then decodes the type-specific configuration from the corresponding map
// and passes it to the backend's constructor.
//
// Supported types:
//   - "memory": in-process store, contents are lost on exit
//   - "badger": embedded BadgerDB store (pkg/docstore/badgerstore)
//   - "mongo": MongoDB deployment (pkg/docstore/mongostore)
func CreateDatabase(ctx context.Context, cfg *StoreConfig) (docstore.Database, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryDatabase(ctx, cfg.Memory)
	case "badger":
		return createBadgerDatabase(ctx, cfg.Badger)
	case "mongo":
		return createMongoDatabase(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("unknown store type: %q", cfg.Type)
	}
}

// createMemoryDatabase creates the in-process backend.
func createMemoryDatabase(ctx context.Context, options map[string]any) (docstore.Database, error) {
	type MemoryStoreConfig struct {
		Name string `mapstructure:"name"`
	}

	var storeCfg MemoryStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode memory store config: %w", err)
	}
	if storeCfg.Name == "" {
		storeCfg.Name = "gridstore"
	}

	db, err := memory.New(ctx, storeCfg.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory store: %w", err)
	}
	return db, nil
}

// createBadgerDatabase creates the embedded BadgerDB backend.
func createBadgerDatabase(ctx context.Context, options map[string]any) (docstore.Database, error) {
	var storeCfg badgerstore.Config
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger store config: %w", err)
	}

	if storeCfg.Name == "" {
		storeCfg.Name = "gridstore"
	}
	if storeCfg.Path == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger store: path is required unless in_memory is true")
	}

	db, err := badgerstore.Open(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return db, nil
}

// createMongoDatabase connects to a MongoDB deployment.
func createMongoDatabase(ctx context.Context, options map[string]any) (docstore.Database, error) {
	var storeCfg mongostore.Config
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode mongo store config: %w", err)
	}

	if storeCfg.URI == "" {
		storeCfg.URI = "mongodb://localhost:27017"
	}
	if storeCfg.Database == "" {
		return nil, fmt.Errorf("mongo store: database is required")
	}

	db, err := mongostore.Connect(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	return db, nil
}

// CreateBucket builds a bucket handle over db from the bucket section.
func CreateBucket(db docstore.Database, cfg *BucketConfig) *bucket.Bucket {
	return bucket.New(db, bucket.Options{
		BucketName:     cfg.Name,
		ChunkSizeBytes: cfg.ChunkSizeBytes,
		DisableMD5:     cfg.DisableMD5,
		WriteConcern:   docstore.WriteConcern(cfg.WriteConcern),
		ReadConcern:    docstore.ReadConcern(cfg.ReadConcern),
		ReadPreference: docstore.ReadPreference(cfg.ReadPreference),
	})
}

// ParseFileID converts a file id given on the command line into the opaque
// form the selected backend uses. Backends with string ids pass the value
// through; the mongo backend expects a hex ObjectID.
func ParseFileID(storeType, s string) (any, error) {
	switch storeType {
	case "mongo":
		id, err := mongostore.ParseID(s)
		if err != nil {
			return nil, fmt.Errorf("invalid file id %q: %w", s, err)
		}
		return id, nil
	default:
		return s, nil
	}
}
