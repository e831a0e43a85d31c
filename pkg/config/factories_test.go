package config

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDatabaseMemory(t *testing.T) {
	cfg := &StoreConfig{Type: "memory"}

	db, err := CreateDatabase(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "gridstore", db.Name())
}

func TestCreateDatabaseBadgerInMemory(t *testing.T) {
	cfg := &StoreConfig{
		Type:   "badger",
		Badger: map[string]any{"in_memory": true},
	}

	db, err := CreateDatabase(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "gridstore", db.Name())
}

func TestCreateDatabaseBadgerRequiresPath(t *testing.T) {
	cfg := &StoreConfig{Type: "badger", Badger: map[string]any{}}

	_, err := CreateDatabase(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestCreateDatabaseUnknownType(t *testing.T) {
	_, err := CreateDatabase(context.Background(), &StoreConfig{Type: "postgres"})
	assert.Error(t, err)
}

func TestCreateDatabaseMongoRequiresDatabase(t *testing.T) {
	cfg := &StoreConfig{Type: "mongo", Mongo: map[string]any{}}

	_, err := CreateDatabase(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is required")
}

func TestCreateBucket(t *testing.T) {
	storeCfg := &StoreConfig{Type: "memory", Memory: map[string]any{}}
	db, err := CreateDatabase(context.Background(), storeCfg)
	require.NoError(t, err)

	b := CreateBucket(db, &BucketConfig{Name: "attachments", ChunkSizeBytes: 1024})
	assert.Equal(t, "attachments", b.Name())
	assert.Equal(t, int32(1024), b.ChunkSizeBytes())

	// Round trip through the configured bucket.
	ctx := context.Background()
	id, err := b.UploadFromStream(ctx, "test.txt", strings.NewReader("test data"), nil)
	require.NoError(t, err)

	_, err = b.OpenDownloadStream(ctx, id)
	assert.NoError(t, err)
}

func TestParseFileID(t *testing.T) {
	t.Run("string backends pass through", func(t *testing.T) {
		id, err := ParseFileID("memory", "some-uuid")
		require.NoError(t, err)
		assert.Equal(t, "some-uuid", id)

		id, err = ParseFileID("badger", "some-uuid")
		require.NoError(t, err)
		assert.Equal(t, "some-uuid", id)
	})

	t.Run("mongo parses object ids", func(t *testing.T) {
		id, err := ParseFileID("mongo", "5f2a9c8b1c4ae8d2f0a1b2c3")
		require.NoError(t, err)
		assert.NotEqual(t, "5f2a9c8b1c4ae8d2f0a1b2c3", id)

		_, err = ParseFileID("mongo", "not-hex")
		assert.Error(t, err)
	})
}
