package badgerstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gridstore/pkg/docstore"
	"github.com/marmos91/gridstore/pkg/docstore/badgerstore"
	"github.com/marmos91/gridstore/pkg/docstore/storetest"
)

func newBadgerDatabase(t *testing.T) *badgerstore.Database {
	t.Helper()

	db, err := badgerstore.Open(context.Background(), badgerstore.Config{
		Name:     "conformance",
		InMemory: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	return db
}

func TestConformance(t *testing.T) {
	suite := &storetest.Suite{
		NewDatabase: func(t *testing.T) docstore.Database {
			return newBadgerDatabase(t)
		},
	}
	suite.Run(t)
}

func TestOnDiskPersistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := badgerstore.Open(ctx, badgerstore.Config{Name: "persist", Path: dir})
	require.NoError(t, err)

	id, err := db.Collection("files", nil).InsertOne(ctx, docstore.Document{
		"name": "report.pdf",
		"size": int64(42),
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = badgerstore.Open(ctx, badgerstore.Config{Name: "persist", Path: dir})
	require.NoError(t, err)
	defer db.Close()

	doc, err := db.Collection("files", nil).FindOne(ctx, docstore.Document{"_id": id}, nil)
	require.NoError(t, err)

	name, ok := docstore.StringField(doc, "name")
	require.True(t, ok)
	assert.Equal(t, "report.pdf", name)

	size, ok := docstore.Int64Field(doc, "size")
	require.True(t, ok)
	assert.Equal(t, int64(42), size)
}

func TestValueTypesSurviveReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := badgerstore.Open(ctx, badgerstore.Config{Name: "types", Path: dir})
	require.NoError(t, err)

	when := time.Date(2024, 6, 1, 12, 30, 0, 123456789, time.UTC)
	id, err := db.Collection("files", nil).InsertOne(ctx, docstore.Document{
		"chunk":   int32(4096),
		"length":  int64(1 << 40),
		"ratio":   0.5,
		"payload": []byte{0x00, 0x01, 0xfe, 0xff},
		"when":    when,
		"meta":    docstore.Document{"owner": "alice"},
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = badgerstore.Open(ctx, badgerstore.Config{Name: "types", Path: dir})
	require.NoError(t, err)
	defer db.Close()

	doc, err := db.Collection("files", nil).FindOne(ctx, docstore.Document{"_id": id}, nil)
	require.NoError(t, err)

	chunk, ok := docstore.Int32Field(doc, "chunk")
	require.True(t, ok)
	assert.Equal(t, int32(4096), chunk)

	length, ok := docstore.Int64Field(doc, "length")
	require.True(t, ok)
	assert.Equal(t, int64(1<<40), length)

	assert.Equal(t, 0.5, doc["ratio"])

	payload, ok := docstore.BinaryField(doc, "payload")
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0x01, 0xfe, 0xff}, payload)

	got, ok := docstore.TimeField(doc, "when")
	require.True(t, ok)
	assert.True(t, got.Equal(when))

	meta, ok := docstore.DocumentField(doc, "meta")
	require.True(t, ok)
	owner, ok := docstore.StringField(meta, "owner")
	require.True(t, ok)
	assert.Equal(t, "alice", owner)
}
