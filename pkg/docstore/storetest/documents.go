package storetest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gridstore/pkg/docstore"
)

func (s *Suite) runDocumentTests(t *testing.T) {
	t.Run("InsertAndFindByID", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("docs", nil)
		ctx := testContext()

		uploaded := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
		id, err := coll.InsertOne(ctx, docstore.Document{
			"name":    "report.pdf",
			"size":    int64(1 << 20),
			"chunk":   int32(4096),
			"payload": []byte{0x01, 0x02, 0xff},
			"when":    uploaded,
			"meta":    docstore.Document{"owner": "alice"},
		})
		require.NoError(t, err)
		require.NotNil(t, id)

		doc, err := coll.FindOne(ctx, docstore.Document{"_id": id}, nil)
		require.NoError(t, err)

		name, ok := docstore.StringField(doc, "name")
		require.True(t, ok)
		assert.Equal(t, "report.pdf", name)

		size, ok := docstore.Int64Field(doc, "size")
		require.True(t, ok)
		assert.Equal(t, int64(1<<20), size)

		chunk, ok := docstore.Int32Field(doc, "chunk")
		require.True(t, ok)
		assert.Equal(t, int32(4096), chunk)

		payload, ok := docstore.BinaryField(doc, "payload")
		require.True(t, ok)
		assert.Equal(t, []byte{0x01, 0x02, 0xff}, payload)

		when, ok := docstore.TimeField(doc, "when")
		require.True(t, ok)
		assert.True(t, when.Equal(uploaded))

		meta, ok := docstore.DocumentField(doc, "meta")
		require.True(t, ok)
		owner, ok := docstore.StringField(meta, "owner")
		require.True(t, ok)
		assert.Equal(t, "alice", owner)
	})

	t.Run("GeneratedIDsAreUnique", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("docs", nil)
		ctx := testContext()

		seen := make(map[any]bool)
		for i := 0; i < 20; i++ {
			id, err := coll.InsertOne(ctx, docstore.Document{"n": int32(i)})
			require.NoError(t, err)
			require.False(t, seen[id], "duplicate generated id %v", id)
			seen[id] = true
		}
	})

	t.Run("ExplicitID", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("docs", nil)
		ctx := testContext()

		id, err := coll.InsertOne(ctx, docstore.Document{"_id": "custom-id", "name": "x"})
		require.NoError(t, err)
		assert.Equal(t, "custom-id", id)

		doc, err := coll.FindOne(ctx, docstore.Document{"_id": "custom-id"}, nil)
		require.NoError(t, err)
		name, ok := docstore.StringField(doc, "name")
		require.True(t, ok)
		assert.Equal(t, "x", name)
	})

	t.Run("FindOneNoMatch", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("docs", nil)
		ctx := testContext()

		_, err := coll.FindOne(ctx, docstore.Document{"_id": "absent"}, nil)
		assert.ErrorIs(t, err, docstore.ErrNoDocuments)

		// An empty filter on an empty collection finds nothing either.
		_, err = coll.FindOne(ctx, docstore.Document{}, nil)
		assert.ErrorIs(t, err, docstore.ErrNoDocuments)
	})

	t.Run("FindOneProjection", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("docs", nil)
		ctx := testContext()

		id, err := coll.InsertOne(ctx, docstore.Document{"name": "x", "payload": []byte("big")})
		require.NoError(t, err)

		doc, err := coll.FindOne(ctx, docstore.Document{"_id": id}, &docstore.FindOneOptions{
			Projection: docstore.Document{"_id": int32(1)},
		})
		require.NoError(t, err)

		_, present := doc["payload"]
		assert.False(t, present)
		assert.Contains(t, doc, "_id")
	})

	t.Run("UpdateOne", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("docs", nil)
		ctx := testContext()

		id, err := coll.InsertOne(ctx, docstore.Document{"name": "old", "size": int64(1)})
		require.NoError(t, err)

		res, err := coll.UpdateOne(ctx, docstore.Document{"_id": id}, docstore.Document{"name": "new"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.MatchedCount)

		doc, err := coll.FindOne(ctx, docstore.Document{"_id": id}, nil)
		require.NoError(t, err)

		name, ok := docstore.StringField(doc, "name")
		require.True(t, ok)
		assert.Equal(t, "new", name)

		// Untouched fields survive.
		size, ok := docstore.Int64Field(doc, "size")
		require.True(t, ok)
		assert.Equal(t, int64(1), size)
	})

	t.Run("UpdateOneNoMatch", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("docs", nil)
		ctx := testContext()

		res, err := coll.UpdateOne(ctx, docstore.Document{"_id": "absent"}, docstore.Document{"name": "new"})
		require.NoError(t, err)
		assert.Zero(t, res.MatchedCount)
	})
}
