package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gridstore/pkg/docstore"
)

func (s *Suite) runDeleteTests(t *testing.T) {
	t.Run("DeleteOne", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)
		ctx := testContext()

		id, err := coll.InsertOne(ctx, docstore.Document{"name": "x"})
		require.NoError(t, err)

		deleted, err := coll.DeleteOne(ctx, docstore.Document{"_id": id})
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		_, err = coll.FindOne(ctx, docstore.Document{"_id": id}, nil)
		assert.ErrorIs(t, err, docstore.ErrNoDocuments)
	})

	t.Run("DeleteOneNoMatch", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)

		deleted, err := coll.DeleteOne(testContext(), docstore.Document{"_id": "absent"})
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})

	t.Run("DeleteOneRemovesSingleDocument", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)
		ctx := testContext()

		for i := 0; i < 3; i++ {
			_, err := coll.InsertOne(ctx, docstore.Document{"name": "dup"})
			require.NoError(t, err)
		}

		deleted, err := coll.DeleteOne(ctx, docstore.Document{"name": "dup"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		cursor, err := coll.Find(ctx, docstore.Document{"name": "dup"}, nil)
		require.NoError(t, err)
		defer cursor.Close(ctx)

		remaining := 0
		for cursor.Next(ctx) {
			remaining++
		}
		require.NoError(t, cursor.Err())
		assert.Equal(t, 2, remaining)
	})

	t.Run("DeleteMany", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)
		ctx := testContext()

		for i := 0; i < 3; i++ {
			_, err := coll.InsertOne(ctx, docstore.Document{"owner": "alice", "n": int32(i)})
			require.NoError(t, err)
		}
		_, err := coll.InsertOne(ctx, docstore.Document{"owner": "bob"})
		require.NoError(t, err)

		deleted, err := coll.DeleteMany(ctx, docstore.Document{"owner": "alice"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)

		_, err = coll.FindOne(ctx, docstore.Document{"owner": "bob"}, nil)
		assert.NoError(t, err)
	})

	t.Run("DeleteManyNoMatch", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)

		deleted, err := coll.DeleteMany(testContext(), docstore.Document{"owner": "nobody"})
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})
}
