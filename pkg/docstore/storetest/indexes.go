package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gridstore/pkg/docstore"
)

func (s *Suite) runIndexTests(t *testing.T) {
	t.Run("CreateAndList", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)
		ctx := testContext()

		name, err := coll.CreateIndex(ctx, docstore.IndexModel{
			Name: "files_index",
			Keys: []docstore.IndexKey{
				{Field: "filename", Order: int32(1)},
				{Field: "uploadDate", Order: int32(1)},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "files_index", name)

		indexes, err := coll.ListIndexes(ctx)
		require.NoError(t, err)

		var found *docstore.IndexModel
		for i := range indexes {
			if indexes[i].Name == "files_index" {
				found = &indexes[i]
				break
			}
		}
		require.NotNil(t, found)
		require.Len(t, found.Keys, 2)
		assert.Equal(t, "filename", found.Keys[0].Field)
		assert.True(t, docstore.IsAscending(found.Keys[0].Order))
		assert.Equal(t, "uploadDate", found.Keys[1].Field)
		assert.True(t, docstore.IsAscending(found.Keys[1].Order))
	})

	t.Run("KeyOrderPreserved", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("chunks", nil)
		ctx := testContext()

		_, err := coll.CreateIndex(ctx, docstore.IndexModel{
			Name: "chunks_index",
			Keys: []docstore.IndexKey{
				{Field: "files_id", Order: int32(1)},
				{Field: "n", Order: int32(1)},
			},
		})
		require.NoError(t, err)

		indexes, err := coll.ListIndexes(ctx)
		require.NoError(t, err)

		for _, model := range indexes {
			if model.Name != "chunks_index" {
				continue
			}
			require.Len(t, model.Keys, 2)
			assert.Equal(t, "files_id", model.Keys[0].Field)
			assert.Equal(t, "n", model.Keys[1].Field)
			return
		}
		t.Fatal("chunks_index not reported by ListIndexes")
	})

	t.Run("DefaultName", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)

		name, err := coll.CreateIndex(testContext(), docstore.IndexModel{
			Keys: []docstore.IndexKey{{Field: "filename", Order: int32(1)}},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, name)
	})

	t.Run("DuplicateCreateIsIdempotent", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)
		ctx := testContext()

		model := docstore.IndexModel{
			Name: "files_index",
			Keys: []docstore.IndexKey{{Field: "filename", Order: int32(1)}},
		}

		_, err := coll.CreateIndex(ctx, model)
		require.NoError(t, err)
		_, err = coll.CreateIndex(ctx, model)
		require.NoError(t, err)

		indexes, err := coll.ListIndexes(ctx)
		require.NoError(t, err)

		count := 0
		for _, m := range indexes {
			if m.Name == "files_index" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}
