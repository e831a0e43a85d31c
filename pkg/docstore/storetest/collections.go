package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gridstore/pkg/docstore"
)

func (s *Suite) runCollectionTests(t *testing.T) {
	t.Run("ListAfterCreate", func(t *testing.T) {
		db := s.NewDatabase(t)
		ctx := testContext()

		require.NoError(t, db.CreateCollection(ctx, "fs.files"))
		require.NoError(t, db.CreateCollection(ctx, "fs.chunks"))

		names, err := db.ListCollectionNames(ctx, nil)
		require.NoError(t, err)
		assert.Contains(t, names, "fs.files")
		assert.Contains(t, names, "fs.chunks")
	})

	t.Run("ListWithNameFilter", func(t *testing.T) {
		db := s.NewDatabase(t)
		ctx := testContext()

		require.NoError(t, db.CreateCollection(ctx, "fs.files"))
		require.NoError(t, db.CreateCollection(ctx, "fs.chunks"))

		names, err := db.ListCollectionNames(ctx, docstore.Document{"name": "fs.files"})
		require.NoError(t, err)
		assert.Equal(t, []string{"fs.files"}, names)

		names, err = db.ListCollectionNames(ctx, docstore.Document{"name": "absent"})
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("InsertMaterializesCollection", func(t *testing.T) {
		db := s.NewDatabase(t)
		ctx := testContext()

		_, err := db.Collection("implicit", nil).InsertOne(ctx, docstore.Document{"x": int32(1)})
		require.NoError(t, err)

		names, err := db.ListCollectionNames(ctx, docstore.Document{"name": "implicit"})
		require.NoError(t, err)
		assert.Equal(t, []string{"implicit"}, names)
	})

	t.Run("CreateExistingFails", func(t *testing.T) {
		db := s.NewDatabase(t)
		ctx := testContext()

		require.NoError(t, db.CreateCollection(ctx, "dup"))
		assert.Error(t, db.CreateCollection(ctx, "dup"))
	})

	t.Run("Drop", func(t *testing.T) {
		db := s.NewDatabase(t)
		ctx := testContext()

		coll := db.Collection("files", nil)
		_, err := coll.InsertOne(ctx, docstore.Document{"name": "x"})
		require.NoError(t, err)

		require.NoError(t, coll.Drop(ctx))

		names, err := db.ListCollectionNames(ctx, docstore.Document{"name": "files"})
		require.NoError(t, err)
		assert.Empty(t, names)

		// Documents are gone even if the collection is recreated by a later
		// insert.
		_, err = coll.FindOne(ctx, docstore.Document{"name": "x"}, nil)
		assert.ErrorIs(t, err, docstore.ErrNoDocuments)
	})

	t.Run("DropAbsentIsNoop", func(t *testing.T) {
		db := s.NewDatabase(t)
		assert.NoError(t, db.Collection("never-created", nil).Drop(testContext()))
	})
}
