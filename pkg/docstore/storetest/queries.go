package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gridstore/pkg/docstore"
)

// seedFiles inserts a small fixed corpus used by the query tests.
func seedFiles(t *testing.T, coll docstore.Collection) {
	t.Helper()
	ctx := testContext()

	rows := []docstore.Document{
		{"name": "a.txt", "n": int32(0), "size": int64(10)},
		{"name": "b.txt", "n": int32(1), "size": int64(30)},
		{"name": "a.txt", "n": int32(2), "size": int64(20)},
		{"name": "c.txt", "n": int32(3), "size": int64(5)},
	}
	for _, row := range rows {
		_, err := coll.InsertOne(ctx, row)
		require.NoError(t, err)
	}
}

// collectField drains the cursor and returns the named int32 field of every
// document, in cursor order.
func collectField(t *testing.T, cursor docstore.Cursor, field string) []int32 {
	t.Helper()
	ctx := testContext()
	defer cursor.Close(ctx)

	var out []int32
	for cursor.Next(ctx) {
		v, ok := docstore.Int32Field(cursor.Current(), field)
		require.True(t, ok)
		out = append(out, v)
	}
	require.NoError(t, cursor.Err())

	return out
}

func (s *Suite) runQueryTests(t *testing.T) {
	t.Run("FilterEquality", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)
		seedFiles(t, coll)

		cursor, err := coll.Find(testContext(), docstore.Document{"name": "a.txt"}, &docstore.FindOptions{
			Sort: []docstore.SortKey{{Field: "n", Order: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, []int32{0, 2}, collectField(t, cursor, "n"))
	})

	t.Run("FilterConjunction", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)
		seedFiles(t, coll)

		cursor, err := coll.Find(testContext(), docstore.Document{"name": "a.txt", "size": int64(20)}, nil)
		require.NoError(t, err)
		assert.Equal(t, []int32{2}, collectField(t, cursor, "n"))
	})

	t.Run("FilterNumericWidths", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)
		seedFiles(t, coll)

		// A stored int64 matches an int filter of equal value.
		cursor, err := coll.Find(testContext(), docstore.Document{"size": int32(30)}, nil)
		require.NoError(t, err)
		assert.Equal(t, []int32{1}, collectField(t, cursor, "n"))
	})

	t.Run("EmptyFilterMatchesAll", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)
		seedFiles(t, coll)

		cursor, err := coll.Find(testContext(), nil, &docstore.FindOptions{
			Sort: []docstore.SortKey{{Field: "n", Order: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, []int32{0, 1, 2, 3}, collectField(t, cursor, "n"))
	})

	t.Run("SortDescending", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)
		seedFiles(t, coll)

		cursor, err := coll.Find(testContext(), nil, &docstore.FindOptions{
			Sort: []docstore.SortKey{{Field: "size", Order: -1}},
		})
		require.NoError(t, err)
		assert.Equal(t, []int32{1, 2, 0, 3}, collectField(t, cursor, "n"))
	})

	t.Run("SortCompound", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)
		seedFiles(t, coll)

		cursor, err := coll.Find(testContext(), nil, &docstore.FindOptions{
			Sort: []docstore.SortKey{
				{Field: "name", Order: 1},
				{Field: "size", Order: -1},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []int32{2, 0, 1, 3}, collectField(t, cursor, "n"))
	})

	t.Run("SkipAndLimit", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)
		seedFiles(t, coll)

		limit := int64(2)
		cursor, err := coll.Find(testContext(), nil, &docstore.FindOptions{
			Sort:  []docstore.SortKey{{Field: "n", Order: 1}},
			Skip:  1,
			Limit: &limit,
		})
		require.NoError(t, err)
		assert.Equal(t, []int32{1, 2}, collectField(t, cursor, "n"))
	})

	t.Run("SkipPastEnd", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)
		seedFiles(t, coll)

		cursor, err := coll.Find(testContext(), nil, &docstore.FindOptions{Skip: 100})
		require.NoError(t, err)
		assert.Empty(t, collectField(t, cursor, "n"))
	})

	t.Run("CursorOnEmptyCollection", func(t *testing.T) {
		db := s.NewDatabase(t)
		coll := db.Collection("files", nil)

		ctx := testContext()
		cursor, err := coll.Find(ctx, nil, nil)
		require.NoError(t, err)
		defer cursor.Close(ctx)

		assert.False(t, cursor.Next(ctx))
		assert.NoError(t, cursor.Err())
	})
}
