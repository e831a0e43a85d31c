package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gridstore/pkg/docstore"
	"github.com/marmos91/gridstore/pkg/docstore/memory"
	"github.com/marmos91/gridstore/pkg/docstore/storetest"
)

func TestConformance(t *testing.T) {
	suite := &storetest.Suite{
		NewDatabase: func(t *testing.T) docstore.Database {
			db, err := memory.New(context.Background(), "conformance")
			require.NoError(t, err)
			return db
		},
	}
	suite.Run(t)
}

func TestDocumentsAreIsolated(t *testing.T) {
	db, err := memory.New(context.Background(), "isolation")
	require.NoError(t, err)

	ctx := context.Background()
	coll := db.Collection("files", nil)

	original := docstore.Document{"payload": []byte("abc")}
	id, err := coll.InsertOne(ctx, original)
	require.NoError(t, err)

	// Mutating the inserted document must not affect the stored copy.
	original["payload"].([]byte)[0] = 'X'

	doc, err := coll.FindOne(ctx, docstore.Document{"_id": id}, nil)
	require.NoError(t, err)

	payload, ok := docstore.BinaryField(doc, "payload")
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), payload)

	// Mutating a returned document must not affect later reads either.
	payload[0] = 'Y'

	again, err := coll.FindOne(ctx, docstore.Document{"_id": id}, nil)
	require.NoError(t, err)
	payload, ok = docstore.BinaryField(again, "payload")
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), payload)
}
