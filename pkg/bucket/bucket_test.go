package bucket_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gridstore/pkg/bucket"
	"github.com/marmos91/gridstore/pkg/docstore"
	"github.com/marmos91/gridstore/pkg/docstore/memory"
)

func newTestBucket(t *testing.T, opts bucket.Options) (*bucket.Bucket, docstore.Database) {
	t.Helper()

	db, err := memory.New(context.Background(), "gridstore-test")
	require.NoError(t, err)

	return bucket.New(db, opts), db
}

func uploadString(t *testing.T, b *bucket.Bucket, filename, payload string, opts *bucket.UploadOptions) any {
	t.Helper()

	id, err := b.UploadFromStream(context.Background(), filename, strings.NewReader(payload), opts)
	require.NoError(t, err)
	require.NotNil(t, id)

	return id
}

func downloadAll(t *testing.T, b *bucket.Bucket, id any) []byte {
	t.Helper()

	ctx := context.Background()
	stream, err := b.OpenDownloadStream(ctx, id)
	require.NoError(t, err)
	defer stream.Close(ctx)

	data, err := io.ReadAll(stream)
	require.NoError(t, err)

	return data
}

func fileDocByID(t *testing.T, db docstore.Database, id any) docstore.Document {
	t.Helper()

	doc, err := db.Collection("fs.files", nil).FindOne(context.Background(), docstore.Document{"_id": id}, nil)
	require.NoError(t, err)

	return doc
}

func chunkPayloads(t *testing.T, db docstore.Database, id any) [][]byte {
	t.Helper()

	ctx := context.Background()
	cursor, err := db.Collection("fs.chunks", nil).Find(ctx, docstore.Document{"files_id": id}, &docstore.FindOptions{
		Sort: []docstore.SortKey{{Field: "n", Order: 1}},
	})
	require.NoError(t, err)
	defer cursor.Close(ctx)

	var payloads [][]byte
	for cursor.Next(ctx) {
		data, ok := docstore.BinaryField(cursor.Current(), "data")
		require.True(t, ok)
		payloads = append(payloads, data)
	}
	require.NoError(t, cursor.Err())

	return payloads
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		size      int
		chunkSize int32
	}{
		{"single partial chunk", 100, bucket.DefaultChunkSizeBytes},
		{"exact chunk multiple", 1024, 256},
		{"partial final chunk", 1000, 256},
		{"one byte over a boundary", 257, 256},
		{"one byte file", 1, 256},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, _ := newTestBucket(t, bucket.Options{ChunkSizeBytes: tc.chunkSize})

			payload := make([]byte, tc.size)
			for i := range payload {
				payload[i] = byte(i % 251)
			}

			id, err := b.UploadFromStream(context.Background(), "data.bin", bytes.NewReader(payload), nil)
			require.NoError(t, err)

			assert.Equal(t, payload, downloadAll(t, b, id))
		})
	}
}

func TestUploadChunkLayout(t *testing.T) {
	b, db := newTestBucket(t, bucket.Options{ChunkSizeBytes: 4})

	id := uploadString(t, b, "test.txt", "test data", nil)

	payloads := chunkPayloads(t, db, id)
	require.Len(t, payloads, 3)
	assert.Equal(t, []byte("test"), payloads[0])
	assert.Equal(t, []byte(" dat"), payloads[1])
	assert.Equal(t, []byte("a"), payloads[2])
}

func TestUploadFileDocument(t *testing.T) {
	b, db := newTestBucket(t, bucket.Options{ChunkSizeBytes: 4})

	before := time.Now().UTC()
	id := uploadString(t, b, "test.txt", "test data", nil)
	after := time.Now().UTC()

	doc := fileDocByID(t, db, id)

	filename, ok := docstore.StringField(doc, "filename")
	require.True(t, ok)
	assert.Equal(t, "test.txt", filename)

	chunkSize, ok := docstore.Int32Field(doc, "chunkSize")
	require.True(t, ok)
	assert.Equal(t, int32(4), chunkSize)

	length, ok := docstore.Int64Field(doc, "length")
	require.True(t, ok)
	assert.Equal(t, int64(9), length)

	uploadDate, ok := docstore.TimeField(doc, "uploadDate")
	require.True(t, ok)
	assert.False(t, uploadDate.Before(before))
	assert.False(t, uploadDate.After(after))
}

func TestUploadKnownDigests(t *testing.T) {
	t.Run("default chunk size", func(t *testing.T) {
		b, db := newTestBucket(t, bucket.Options{})

		id := uploadString(t, b, "test.txt", "test data", nil)

		digest, ok := docstore.StringField(fileDocByID(t, db, id), "md5")
		require.True(t, ok)
		assert.Equal(t, "eb733a00c0c9d336e65691a37ab54293", digest)
	})

	t.Run("digest spans chunk boundaries", func(t *testing.T) {
		b, db := newTestBucket(t, bucket.Options{ChunkSizeBytes: 8})

		id := uploadString(t, b, "test.txt", "test data 1234567890", nil)

		digest, ok := docstore.StringField(fileDocByID(t, db, id), "md5")
		require.True(t, ok)
		assert.Equal(t, "5e75d6271a7cfc3d9b79116be261eb21", digest)
	})
}

func TestUploadDisableMD5(t *testing.T) {
	b, db := newTestBucket(t, bucket.Options{DisableMD5: true})

	id := uploadString(t, b, "test.txt", "test data", nil)

	doc := fileDocByID(t, db, id)
	_, present := doc["md5"]
	assert.False(t, present)
}

func TestUploadEmptyFile(t *testing.T) {
	b, db := newTestBucket(t, bucket.Options{})

	id := uploadString(t, b, "empty.txt", "", nil)

	doc := fileDocByID(t, db, id)
	length, ok := docstore.Int64Field(doc, "length")
	require.True(t, ok)
	assert.Equal(t, int64(0), length)

	digest, ok := docstore.StringField(doc, "md5")
	require.True(t, ok)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", digest)

	assert.Empty(t, chunkPayloads(t, db, id))
	assert.Empty(t, downloadAll(t, b, id))
}

func TestUploadMetadata(t *testing.T) {
	b, db := newTestBucket(t, bucket.Options{})

	id := uploadString(t, b, "test.txt", "test data", &bucket.UploadOptions{
		Metadata: docstore.Document{"owner": "alice", "version": int32(2)},
	})

	metadata, ok := docstore.DocumentField(fileDocByID(t, db, id), "metadata")
	require.True(t, ok)

	owner, ok := docstore.StringField(metadata, "owner")
	require.True(t, ok)
	assert.Equal(t, "alice", owner)

	plain := uploadString(t, b, "plain.txt", "test data", nil)
	_, present := fileDocByID(t, db, plain)["metadata"]
	assert.False(t, present)
}

func TestUploadChunkSizeOverride(t *testing.T) {
	b, db := newTestBucket(t, bucket.Options{ChunkSizeBytes: 1024})

	id := uploadString(t, b, "test.txt", "test data", &bucket.UploadOptions{ChunkSizeBytes: 4})

	chunkSize, ok := docstore.Int32Field(fileDocByID(t, db, id), "chunkSize")
	require.True(t, ok)
	assert.Equal(t, int32(4), chunkSize)
	assert.Len(t, chunkPayloads(t, db, id), 3)
}

func TestUploadProgress(t *testing.T) {
	b, _ := newTestBucket(t, bucket.Options{ChunkSizeBytes: 4})

	var reported []uint64
	uploadString(t, b, "test.txt", "test data", &bucket.UploadOptions{
		Progress: bucket.ProgressFunc(func(written uint64) {
			reported = append(reported, written)
		}),
	})

	assert.Equal(t, []uint64{4, 8, 9}, reported)
}

func TestOpenDownloadStreamNotFound(t *testing.T) {
	b, _ := newTestBucket(t, bucket.Options{})
	uploadString(t, b, "test.txt", "test data", nil)

	_, err := b.OpenDownloadStream(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, bucket.ErrFileNotFound)
}

func TestOpenDownloadStreamWithFilename(t *testing.T) {
	b, _ := newTestBucket(t, bucket.Options{})

	id := uploadString(t, b, "report.pdf", "test data", nil)

	ctx := context.Background()
	stream, filename, err := b.OpenDownloadStreamWithFilename(ctx, id)
	require.NoError(t, err)
	defer stream.Close(ctx)

	assert.Equal(t, "report.pdf", filename)

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, []byte("test data"), data)
}

func TestDownloadStreamNext(t *testing.T) {
	b, _ := newTestBucket(t, bucket.Options{ChunkSizeBytes: 4})

	id := uploadString(t, b, "test.txt", "test data", nil)

	ctx := context.Background()
	stream, err := b.OpenDownloadStream(ctx, id)
	require.NoError(t, err)
	defer stream.Close(ctx)

	var chunks [][]byte
	for {
		chunk, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}

	require.Len(t, chunks, 3)
	assert.Equal(t, []byte("test"), chunks[0])
	assert.Equal(t, []byte(" dat"), chunks[1])
	assert.Equal(t, []byte("a"), chunks[2])
}

func TestDownloadToStream(t *testing.T) {
	b, _ := newTestBucket(t, bucket.Options{ChunkSizeBytes: 4})

	id := uploadString(t, b, "test.txt", "test data", nil)

	var buf bytes.Buffer
	written, err := b.DownloadToStream(context.Background(), id, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(9), written)
	assert.Equal(t, "test data", buf.String())
}

func TestDelete(t *testing.T) {
	b, db := newTestBucket(t, bucket.Options{ChunkSizeBytes: 4})

	ctx := context.Background()
	id := uploadString(t, b, "test.txt", "test data", nil)

	require.NoError(t, b.Delete(ctx, id))

	_, err := db.Collection("fs.files", nil).FindOne(ctx, docstore.Document{"_id": id}, nil)
	assert.ErrorIs(t, err, docstore.ErrNoDocuments)
	assert.Empty(t, chunkPayloads(t, db, id))

	_, err = b.OpenDownloadStream(ctx, id)
	assert.ErrorIs(t, err, bucket.ErrFileNotFound)
}

func TestDeleteNotFound(t *testing.T) {
	b, db := newTestBucket(t, bucket.Options{})
	id := uploadString(t, b, "test.txt", "test data", nil)

	err := b.Delete(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, bucket.ErrFileNotFound)

	// The stored file and its chunks are untouched by the failed delete.
	assert.NotEmpty(t, chunkPayloads(t, db, id))
}

func TestRename(t *testing.T) {
	b, db := newTestBucket(t, bucket.Options{})

	id := uploadString(t, b, "old.txt", "test data", nil)

	require.NoError(t, b.Rename(context.Background(), id, "new.txt"))

	doc := fileDocByID(t, db, id)
	filename, ok := docstore.StringField(doc, "filename")
	require.True(t, ok)
	assert.Equal(t, "new.txt", filename)

	length, ok := docstore.Int64Field(doc, "length")
	require.True(t, ok)
	assert.Equal(t, int64(9), length)

	assert.Equal(t, []byte("test data"), downloadAll(t, b, id))
}

func TestRenameUnknownIDSucceeds(t *testing.T) {
	b, _ := newTestBucket(t, bucket.Options{})
	uploadString(t, b, "test.txt", "test data", nil)

	assert.NoError(t, b.Rename(context.Background(), "no-such-id", "new.txt"))
}

func TestFind(t *testing.T) {
	b, _ := newTestBucket(t, bucket.Options{})

	uploadString(t, b, "a.txt", "aaa", nil)
	uploadString(t, b, "b.txt", "bbb", nil)
	uploadString(t, b, "a.txt", "ccc", nil)

	t.Run("by filename", func(t *testing.T) {
		docs := collectFiles(t, b, docstore.Document{"filename": "a.txt"}, nil)
		assert.Len(t, docs, 2)
	})

	t.Run("all files sorted", func(t *testing.T) {
		docs := collectFiles(t, b, nil, &bucket.FindOptions{
			Sort: []docstore.SortKey{{Field: "filename", Order: 1}},
		})
		require.Len(t, docs, 3)

		var names []string
		for _, doc := range docs {
			name, ok := docstore.StringField(doc, "filename")
			require.True(t, ok)
			names = append(names, name)
		}
		assert.Equal(t, []string{"a.txt", "a.txt", "b.txt"}, names)
	})

	t.Run("skip and limit", func(t *testing.T) {
		limit := int64(1)
		docs := collectFiles(t, b, nil, &bucket.FindOptions{
			Skip:  1,
			Limit: &limit,
			Sort:  []docstore.SortKey{{Field: "filename", Order: 1}},
		})
		require.Len(t, docs, 1)

		name, ok := docstore.StringField(docs[0], "filename")
		require.True(t, ok)
		assert.Equal(t, "a.txt", name)
	})

	t.Run("no matches", func(t *testing.T) {
		docs := collectFiles(t, b, docstore.Document{"filename": "missing.txt"}, nil)
		assert.Empty(t, docs)
	})
}

func collectFiles(t *testing.T, b *bucket.Bucket, filter docstore.Document, opts *bucket.FindOptions) []docstore.Document {
	t.Helper()

	ctx := context.Background()
	cursor, err := b.Find(ctx, filter, opts)
	require.NoError(t, err)
	defer cursor.Close(ctx)

	var docs []docstore.Document
	for cursor.Next(ctx) {
		docs = append(docs, cursor.Current())
	}
	require.NoError(t, cursor.Err())

	return docs
}

func TestDrop(t *testing.T) {
	b, db := newTestBucket(t, bucket.Options{})

	ctx := context.Background()
	uploadString(t, b, "test.txt", "test data", nil)

	require.NoError(t, b.Drop(ctx))

	names, err := db.ListCollectionNames(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, names)

	// A dropped bucket reprovisions on the next upload.
	id := uploadString(t, b, "again.txt", "fresh", nil)
	assert.Equal(t, []byte("fresh"), downloadAll(t, b, id))
}

func TestDropEmptyBucket(t *testing.T) {
	b, _ := newTestBucket(t, bucket.Options{})
	assert.NoError(t, b.Drop(context.Background()))
}
