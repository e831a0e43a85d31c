package bucket_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gridstore/pkg/bucket"
	"github.com/marmos91/gridstore/pkg/docstore"
	"github.com/marmos91/gridstore/pkg/docstore/memory"
)

// opCounter tallies store operations by name so tests can assert how often
// the bucket touched the database.
type opCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newOpCounter() *opCounter {
	return &opCounter{counts: make(map[string]int)}
}

func (c *opCounter) inc(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[op]++
}

func (c *opCounter) get(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[op]
}

type countingDatabase struct {
	inner   docstore.Database
	counter *opCounter
}

func (d *countingDatabase) Name() string { return d.inner.Name() }

func (d *countingDatabase) Collection(name string, opts *docstore.CollectionOptions) docstore.Collection {
	return &countingCollection{inner: d.inner.Collection(name, opts), counter: d.counter}
}

func (d *countingDatabase) ListCollectionNames(ctx context.Context, filter docstore.Document) ([]string, error) {
	d.counter.inc("db.ListCollectionNames")
	return d.inner.ListCollectionNames(ctx, filter)
}

func (d *countingDatabase) CreateCollection(ctx context.Context, name string) error {
	d.counter.inc("db.CreateCollection")
	return d.inner.CreateCollection(ctx, name)
}

type countingCollection struct {
	inner   docstore.Collection
	counter *opCounter
}

func (c *countingCollection) op(name string) string {
	return c.inner.Name() + "." + name
}

func (c *countingCollection) Name() string { return c.inner.Name() }

func (c *countingCollection) InsertOne(ctx context.Context, doc docstore.Document) (any, error) {
	c.counter.inc(c.op("InsertOne"))
	return c.inner.InsertOne(ctx, doc)
}

func (c *countingCollection) FindOne(ctx context.Context, filter docstore.Document, opts *docstore.FindOneOptions) (docstore.Document, error) {
	c.counter.inc(c.op("FindOne"))
	return c.inner.FindOne(ctx, filter, opts)
}

func (c *countingCollection) Find(ctx context.Context, filter docstore.Document, opts *docstore.FindOptions) (docstore.Cursor, error) {
	c.counter.inc(c.op("Find"))
	return c.inner.Find(ctx, filter, opts)
}

func (c *countingCollection) UpdateOne(ctx context.Context, filter, set docstore.Document) (*docstore.UpdateResult, error) {
	c.counter.inc(c.op("UpdateOne"))
	return c.inner.UpdateOne(ctx, filter, set)
}

func (c *countingCollection) DeleteOne(ctx context.Context, filter docstore.Document) (int64, error) {
	c.counter.inc(c.op("DeleteOne"))
	return c.inner.DeleteOne(ctx, filter)
}

func (c *countingCollection) DeleteMany(ctx context.Context, filter docstore.Document) (int64, error) {
	c.counter.inc(c.op("DeleteMany"))
	return c.inner.DeleteMany(ctx, filter)
}

func (c *countingCollection) ListIndexes(ctx context.Context) ([]docstore.IndexModel, error) {
	c.counter.inc(c.op("ListIndexes"))
	return c.inner.ListIndexes(ctx)
}

func (c *countingCollection) CreateIndex(ctx context.Context, model docstore.IndexModel) (string, error) {
	c.counter.inc(c.op("CreateIndex"))
	return c.inner.CreateIndex(ctx, model)
}

func (c *countingCollection) Drop(ctx context.Context) error {
	c.counter.inc(c.op("Drop"))
	return c.inner.Drop(ctx)
}

func newCountingBucket(t *testing.T, opts bucket.Options) (*bucket.Bucket, docstore.Database, *opCounter) {
	t.Helper()

	db, err := memory.New(context.Background(), "gridstore-test")
	require.NoError(t, err)

	counter := newOpCounter()
	counting := &countingDatabase{inner: db, counter: counter}

	return bucket.New(counting, opts), db, counter
}

func TestProvisioningCreatesExpectedIndexes(t *testing.T) {
	b, db, _ := newCountingBucket(t, bucket.Options{})

	ctx := context.Background()
	uploadString(t, b, "test.txt", "test data", nil)

	cases := []struct {
		collection string
		indexName  string
		fields     []string
	}{
		{"fs.files", "fs.files_index", []string{"filename", "uploadDate"}},
		{"fs.chunks", "fs.chunks_index", []string{"files_id", "n"}},
	}

	for _, tc := range cases {
		indexes, err := db.Collection(tc.collection, nil).ListIndexes(ctx)
		require.NoError(t, err)

		var found *docstore.IndexModel
		for i := range indexes {
			if indexes[i].Name == tc.indexName {
				found = &indexes[i]
				break
			}
		}
		require.NotNil(t, found, "index %s missing on %s", tc.indexName, tc.collection)
		require.Len(t, found.Keys, len(tc.fields))

		for i, field := range tc.fields {
			assert.Equal(t, field, found.Keys[i].Field)
			assert.True(t, docstore.IsAscending(found.Keys[i].Order))
		}
	}
}

func TestProvisioningRunsOnce(t *testing.T) {
	b, _, counter := newCountingBucket(t, bucket.Options{})

	uploadString(t, b, "one.txt", "test data", nil)
	uploadString(t, b, "two.txt", "more data", nil)
	uploadString(t, b, "three.txt", "even more", nil)

	assert.Equal(t, 1, counter.get("fs.files.CreateIndex"))
	assert.Equal(t, 1, counter.get("fs.chunks.CreateIndex"))
	assert.Equal(t, 2, counter.get("db.CreateCollection"))
	// Only the first upload probes; later ones hit the latch.
	assert.Equal(t, 1, counter.get("fs.files.ListIndexes"))
}

func TestProvisioningSkippedWhenFilesExist(t *testing.T) {
	b, db, counter := newCountingBucket(t, bucket.Options{})

	// An existing files document means another writer already provisioned
	// the bucket.
	ctx := context.Background()
	_, err := db.Collection("fs.files", nil).InsertOne(ctx, docstore.Document{"filename": "pre.txt"})
	require.NoError(t, err)

	uploadString(t, b, "test.txt", "test data", nil)

	assert.Zero(t, counter.get("fs.files.CreateIndex"))
	assert.Zero(t, counter.get("fs.chunks.CreateIndex"))
	assert.Zero(t, counter.get("db.CreateCollection"))
}

func TestProvisioningRecognizesEquivalentIndex(t *testing.T) {
	b, db, counter := newCountingBucket(t, bucket.Options{})

	// Pre-create the collections with equivalent ascending indexes under
	// different names and with float order markers, the way some drivers
	// report them.
	ctx := context.Background()
	require.NoError(t, db.CreateCollection(ctx, "fs.files"))
	require.NoError(t, db.CreateCollection(ctx, "fs.chunks"))

	_, err := db.Collection("fs.files", nil).CreateIndex(ctx, docstore.IndexModel{
		Name: "custom_files_idx",
		Keys: []docstore.IndexKey{
			{Field: "filename", Order: float64(1)},
			{Field: "uploadDate", Order: float64(1)},
		},
	})
	require.NoError(t, err)

	_, err = db.Collection("fs.chunks", nil).CreateIndex(ctx, docstore.IndexModel{
		Name: "custom_chunks_idx",
		Keys: []docstore.IndexKey{
			{Field: "files_id", Order: float64(1)},
			{Field: "n", Order: float64(1)},
		},
	})
	require.NoError(t, err)

	uploadString(t, b, "test.txt", "test data", nil)

	assert.Zero(t, counter.get("fs.files.CreateIndex"))
	assert.Zero(t, counter.get("fs.chunks.CreateIndex"))
}

func TestProvisioningIgnoresMismatchedIndexes(t *testing.T) {
	b, db, counter := newCountingBucket(t, bucket.Options{})

	// A descending or differently-keyed index does not satisfy the
	// requirement.
	ctx := context.Background()
	require.NoError(t, db.CreateCollection(ctx, "fs.files"))

	_, err := db.Collection("fs.files", nil).CreateIndex(ctx, docstore.IndexModel{
		Name: "wrong_order",
		Keys: []docstore.IndexKey{
			{Field: "filename", Order: int32(1)},
			{Field: "uploadDate", Order: int32(-1)},
		},
	})
	require.NoError(t, err)

	uploadString(t, b, "test.txt", "test data", nil)

	assert.Equal(t, 1, counter.get("fs.files.CreateIndex"))
	assert.Equal(t, 1, counter.get("fs.chunks.CreateIndex"))
}

func TestNotFoundSkipsChunkQuery(t *testing.T) {
	b, _, counter := newCountingBucket(t, bucket.Options{})

	uploadString(t, b, "test.txt", "test data", nil)

	_, err := b.OpenDownloadStream(context.Background(), "no-such-id")
	require.ErrorIs(t, err, bucket.ErrFileNotFound)

	assert.Zero(t, counter.get("fs.chunks.Find"))
}

func TestConcurrentUploads(t *testing.T) {
	b, _, counter := newCountingBucket(t, bucket.Options{ChunkSizeBytes: 4})

	const workers = 8

	var wg sync.WaitGroup
	ids := make([]any, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = b.UploadFromStream(context.Background(), "shared.txt", strings.NewReader("test data"), nil)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []byte("test data"), downloadAll(t, b, ids[i]))
	}

	// Provisioning happened exactly once despite the racing writers.
	assert.Equal(t, 1, counter.get("fs.files.CreateIndex"))
	assert.Equal(t, 1, counter.get("fs.chunks.CreateIndex"))
}
