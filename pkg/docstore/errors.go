package docstore

import "errors"

// Standard errors shared by every backend. Backends wrap these with
// additional context; callers check them with errors.Is.
var (
	// ErrNoDocuments indicates a FindOne matched nothing.
	ErrNoDocuments = errors.New("no documents in result")

	// ErrCollectionExists indicates CreateCollection targeted a collection
	// that already exists.
	ErrCollectionExists = errors.New("collection already exists")

	// ErrClosed indicates an operation on a database that has been closed.
	ErrClosed = errors.New("database is closed")
)
