// Package storetest provides a reusable conformance suite for
// docstore.Database implementations. It tests the interface contract, not
// implementation details, so every backend (memory, badger, mongo) runs the
// same assertions.
//
// Usage:
//
//	func TestMemoryConformance(t *testing.T) {
//	    suite := &storetest.Suite{
//	        NewDatabase: func(t *testing.T) docstore.Database {
//	            db, err := memory.New(context.Background(), "conformance")
//	            require.NoError(t, err)
//	            return db
//	        },
//	    }
//	    suite.Run(t)
//	}
package storetest

import (
	"context"
	"testing"

	"github.com/marmos91/gridstore/pkg/docstore"
)

// Suite exercises the docstore.Database contract against one backend.
type Suite struct {
	// NewDatabase returns a fresh, empty database for each test. Backends
	// with external state (on-disk badger, a live mongo deployment) should
	// isolate instances per call, e.g. via t.TempDir or randomized names.
	NewDatabase func(t *testing.T) docstore.Database
}

// Run executes every conformance test group.
func (s *Suite) Run(t *testing.T) {
	t.Run("Documents", s.runDocumentTests)
	t.Run("Queries", s.runQueryTests)
	t.Run("Deletes", s.runDeleteTests)
	t.Run("Indexes", s.runIndexTests)
	t.Run("Collections", s.runCollectionTests)
}

func testContext() context.Context {
	return context.Background()
}
