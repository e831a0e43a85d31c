package docstore

import "context"

// SliceCursor is a Cursor over an in-memory snapshot of query results. The
// embedded backends (memory, BadgerDB) materialize matches up front and
// iterate them through this type; server-backed stores use their own lazy
// cursors.
type SliceCursor struct {
	docs    []Document
	current Document
	err     error
	closed  bool
}

// NewSliceCursor returns a cursor positioned before the first document.
func NewSliceCursor(docs []Document) *SliceCursor {
	return &SliceCursor{docs: docs}
}

func (c *SliceCursor) Next(ctx context.Context) bool {
	if c.closed || c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return false
	}
	if len(c.docs) == 0 {
		return false
	}
	c.current = c.docs[0]
	c.docs = c.docs[1:]
	return true
}

func (c *SliceCursor) Current() Document {
	return c.current
}

func (c *SliceCursor) Err() error {
	return c.err
}

func (c *SliceCursor) Close(ctx context.Context) error {
	c.closed = true
	c.docs = nil
	return nil
}
