package bucket

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/marmos91/gridstore/pkg/docstore"
)

// DownloadStream iterates the chunk documents of one stored file in
// ascending chunk order. Obtain one from OpenDownloadStream or
// OpenDownloadStreamWithFilename and release it with Close.
//
// A stream can be consumed either chunk-at-a-time via Next or as a plain
// byte stream via the io.Reader interface; mixing the two is fine since
// Read drains whole chunks through Next internally.
type DownloadStream struct {
	ctx    context.Context
	cursor docstore.Cursor

	// remainder holds chunk bytes handed out by Next but not yet consumed
	// through Read.
	remainder []byte
}

// OpenDownloadStream returns a stream over the chunks of the file with the
// given id. It fails with ErrFileNotFound when no files document matches;
// in that case the chunks collection is never queried.
func (b *Bucket) OpenDownloadStream(ctx context.Context, id any) (*DownloadStream, error) {
	stream, _, err := b.OpenDownloadStreamWithFilename(ctx, id)
	return stream, err
}

// OpenDownloadStreamWithFilename behaves like OpenDownloadStream and
// additionally returns the stored filename from the files document.
func (b *Bucket) OpenDownloadStreamWithFilename(ctx context.Context, id any) (*DownloadStream, string, error) {
	fileDoc, err := b.filesCollection().FindOne(ctx, docstore.Document{"_id": id}, nil)
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, "", fmt.Errorf("file %v: %w", id, ErrFileNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up file document: %w", err)
	}

	filename, _ := docstore.StringField(fileDoc, "filename")

	cursor, err := b.chunksCollection().Find(ctx, docstore.Document{"files_id": id}, &docstore.FindOptions{
		Sort: []docstore.SortKey{{Field: "n", Order: 1}},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to query chunks: %w", err)
	}

	return &DownloadStream{ctx: ctx, cursor: cursor}, filename, nil
}

// DownloadToStream copies the whole payload of the file with the given id
// into dst and returns the number of bytes written.
func (b *Bucket) DownloadToStream(ctx context.Context, id any, dst io.Writer) (int64, error) {
	stream, err := b.OpenDownloadStream(ctx, id)
	if err != nil {
		return 0, err
	}
	defer stream.Close(ctx)

	var written int64
	for {
		chunk, err := stream.Next(ctx)
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
		n, err := dst.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("failed to write chunk: %w", err)
		}
	}
}

// Next returns the payload of the next chunk, or io.EOF once the file is
// exhausted. The returned slice is owned by the caller.
func (s *DownloadStream) Next(ctx context.Context) ([]byte, error) {
	if !s.cursor.Next(ctx) {
		if err := s.cursor.Err(); err != nil {
			return nil, fmt.Errorf("chunk cursor failed: %w", err)
		}
		return nil, io.EOF
	}

	data, ok := docstore.BinaryField(s.cursor.Current(), "data")
	if !ok {
		return nil, errors.New("chunk document has no binary data field")
	}
	return data, nil
}

// Read implements io.Reader over the file payload, using the context the
// stream was opened with for chunk fetches.
func (s *DownloadStream) Read(p []byte) (int, error) {
	for len(s.remainder) == 0 {
		chunk, err := s.Next(s.ctx)
		if err != nil {
			return 0, err
		}
		s.remainder = chunk
	}

	n := copy(p, s.remainder)
	s.remainder = s.remainder[n:]
	return n, nil
}

// Close releases the underlying cursor.
func (s *DownloadStream) Close(ctx context.Context) error {
	return s.cursor.Close(ctx)
}
