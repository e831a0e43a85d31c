package bucket

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"time"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/docstore"
)

// UploadFromStream stores the contents of source as a new file and returns
// the id of its files collection document. The payload is read in
// chunk-size pieces; every chunk except the last is exactly chunk-size
// bytes, the last carries the remainder and is omitted entirely for empty
// sources. The descriptor document is inserted before the first chunk and
// finalized afterwards with the total length, the upload timestamp and,
// unless disabled, the hex-encoded MD5 digest of the payload.
//
// The returned id's concrete type is backend-dependent and should be
// treated as opaque.
func (b *Bucket) UploadFromStream(ctx context.Context, filename string, source io.Reader, opts *UploadOptions) (any, error) {
	chunkSize := b.opts.ChunkSizeBytes
	var metadata docstore.Document
	var progress ProgressReporter
	if opts != nil {
		if opts.ChunkSizeBytes > 0 {
			chunkSize = opts.ChunkSizeBytes
		}
		metadata = opts.Metadata
		progress = opts.Progress
	}

	if err := b.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	files := b.filesCollection()
	chunks := b.chunksCollection()

	fileDoc := docstore.Document{
		"filename":  filename,
		"chunkSize": chunkSize,
	}
	if metadata != nil {
		fileDoc["metadata"] = metadata
	}

	fileID, err := files.InsertOne(ctx, fileDoc)
	if err != nil {
		return nil, fmt.Errorf("failed to insert file document: %w", err)
	}

	var digest hash.Hash
	if !b.opts.DisableMD5 {
		digest = md5.New()
	}

	buf := make([]byte, chunkSize)
	var length int64
	var chunkCount int32

	for {
		read, err := io.ReadFull(source, buf)
		if err == io.EOF {
			break
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("failed to read source: %w", err)
		}

		payload := make([]byte, read)
		copy(payload, buf[:read])

		_, err = chunks.InsertOne(ctx, docstore.Document{
			"files_id": fileID,
			"n":        chunkCount,
			"data":     payload,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to insert chunk %d: %w", chunkCount, err)
		}

		if digest != nil {
			digest.Write(payload)
		}

		length += int64(read)
		chunkCount++

		if progress != nil {
			progress.OnProgress(uint64(length))
		}

		if read < len(buf) {
			break
		}
	}

	set := docstore.Document{
		"length":     length,
		"uploadDate": time.Now().UTC(),
	}
	if digest != nil {
		set["md5"] = hex.EncodeToString(digest.Sum(nil))
	}

	_, err = files.UpdateOne(ctx, docstore.Document{"_id": fileID}, set)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize file document: %w", err)
	}

	logger.Debug("Uploaded %q (%d bytes, %d chunks) to bucket %q", filename, length, chunkCount, b.opts.BucketName)
	return fileID, nil
}
