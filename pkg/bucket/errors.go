package bucket

import "errors"

var (
	// ErrFileNotFound indicates the requested file id has no files
	// collection document. It is returned by Delete when nothing was
	// deleted and by the download-stream openers when the lookup comes back
	// empty. Rename deliberately does NOT return it; see Rename.
	ErrFileNotFound = errors.New("file not found")
)
