package file

import (
	"context"
	"mime"
	"path"
)

// File is a written export.
type File struct {
	Name     string
	Size     int64
	Location string // absolute path or s3:// URL
}

// Storage keeps files below a root it owns. Names are slash separated and
// relative to that root.
type Storage interface {
	// Save writes data under name, replacing any existing file.
	Save(ctx context.Context, name string, data []byte) (*File, error)
	// DeleteDir removes dir with everything below it. A missing dir fails
	// with ErrDirectoryNotFound.
	DeleteDir(ctx context.Context, dir string) error
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
