package file

import "errors"

var (
	ErrInvalidConfig     = errors.New("file: invalid storage configuration")
	ErrInvalidPath       = errors.New("file: path escapes the storage root")
	ErrIsDirectory       = errors.New("file: path is a directory")
	ErrNotDirectory      = errors.New("file: path is not a directory")
	ErrDirectoryNotFound = errors.New("file: directory not found")
	ErrWrite             = errors.New("file: write failed")
	ErrDelete            = errors.New("file: delete failed")

	ErrBucketNotFound = errors.New("file: bucket not found")
	ErrAccessDenied   = errors.New("file: access denied")
	ErrUnavailable    = errors.New("file: storage service unavailable")
)
