// Package file stores export files in a local directory or an S3 bucket.
//
// Both backends implement Storage. LocalStorage confines names to its root
// and writes owner-only files. S3Storage encrypts objects server side and
// maps S3 error codes onto this package's errors, so callers match them with
// errors.Is whatever the backend.
//
//	storage, err := file.NewLocalStorage(dataDir)
//	if err != nil {
//		return err
//	}
//	f, err := storage.Save(ctx, "exports/items.json", data)
package file
