package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// LocalStorage keeps files in a directory on disk, readable by the owner only.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates root if needed.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		return nil, ErrInvalidConfig
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, errors.Join(ErrWrite, err)
	}
	return &LocalStorage{root: abs}, nil
}

// Save writes through a temporary file renamed into place, so a crash never
// leaves a truncated export behind.
func (s *LocalStorage) Save(ctx context.Context, name string, data []byte) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dst, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	if dst == s.root {
		return nil, fmt.Errorf("%w: %s", ErrIsDirectory, name)
	}
	if err := writeFile(dst, data); err != nil {
		return nil, errors.Join(ErrWrite, err)
	}
	return &File{
		Name:     filepath.Base(dst),
		Size:     int64(len(data)),
		Location: dst,
	}, nil
}

// DeleteDir refuses to remove the root itself.
func (s *LocalStorage) DeleteDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.resolve(dir)
	if err != nil {
		return err
	}
	if target == s.root {
		return fmt.Errorf("%w: %q is the storage root", ErrInvalidPath, dir)
	}

	info, err := os.Stat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	case err != nil:
		return errors.Join(ErrDelete, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	if err := os.RemoveAll(target); err != nil {
		return errors.Join(ErrDelete, err)
	}
	return nil
}

func (s *LocalStorage) resolve(name string) (string, error) {
	local := filepath.FromSlash(name)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, name)
	}
	return filepath.Join(s.root, local), nil
}

func writeFile(dst string, data []byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
