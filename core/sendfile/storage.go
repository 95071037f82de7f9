package sendfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"
)

// ErrNotFound is matched by every storage error for a missing file
var ErrNotFound = errors.New("file not found")

// FileInfo describes a stored file
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Storage is the file source used to send file bodies
type Storage interface {
	Stat(ctx context.Context, name string) (FileInfo, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// OSStorage serves files from the local filesystem.
//
// With an empty Root names are used as given. Otherwise names are resolved
// below Root and cannot escape it.
type OSStorage struct {
	Root string
}

// NewOSStorage creates a filesystem storage rooted at root
func NewOSStorage(root string) *OSStorage {
	return &OSStorage{Root: root}
}

func (s *OSStorage) resolve(name string) string {
	if s.Root == "" {
		return name
	}
	return filepath.Join(s.Root, filepath.FromSlash(path.Clean("/"+filepath.ToSlash(name))))
}

// Stat returns the size of a regular file
func (s *OSStorage) Stat(ctx context.Context, name string) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}

	st, err := os.Stat(s.resolve(name))
	if err != nil {
		return FileInfo{}, wrapNotFound(name, err)
	}
	if st.IsDir() {
		return FileInfo{}, fmt.Errorf("%w: %s is a directory", ErrNotFound, name)
	}

	return FileInfo{Name: name, Size: st.Size(), ModTime: st.ModTime()}, nil
}

// Open opens a file for streaming. The returned value is an *os.File, so
// copying it to a TCP connection goes through sendfile(2).
func (s *OSStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.resolve(name))
	if err != nil {
		return nil, wrapNotFound(name, err)
	}
	return f, nil
}

func wrapNotFound(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return fmt.Errorf("storage %s: %w", name, err)
}
