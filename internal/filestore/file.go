package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ganot/quickssh/internal/repository"
)

// File stores the sessions document and the rendered menu on disk.
type File struct {
	path     string
	menuPath string
}

// New creates a file backend. menuPath may be empty to skip writing menus.
func New(path, menuPath string) *File {
	return &File{path: path, menuPath: menuPath}
}

// Path returns the sessions file location.
func (f *File) Path() string {
	return f.path
}

// Read returns the sessions file, or repository.ErrNotFound when it does
// not exist.
func (f *File) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	return data, nil
}

// Write replaces the sessions file atomically.
func (f *File) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(f.path, data)
}

// WriteMenu replaces the menu file atomically.
func (f *File) WriteMenu(ctx context.Context, data []byte) error {
	if f.menuPath == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(f.menuPath, data)
}

// writeFileAtomic writes content to a temp file in the same directory,
// then renames it over path.
func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(content); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("setting mode of %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		tmpFile = nil
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	tmpFile = nil
	return nil
}
