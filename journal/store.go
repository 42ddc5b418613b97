package journal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Store persists named journals. Implementations perform I/O on each call
// without caching.
type Store interface {
	// List returns the names of every stored journal, sorted.
	List(ctx context.Context) ([]string, error)
	// Load reads the named journal.
	Load(ctx context.Context, name string) ([]Entry, error)
	// Save writes entries under name, replacing any previous journal.
	Save(ctx context.Context, name string, entries []Entry) error
	// Delete removes journals. Missing names are ignored.
	Delete(ctx context.Context, names ...string) error
}

type fileStore struct {
	root   string
	format Format
}

// NewFileStore creates a Store keeping one file per journal under root,
// encoded in format.
func NewFileStore(root string, format Format) Store {
	if format == "" {
		format = FormatJSON
	}
	return &fileStore{root: root, format: format}
}

func (s *fileStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name)+s.format.ext())
}

func (s *fileStore) List(_ context.Context) ([]string, error) {
	var names []string
	ext := s.format.ext()

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.root {
				return fs.SkipAll
			}
			return err
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ext {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		names = append(names, strings.TrimSuffix(filepath.ToSlash(rel), ext))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	slices.Sort(names)
	return names, nil
}

func (s *fileStore) Load(_ context.Context, name string) ([]Entry, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, name, err)
	}

	entries, err := Decode(data, s.format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, name, err)
	}
	return entries, nil
}

func (s *fileStore) Save(_ context.Context, name string, entries []Entry) error {
	data, err := Encode(entries, s.format)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, name, err)
	}
	return writeFile(s.path(name), data)
}

func (s *fileStore) Delete(_ context.Context, names ...string) error {
	for _, name := range names {
		if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete failed: %s: %w", name, err)
		}
	}
	return nil
}

// writeFile replaces path with data through a temporary file in the same
// directory.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, path, err)
	}
	return nil
}
