package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// FSStore implements Store on top of an afero filesystem. Backed by an OS
// directory it serves local development; backed by afero.NewMemMapFs it
// serves tests.
type FSStore struct {
	fs         afero.Fs
	publicBase string
}

// NewFSStore creates a store writing into fsys.
func NewFSStore(fsys afero.Fs, publicBase string) *FSStore {
	return &FSStore{fs: fsys, publicBase: strings.TrimRight(publicBase, "/")}
}

// NewLocalStore creates a store rooted at dir on the local disk.
func NewLocalStore(dir, publicBase string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %q: %w", dir, err)
	}
	return NewFSStore(afero.NewBasePathFs(afero.NewOsFs(), dir), publicBase), nil
}

func fsPath(key string) string {
	return path.Join("/", key)
}

// Put writes data to key, creating parent directories as needed.
func (s *FSStore) Put(_ context.Context, key string, data []byte, _ string) error {
	name := fsPath(key)
	if err := s.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir for %q: %w", ErrStore, key, err)
	}
	if err := afero.WriteFile(s.fs, name, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %q: %w", ErrStore, key, err)
	}
	return nil
}

// Delete removes key. Missing files are ignored.
func (s *FSStore) Delete(_ context.Context, key string) error {
	err := s.fs.Remove(fsPath(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %q: %w", ErrStore, key, err)
	}
	return nil
}

// Exists reports whether key is a stored file.
func (s *FSStore) Exists(_ context.Context, key string) (bool, error) {
	ok, err := afero.Exists(s.fs, fsPath(key))
	if err != nil {
		return false, fmt.Errorf("%w: stat %q: %w", ErrStore, key, err)
	}
	return ok, nil
}

// List walks the filesystem and returns every file key starting with prefix, sorted.
func (s *FSStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := afero.Walk(s.fs, "/", func(name string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		key := strings.TrimPrefix(name, "/")
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: list %q: %w", ErrStore, prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// PublicURL returns publicBase joined with key.
func (s *FSStore) PublicURL(key string) string {
	return PublicURL(s.publicBase, key)
}

// Handler serves stored files read-only, with directory listings disabled.
func (s *FSStore) Handler() http.Handler {
	files := http.FileServer(afero.NewHttpFs(afero.NewReadOnlyFs(s.fs)).Dir("/"))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", CacheControl)
		files.ServeHTTP(w, r)
	})
}
