package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/singsync/internal/shared"
)

// LocalStore keeps objects in a directory. The HTTP server exposes Root under /assets/.
type LocalStore struct {
	root      string
	publicURL string
}

// NewLocalStore creates root if needed. publicURL is the prefix objects are served from.
func NewLocalStore(root, publicURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStore{root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Root returns the directory objects are written to.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, obj Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrStorageUpload, err)
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", shared.ErrObjectExists, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrStorageUpload, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return fmt.Errorf("%w: failed to write %s: %w", shared.ErrStorageUpload, key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(p)
		return fmt.Errorf("%w: %w", shared.ErrStorageUpload, err)
	}
	return nil
}

func (s *LocalStore) PublicURL(key string) string {
	return s.publicURL + "/" + (&url.URL{Path: key}).EscapedPath()
}

// path resolves key under root, rejecting keys that would escape it.
func (s *LocalStore) path(key string) (string, error) {
	if key == "" || !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("%w: invalid object key %q", shared.ErrInvalidInput, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}
