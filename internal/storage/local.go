package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/docmanager/internal/model"
)

// LocalStore writes files into a directory on disk.  Paths it returns are
// baseDir joined with the stored name, e.g. "uploads/1714554000000-a.pdf".
type LocalStore struct {
	baseDir string
	now     func() time.Time
}

// NewLocalStore creates baseDir if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &LocalStore{baseDir: baseDir, now: time.Now}, nil
}

// Save copies r to a new file.  A partially written file is removed on
// error.
func (s *LocalStore) Save(ctx context.Context, originalName string, r io.Reader) (model.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return model.StoredFile{}, err
	}
	name, err := storedName(s.now(), originalName)
	if err != nil {
		return model.StoredFile{}, err
	}

	fullPath, f, err := s.create(name)
	if err != nil {
		return model.StoredFile{}, err
	}
	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return model.StoredFile{}, fmt.Errorf("write body: %w", err)
	}
	return model.StoredFile{Path: fullPath, Extension: Extension(originalName), Size: written}, nil
}

// create opens a new file for name.  When the name is taken, as with two
// uploads of the same file in one millisecond, a short random tag is
// inserted after the timestamp.
func (s *LocalStore) create(name string) (string, *os.File, error) {
	candidate := name
	for attempt := 0; ; attempt++ {
		fullPath := filepath.Join(s.baseDir, candidate)
		f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err == nil {
			return fullPath, f, nil
		}
		if !errors.Is(err, fs.ErrExist) || attempt == maxNameAttempts {
			return "", nil, fmt.Errorf("open file: %w", err)
		}
		candidate = withTag(name, uuid.NewString()[:8])
	}
}

// Remove deletes a file previously returned by Save.  Paths outside
// baseDir are refused; a file that is already gone is not an error.
func (s *LocalStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := filepath.Rel(s.baseDir, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("invalid storage path %q", path)
	}
	if err := os.Remove(filepath.Join(s.baseDir, rel)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

var _ FileStore = (*LocalStore)(nil)
