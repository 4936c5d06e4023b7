// Package storage keeps uploaded document files.  Two backends exist: the
// local filesystem and Amazon S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/iliyamo/docmanager/internal/model"
)

// FileStore saves uploaded artifacts and removes them again.
type FileStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (model.StoredFile, error)
	Remove(ctx context.Context, path string) error
}

// ErrInvalidName is returned for file names that reduce to nothing once
// directory components are stripped.
var ErrInvalidName = errors.New("invalid file name")

// storedName builds "<unixMillis>-<base name>".
func storedName(now time.Time, originalName string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(originalName), "\\", "/"))
	if base == "." || base == "/" || base == "" || base == ".." {
		return "", ErrInvalidName
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base), nil
}

// maxNameAttempts bounds the retries after a stored-name collision.
const maxNameAttempts = 3

// withTag turns "<ms>-<base>" into "<ms>-<tag>-<base>".
func withTag(name, tag string) string {
	ms, base, _ := strings.Cut(name, "-")
	return ms + "-" + tag + "-" + base
}

// Extension returns the extension of name including the dot, as given.
func Extension(name string) string {
	return filepath.Ext(name)
}
