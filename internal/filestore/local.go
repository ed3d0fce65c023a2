// Package filestore keeps uploaded proof of delivery files.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// ErrTooLarge is returned when an upload exceeds the store's size limit.
var ErrTooLarge = errors.New("file too large")

// Store saves uploads and returns the relative path they can be found at.
type Store interface {
	Save(ctx context.Context, folder, filename string, r io.Reader) (string, error)
	Remove(relPath string) error
}

// Local writes files below Root on the local disk.
type Local struct {
	Root     string
	MaxBytes int64
}

// NewLocal creates root if needed.
func NewLocal(root string, maxBytes int64) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{Root: root, MaxBytes: maxBytes}, nil
}

// Save stores r as <folder>/<random id><ext of filename> and returns that
// slash separated path. A partially written file is removed on error.
func (l *Local) Save(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	folder = strings.Trim(path.Clean("/"+filepath.ToSlash(folder)), "/")
	ext := strings.ToLower(filepath.Ext(filename))
	rel := path.Join(folder, uuid.Must(uuid.NewV4()).String()+ext)

	full := filepath.Join(l.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}

	src := r
	if l.MaxBytes > 0 {
		src = io.LimitReader(r, l.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && l.MaxBytes > 0 && n > l.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return rel, nil
}

// Remove deletes relPath. A missing file is not an error.
func (l *Local) Remove(relPath string) error {
	clean := strings.Trim(path.Clean("/"+relPath), "/")
	err := os.Remove(filepath.Join(l.Root, filepath.FromSlash(clean)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
