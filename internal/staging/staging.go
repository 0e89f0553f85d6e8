// Package staging holds uploaded files on local storage between receipt and
// forwarding to the object store. The default implementation sits on afero so
// the same code runs against the OS filesystem and an in-memory one.
package staging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Area is the staging abstraction used by the upload pipeline.
type Area interface {
	// Create copies r into a new, uniquely named entry and returns its path
	// and the number of bytes written.
	Create(originalName string, r io.Reader) (string, int64, error)
	// Open returns a seekable reader over a staged entry.
	Open(path string) (io.ReadSeekCloser, error)
	// Remove deletes a staged entry. Removing a missing entry is not an error.
	Remove(path string) error
	// List returns the paths of every staged entry.
	List() ([]string, error)
	// Sweep removes entries last modified before the cutoff.
	Sweep(cutoff time.Time) (int, error)
}

// FSArea stores staged files in a single directory of an afero filesystem.
type FSArea struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// NewFSArea ensures dir exists on fs and returns an area rooted at it.
func NewFSArea(fs afero.Fs, dir string) (*FSArea, error) {
	if dir == "" {
		return nil, errors.New("staging directory must be provided")
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory %s: %w", dir, err)
	}
	return &FSArea{fs: fs, dir: dir, now: time.Now}, nil
}

// NewDiskArea stages files on the OS filesystem.
func NewDiskArea(dir string) (*FSArea, error) {
	return NewFSArea(afero.NewOsFs(), dir)
}

// NewMemoryArea stages files in process memory.
func NewMemoryArea() *FSArea {
	area, _ := NewFSArea(afero.NewMemMapFs(), "/staging")
	return area
}

// Dir returns the staging directory.
func (a *FSArea) Dir() string {
	return a.dir
}

func (a *FSArea) Create(originalName string, r io.Reader) (string, int64, error) {
	path := filepath.Join(a.dir, a.entryName(originalName))

	f, err := a.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("create staging entry for %q: %w", originalName, err)
	}

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = a.fs.Remove(path)
		return "", 0, fmt.Errorf("write staging entry for %q: %w", originalName, err)
	}

	return path, n, nil
}

func (a *FSArea) Open(path string) (io.ReadSeekCloser, error) {
	if err := a.owns(path); err != nil {
		return nil, err
	}
	f, err := a.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open staging entry %s: %w", path, err)
	}
	return f, nil
}

func (a *FSArea) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := a.owns(path); err != nil {
		return err
	}
	if err := a.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove staging entry %s: %w", path, err)
	}
	return nil
}

func (a *FSArea) List() ([]string, error) {
	infos, err := afero.ReadDir(a.fs, a.dir)
	if err != nil {
		return nil, fmt.Errorf("list staging directory %s: %w", a.dir, err)
	}
	paths := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(a.dir, info.Name()))
	}
	return paths, nil
}

func (a *FSArea) Sweep(cutoff time.Time) (int, error) {
	infos, err := afero.ReadDir(a.fs, a.dir)
	if err != nil {
		return 0, fmt.Errorf("list staging directory %s: %w", a.dir, err)
	}

	var (
		removed int
		errs    []error
	)
	for _, info := range infos {
		if info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := a.fs.Remove(filepath.Join(a.dir, info.Name())); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// entryName is unique per request: millisecond timestamp, a UUID, then the
// sanitized client file name.
func (a *FSArea) entryName(originalName string) string {
	base := filepath.Base(strings.TrimSpace(originalName))
	if base == "." || base == string(filepath.Separator) {
		base = "file"
	}
	return fmt.Sprintf("%d-%s-%s", a.now().UnixMilli(), uuid.NewString(), base)
}

func (a *FSArea) owns(path string) error {
	rel, err := filepath.Rel(a.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		return fmt.Errorf("path %s is outside the staging directory", path)
	}
	return nil
}

var _ Area = (*FSArea)(nil)
