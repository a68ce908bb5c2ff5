// Package ziparchive reads plugin and server archives (jar files).
package ziparchive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/bft-labs/compatre/internal/domain"
)

// Archive implements ports.Archive over a zip file.
type Archive struct {
	path    string
	zr      *zip.Reader
	closer  io.Closer
	entries []string
	byName  map[string]*zip.File
}

// Open opens the archive at path. Close releases it.
func Open(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.ResourceError{Name: path, Kind: domain.ErrResourceNotFound, Err: err}
		}
		return nil, &domain.ResourceError{Name: path, Kind: domain.ErrIO, Err: err}
	}
	a := newArchive(&rc.Reader)
	a.path = path
	a.closer = rc
	return a, nil
}

// NewReader wraps an in-memory zip of the given size.
func NewReader(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &domain.ResourceError{Name: "<memory>", Kind: domain.ErrIO, Err: err}
	}
	return newArchive(zr), nil
}

func newArchive(zr *zip.Reader) *Archive {
	a := &Archive{zr: zr, byName: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if _, dup := a.byName[f.Name]; dup {
			continue
		}
		a.entries = append(a.entries, f.Name)
		a.byName[f.Name] = f
	}
	return a
}

// Path returns the file the archive was opened from, if any.
func (a *Archive) Path() string { return a.path }

// Entries lists file entries in archive order.
func (a *Archive) Entries() []string {
	return append([]string(nil), a.entries...)
}

// Open opens one entry for reading.
func (a *Archive) Open(name string) (io.ReadCloser, error) {
	f, ok := a.byName[name]
	if !ok {
		return nil, &domain.ResourceError{Name: name, Kind: domain.ErrResourceNotFound}
	}
	rc, err := f.Open()
	if err != nil {
		return nil, &domain.ResourceError{Name: name, Kind: domain.ErrIO, Err: err}
	}
	return rc, nil
}

// ReadEntry reads a whole entry.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	rc, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &domain.ResourceError{Name: name, Kind: domain.ErrIO, Err: fmt.Errorf("read: %w", err)}
	}
	return data, nil
}

// Close releases the underlying file.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
