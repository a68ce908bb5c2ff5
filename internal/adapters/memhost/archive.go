package memhost

import (
	"bytes"
	"io"

	"github.com/bft-labs/compatre/internal/domain"
)

// MapArchive is an in-memory ports.Archive.
type MapArchive struct {
	names []string
	files map[string][]byte
}

// NewMapArchive returns an empty archive.
func NewMapArchive() *MapArchive {
	return &MapArchive{files: make(map[string][]byte)}
}

// Add appends or replaces an entry.
func (a *MapArchive) Add(name string, data []byte) *MapArchive {
	if _, ok := a.files[name]; !ok {
		a.names = append(a.names, name)
	}
	a.files[name] = data
	return a
}

// Entries lists entries in insertion order.
func (a *MapArchive) Entries() []string {
	return append([]string(nil), a.names...)
}

// Open returns a reader over the entry.
func (a *MapArchive) Open(name string) (io.ReadCloser, error) {
	data, ok := a.files[name]
	if !ok {
		return nil, &domain.ResourceError{Name: name, Kind: domain.ErrResourceNotFound}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
