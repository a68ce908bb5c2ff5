package app

import (
	"github.com/bft-labs/compatre/internal/domain"
	"github.com/bft-labs/compatre/internal/ports"
)

// TeeTable forwards every override to each table in order, stopping at the
// first failure.
type TeeTable []ports.OverrideTable

// Put implements ports.OverrideTable.
func (t TeeTable) Put(name string, module domain.Module) error {
	for _, table := range t {
		if err := table.Put(name, module); err != nil {
			return err
		}
	}
	return nil
}

// MirrorAccessor wraps a PrivilegedAccessor so that every cache override is
// also written to Mirror (for example a ModuleDirectory on disk). The mirror
// is written first; when it fails the cache slot is left untouched.
type MirrorAccessor struct {
	Accessor ports.PrivilegedAccessor
	Mirror   ports.OverrideTable
}

// Acquire implements ports.PrivilegedAccessor.
func (m MirrorAccessor) Acquire(handle ports.PluginHandle) (*ports.LoaderAccess, error) {
	access, err := m.Accessor.Acquire(handle)
	if err != nil || access == nil || m.Mirror == nil {
		return access, err
	}
	mirrored := *access
	if access.Cache != nil {
		mirrored.Cache = TeeTable{m.Mirror, access.Cache}
	}
	return &mirrored, nil
}
