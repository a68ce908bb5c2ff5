package ports

import (
	"io"

	"github.com/bft-labs/compatre/internal/domain"
)

// TransformFunc receives the raw bytes of a module about to be activated and
// returns the bytes to activate. name may be empty when the host does not
// know it yet. The host blocks activation of that module on the call.
type TransformFunc func(name string, data []byte) ([]byte, error)

// TransformerRegistry is the host's registration surface for load hooks.
type TransformerRegistry interface {
	AddTransformer(fn TransformFunc) error
}

// PluginHandle identifies a loaded plugin to the privileged accessor.
type PluginHandle interface {
	PluginName() string
}

// PrivilegedAccessor grants access to a plugin loader's private state.
// Acquire either succeeds once or the caller must not proceed.
type PrivilegedAccessor interface {
	Acquire(handle PluginHandle) (*LoaderAccess, error)
}

// LoaderAccess is the capability object for one plugin loader.
// Processor is optional; the other fields are required.
type LoaderAccess struct {
	Archive     Archive
	Cache       OverrideTable
	Definer     ModuleDefiner
	Description domain.PluginDescription
	Processor   ModuleProcessor
}

// Archive is a read-only container of named binary entries.
type Archive interface {
	// Entries lists entry names in archive order.
	Entries() []string

	// Open returns the entry's contents. A missing entry yields an error
	// wrapping domain.ErrResourceNotFound.
	Open(name string) (io.ReadCloser, error)
}

// ModuleDefiner turns bytes into an active module the same way the host
// would for a module it loaded itself.
type ModuleDefiner interface {
	Define(name string, data []byte) (domain.Module, error)
}

// OverrideTable is a loader's resolved-module cache. Callers may insert or
// overwrite entries; they never enumerate or delete them.
type OverrideTable interface {
	Put(name string, module domain.Module) error
}

// ModuleProcessor is host-specific preprocessing (for example legacy
// bytecode fixes) applied to a marked module before it is remapped.
type ModuleProcessor interface {
	Process(desc domain.PluginDescription, entry string, data []byte) ([]byte, error)
}
