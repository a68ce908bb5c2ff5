// Package memhost is an in-process host loading subsystem: per-plugin loaders
// that resolve modules from their archive, run registered load transformers,
// define the result, and cache it by binary name.
//
// It is what the CLI runs plugins against, and it mirrors the shape of the
// platform loaders compatre targets: the resolved cache is private and is
// only reachable through the privileged accessor.
package memhost

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bft-labs/compatre/internal/domain"
	"github.com/bft-labs/compatre/internal/ports"
	"github.com/bft-labs/compatre/pkg/classfile"
)

// ClassSuffix is the archive entry suffix of a module.
const ClassSuffix = ".class"

// Host owns the registered transformers and all plugin loaders.
type Host struct {
	mu           sync.RWMutex
	transformers []ports.TransformFunc
	loaders      map[string]*Loader
	sealed       bool
	processor    ports.ModuleProcessor
}

// Option configures a Host.
type Option func(*Host)

// Sealed makes the host refuse privileged access.
func Sealed() Option {
	return func(h *Host) { h.sealed = true }
}

// WithProcessor exposes a host preprocessing step through LoaderAccess.
func WithProcessor(p ports.ModuleProcessor) Option {
	return func(h *Host) { h.processor = p }
}

// New creates an empty host.
func New(opts ...Option) *Host {
	h := &Host{loaders: make(map[string]*Loader)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddTransformer implements ports.TransformerRegistry.
func (h *Host) AddTransformer(fn ports.TransformFunc) error {
	if fn == nil {
		return fmt.Errorf("nil transformer")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transformers = append(h.transformers, fn)
	return nil
}

// Activate passes data through every registered transformer in order.
func (h *Host) Activate(name string, data []byte) ([]byte, error) {
	h.mu.RLock()
	fns := append([]ports.TransformFunc(nil), h.transformers...)
	h.mu.RUnlock()

	for _, fn := range fns {
		out, err := fn(name, data)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", name, err)
		}
		if out != nil {
			data = out
		}
	}
	return data, nil
}

// NewLoader creates the loader for one plugin archive.
func (h *Host) NewLoader(desc domain.PluginDescription, archive ports.Archive) (*Loader, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.loaders[desc.Name]; exists {
		return nil, fmt.Errorf("plugin %q already has a loader", desc.Name)
	}
	l := &Loader{host: h, desc: desc, archive: archive, cache: make(map[string]domain.Module)}
	h.loaders[desc.Name] = l
	return l, nil
}

// Acquire implements ports.PrivilegedAccessor.
func (h *Host) Acquire(handle ports.PluginHandle) (*ports.LoaderAccess, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.sealed {
		return nil, fmt.Errorf("%w: host does not expose loader internals", domain.ErrPrivilegeUnavailable)
	}
	if handle == nil {
		return nil, fmt.Errorf("%w: nil plugin handle", domain.ErrPrivilegeUnavailable)
	}
	l, ok := h.loaders[handle.PluginName()]
	if !ok {
		return nil, fmt.Errorf("%w: plugin %q was not loaded by this host", domain.ErrPrivilegeUnavailable, handle.PluginName())
	}
	return &ports.LoaderAccess{
		Archive:     l.archive,
		Cache:       cacheTable{l},
		Definer:     l,
		Description: l.desc,
		Processor:   h.processor,
	}, nil
}

// Loader resolves modules of one plugin.
type Loader struct {
	host    *Host
	desc    domain.PluginDescription
	archive ports.Archive

	mu          sync.Mutex
	cache       map[string]domain.Module
	resolutions int
}

// PluginName implements ports.PluginHandle.
func (l *Loader) PluginName() string {
	return l.desc.Name
}

// Define validates data as a module named name and returns it as active.
// It does not touch the cache.
func (l *Loader) Define(name string, data []byte) (domain.Module, error) {
	c, err := classfile.Decode(data)
	if err != nil {
		return domain.Module{}, fmt.Errorf("define %s: %w", name, err)
	}
	if got := strings.ReplaceAll(c.Name(), "/", "."); got != name {
		return domain.Module{}, fmt.Errorf("define %s: bytes declare %s", name, got)
	}
	return domain.Module{Name: name, Bytes: data}, nil
}

// Resolve returns the module for name, consulting the cache before falling
// back to reading, transforming, and defining the archive entry.
func (l *Loader) Resolve(name string) (domain.Module, error) {
	l.mu.Lock()
	if m, ok := l.cache[name]; ok {
		l.mu.Unlock()
		return m, nil
	}
	l.mu.Unlock()

	entry := strings.ReplaceAll(name, ".", "/") + ClassSuffix
	raw, err := readEntry(l.archive, entry)
	if err != nil {
		return domain.Module{}, err
	}
	data, err := l.host.Activate(name, raw)
	if err != nil {
		return domain.Module{}, err
	}
	m, err := l.Define(name, data)
	if err != nil {
		return domain.Module{}, err
	}
	m.Origin = entry

	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolutions++
	if existing, ok := l.cache[name]; ok {
		return existing, nil
	}
	l.cache[name] = m
	return m, nil
}

// Resolutions reports how many modules went through default resolution.
func (l *Loader) Resolutions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolutions
}

// Cached reports the cache slot for name without resolving.
func (l *Loader) Cached(name string) (domain.Module, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.cache[name]
	return m, ok
}

func readEntry(a ports.Archive, entry string) ([]byte, error) {
	rc, err := a.Open(entry)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &domain.ResourceError{Name: entry, Kind: domain.ErrIO, Err: err}
	}
	return data, nil
}

// cacheTable is the privileged view of a loader's cache.
type cacheTable struct{ l *Loader }

func (t cacheTable) Put(name string, m domain.Module) error {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	t.l.cache[name] = m
	return nil
}
