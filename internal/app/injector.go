package app

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bft-labs/compatre/internal/domain"
	"github.com/bft-labs/compatre/internal/ports"
)

// DefaultEntrySuffix selects the archive entries that hold modules.
const DefaultEntrySuffix = ".class"

// Report summarizes one injection run.
type Report struct {
	Plugin string

	// Scanned counts archive entries with the module suffix.
	Scanned int

	// Injected lists binary names whose cache slot was overwritten.
	Injected []string

	// Failed maps archive entries to the error that stopped them.
	Failed map[string]error
}

// Err joins the per-entry failures in entry order, or returns nil.
func (r Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.Failed))
	for name := range r.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	errs := make([]error, 0, len(names))
	for _, name := range names {
		errs = append(errs, fmt.Errorf("%s: %w", name, r.Failed[name]))
	}
	return errors.Join(errs...)
}

// Injector is the fallback strategy for plugins whose loader was created
// before the load hook could be installed. It reads marked modules straight
// from the plugin archive, transforms and defines them, and overwrites the
// loader's resolved cache so later lookups never reach the original bytes.
//
// Inject mutates host-owned state without locking. It must complete before
// the host starts resolving the plugin's modules concurrently.
type Injector struct {
	pipeline *Pipeline
	accessor ports.PrivilegedAccessor
	suffix   string
	logger   ports.Logger
}

// NewInjector creates an Injector. An empty suffix means DefaultEntrySuffix.
func NewInjector(pipeline *Pipeline, accessor ports.PrivilegedAccessor, suffix string, logger ports.Logger) *Injector {
	if suffix == "" {
		suffix = DefaultEntrySuffix
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Injector{pipeline: pipeline, accessor: accessor, suffix: suffix, logger: logger}
}

// Inject runs the override for one plugin. Privilege or host-version
// failures abort before anything is written. Per-entry failures are
// collected in the report and returned joined once every entry was tried.
func (i *Injector) Inject(handle ports.PluginHandle) (Report, error) {
	access, err := i.acquire(handle)
	if err != nil {
		return Report{}, err
	}

	report := Report{Plugin: access.Description.Name, Failed: make(map[string]error)}
	if _, err := i.pipeline.tokens.Resolve(); err != nil {
		return report, err
	}

	i.logger.Info("injecting marked modules",
		ports.String("plugin", report.Plugin),
		ports.String("archive", access.Description.ArchivePath),
	)

	for _, entry := range access.Archive.Entries() {
		if !strings.HasSuffix(entry, i.suffix) {
			continue
		}
		report.Scanned++

		name, err := i.injectEntry(access, entry)
		if err != nil {
			report.Failed[entry] = err
			i.logger.Warn("module injection failed", ports.String("entry", entry), ports.Err(err))
			continue
		}
		if name != "" {
			report.Injected = append(report.Injected, name)
		}
	}

	i.logger.Info("injection complete",
		ports.String("plugin", report.Plugin),
		ports.Int("scanned", report.Scanned),
		ports.Int("injected", len(report.Injected)),
		ports.Int("failed", len(report.Failed)),
	)
	return report, report.Err()
}

func (i *Injector) acquire(handle ports.PluginHandle) (*ports.LoaderAccess, error) {
	if i.accessor == nil {
		return nil, fmt.Errorf("%w: no privileged accessor", domain.ErrPrivilegeUnavailable)
	}
	access, err := i.accessor.Acquire(handle)
	if err != nil {
		if errors.Is(err, domain.ErrPrivilegeUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPrivilegeUnavailable, err)
	}
	if access == nil || access.Archive == nil || access.Cache == nil || access.Definer == nil {
		return nil, fmt.Errorf("%w: host loader does not expose archive, cache and definer", domain.ErrPrivilegeUnavailable)
	}
	return access, nil
}

// injectEntry returns the binary name it injected, or "" for an unmarked
// entry left to ordinary resolution.
func (i *Injector) injectEntry(access *ports.LoaderAccess, entry string) (string, error) {
	data, err := readAll(access.Archive, entry)
	if err != nil {
		return "", err
	}

	marked, err := i.pipeline.Marked(data)
	if err != nil || !marked {
		return "", err
	}

	name := domain.BinaryName(entry, i.suffix)
	if access.Processor != nil {
		data, err = access.Processor.Process(access.Description, entry, data)
		if err != nil {
			return "", fmt.Errorf("host preprocessing: %w", err)
		}
	}

	out, rewritten, err := i.pipeline.TransformNamed(name, data)
	if err != nil {
		return "", err
	}

	module, err := access.Definer.Define(name, out)
	if err != nil {
		return "", err
	}
	module.Origin = entry
	module.Rewritten = rewritten
	if err := access.Cache.Put(name, module); err != nil {
		return "", fmt.Errorf("override cache slot %s: %w", name, err)
	}

	i.logger.Debug("module injected", ports.String("module", name), ports.Bool("rewritten", rewritten))
	return name, nil
}

func readAll(a ports.Archive, entry string) ([]byte, error) {
	rc, err := a.Open(entry)
	if err != nil {
		if errors.Is(err, domain.ErrResourceNotFound) || errors.Is(err, domain.ErrIO) {
			return nil, err
		}
		return nil, &domain.ResourceError{Name: entry, Kind: domain.ErrIO, Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &domain.ResourceError{Name: entry, Kind: domain.ErrIO, Err: err}
	}
	return data, nil
}
