package compatre

import (
	"github.com/bft-labs/compatre/internal/app"
	"github.com/bft-labs/compatre/internal/domain"
	"github.com/bft-labs/compatre/internal/ports"
	"github.com/bft-labs/compatre/pkg/log"
)

// Host-facing types. Hosts implement these to let compatre intercept module
// loading or override a loader's resolved cache.
type (
	// TransformFunc is the per-module load callback registered with a host.
	TransformFunc = ports.TransformFunc

	// TransformerRegistry accepts load callbacks.
	TransformerRegistry = ports.TransformerRegistry

	// PluginHandle identifies a loaded plugin.
	PluginHandle = ports.PluginHandle

	// PrivilegedAccessor hands out a plugin loader's internals.
	PrivilegedAccessor = ports.PrivilegedAccessor

	// LoaderAccess is the capability returned by a PrivilegedAccessor.
	LoaderAccess = ports.LoaderAccess

	// Archive is a plugin archive.
	Archive = ports.Archive

	// OverrideTable is a loader's resolved-module cache.
	OverrideTable = ports.OverrideTable

	// ModuleDefiner turns bytes into an active module.
	ModuleDefiner = ports.ModuleDefiner

	// ModuleProcessor is host preprocessing applied before remapping.
	ModuleProcessor = ports.ModuleProcessor

	// TokenSource yields the running host's version token.
	TokenSource = app.TokenSource

	// Report summarizes one injection run.
	Report = app.Report
)

// Domain types.
type (
	Module            = domain.Module
	PluginDescription = domain.PluginDescription
	VersionToken      = domain.VersionToken
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// Errors returned by compatre. Check them with errors.Is.
var (
	ErrBinaryFormat         = domain.ErrBinaryFormat
	ErrResourceNotFound     = domain.ErrResourceNotFound
	ErrIO                   = domain.ErrIO
	ErrPrivilegeUnavailable = domain.ErrPrivilegeUnavailable
	ErrUnsupportedHost      = domain.ErrUnsupportedHost
	ErrInvalidConfig        = domain.ErrInvalidConfig
	ErrAlreadyRunning       = domain.ErrAlreadyRunning
	ErrNotRunning           = domain.ErrNotRunning
)
