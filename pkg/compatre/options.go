package compatre

import (
	"github.com/bft-labs/compatre/pkg/hostversion"
)

// Option configures optional behavior of Compatre.
type Option func(*options)

// options holds the optional configuration for a Compatre instance.
type options struct {
	logger       Logger
	probe        hostversion.Probe
	tokens       TokenSource
	processor    ModuleProcessor
	eventHandler EventHandler
	plugins      []Plugin
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProbe sets the probe the host version token is read from.
// It takes precedence over Config.HostPackage.
func WithProbe(probe hostversion.Probe) Option {
	return func(o *options) {
		o.probe = probe
	}
}

// WithResolver supplies the version token source directly, for example a
// *hostversion.Resolver shared between instances. It takes precedence over
// WithProbe and Config.HostPackage.
func WithResolver(tokens TokenSource) Option {
	return func(o *options) {
		o.tokens = tokens
	}
}

// WithProcessor sets the preprocessing step injection applies to marked
// modules when the host's own loader access does not provide one.
func WithProcessor(p ModuleProcessor) Option {
	return func(o *options) {
		o.processor = p
	}
}

// WithEventHandler sets a handler for compatre events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when Compatre starts.
// Plugins are initialized in registration order and shut down in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
