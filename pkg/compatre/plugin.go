package compatre

import "context"

// Plugin extends a long-running Compatre instance. Plugins are initialized by
// Start and shut down by Stop.
type Plugin interface {
	// Name returns a short identifier used in logs.
	Name() string

	// Initialize starts the plugin. Background work must stop when ctx is
	// cancelled or Shutdown is called.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and waits for its background work.
	Shutdown(ctx context.Context) error
}

// PluginConfig is passed to Plugin.Initialize.
type PluginConfig struct {
	Config Config
	Logger Logger

	// Compatre is the instance the plugin belongs to.
	Compatre *Compatre
}
