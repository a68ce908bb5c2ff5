package compatre

import (
	"context"
	"sync"

	"github.com/bft-labs/compatre/internal/app"
	"github.com/bft-labs/compatre/internal/ports"
	"github.com/bft-labs/compatre/pkg/hostversion"
	"github.com/bft-labs/compatre/pkg/log"
)

// Compatre rewrites version-qualified symbol references in marked modules.
// Use New() to create an instance. Transform, HasMarker, Install and Inject
// can be used right away; Start and Stop only manage plugins.
type Compatre struct {
	config    Config
	opts      options
	logger    ports.Logger
	tokens    TokenSource
	emitter   *eventEmitterWrapper
	pipeline  *app.Pipeline
	hook      *app.LoadHook
	lifecycle *app.Lifecycle

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a new Compatre instance with the given configuration.
// The instance is created in StateStopped.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Compatre, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var logger ports.Logger = log.NewNoopLogger()
	if o.logger != nil {
		logger = o.logger
	}

	tokens := o.tokens
	if tokens == nil {
		probe := o.probe
		if probe == nil {
			// An empty package resolves to ErrUnsupportedHost on first use,
			// so instances that never meet a marked module need no host.
			probe = hostversion.Static(cfg.HostPackage)
		}
		tokens = hostversion.New(probe)
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	pipeline, err := app.NewPipeline(app.PipelineConfig{
		Marker:   cfg.Marker,
		Roots:    cfg.Roots,
		Tokens:   tokens,
		Logger:   logger,
		Observer: emitter,
	})
	if err != nil {
		return nil, err
	}

	return &Compatre{
		config:    cfg,
		opts:      o,
		logger:    logger,
		tokens:    tokens,
		emitter:   emitter,
		pipeline:  pipeline,
		hook:      app.NewLoadHook(pipeline, logger),
		lifecycle: app.NewLifecycle(logger, emitter),
	}, nil
}

// Config returns the effective configuration.
func (c *Compatre) Config() Config {
	return c.config
}

// Version resolves the host version token.
func (c *Compatre) Version() (VersionToken, error) {
	return c.tokens.Resolve()
}

// HasMarker reports whether data is a module carrying the marker.
// Malformed data is an error wrapping ErrBinaryFormat.
func (c *Compatre) HasMarker(data []byte) (bool, error) {
	return c.pipeline.HasMarker(data)
}

// Transform returns data itself for unmarked modules and the remapped
// module for marked ones.
func (c *Compatre) Transform(data []byte) ([]byte, error) {
	return c.pipeline.Transform(data)
}

// Install registers the load hook with the host. Call it once, before the
// host loads plugins.
func (c *Compatre) Install(registry TransformerRegistry) error {
	return c.hook.Install(registry)
}

// TransformFunc returns the load callback Install registers, for hosts that
// wire it themselves.
func (c *Compatre) TransformFunc() TransformFunc {
	return c.hook.Transform
}

// Inject overrides the resolved cache of an already created plugin loader
// with transformed versions of the plugin's marked modules. It must finish
// before the host resolves that plugin's modules concurrently.
func (c *Compatre) Inject(accessor PrivilegedAccessor, handle PluginHandle) (Report, error) {
	if accessor != nil && c.opts.processor != nil {
		accessor = processorAccessor{accessor: accessor, processor: c.opts.processor}
	}
	injector := app.NewInjector(c.pipeline, accessor, c.config.EntrySuffix, c.logger)
	report, err := injector.Inject(handle)
	c.emitter.OnInjected(report, err)
	return report, err
}

// Start initializes plugins and moves the instance to StateRunning.
// The context bounds the lifetime of plugin background work.
func (c *Compatre) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	pluginCfg := PluginConfig{Config: c.config, Logger: c.logger, Compatre: c}
	for i, p := range c.opts.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			c.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			c.shutdownPlugins(c.opts.plugins[:i])
			_ = c.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		c.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	return c.lifecycle.TransitionTo(app.StateRunning, "plugins initialized")
}

// Stop shuts plugins down in reverse order and moves the instance to
// StateStopped. Returns ErrNotRunning if the instance is not running.
func (c *Compatre) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStop() {
		return ErrNotRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		return err
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.shutdownPlugins(c.opts.plugins)

	return c.lifecycle.TransitionTo(app.StateStopped, "plugins shut down")
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (c *Compatre) Status() State {
	return convertState(c.lifecycle.State())
}

func (c *Compatre) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			c.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			c.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}
}

// processorAccessor fills in a preprocessing step the host does not provide.
type processorAccessor struct {
	accessor  PrivilegedAccessor
	processor ModuleProcessor
}

func (a processorAccessor) Acquire(handle PluginHandle) (*LoaderAccess, error) {
	access, err := a.accessor.Acquire(handle)
	if err != nil || access == nil || access.Processor != nil {
		return access, err
	}
	withProcessor := *access
	withProcessor.Processor = a.processor
	return &withProcessor, nil
}
