// Package archivewatcher re-runs an action whenever a plugin archive is
// rewritten on disk. The CLI uses it to keep an injected module directory
// in sync with the archive it was produced from.
package archivewatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/compatre/pkg/compatre"
	"github.com/bft-labs/compatre/pkg/log"
)

// Action is run for the watched archive after it changed.
type Action func(ctx context.Context, path string) error

// Plugin watches one archive file. The parent directory is watched rather
// than the file so that archives replaced by rename are still seen.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	path          string
	action        Action
	runOnStart    bool
	debounceDelay time.Duration
	retryInterval time.Duration
	maxAttempts   int

	// Runtime state
	logger compatre.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
	runs   int
}

// Config holds configuration options for the archive watcher plugin.
type Config struct {
	// Path is the archive to watch.
	Path string

	// OnChange is run after every debounced change.
	OnChange Action

	// RunOnStart runs OnChange once during Initialize.
	RunOnStart bool

	// DebounceDelay is the quiet period after the last change before
	// OnChange runs.
	// Default: 200 milliseconds
	DebounceDelay time.Duration

	// RetryInterval is the delay between attempts when OnChange fails,
	// for example because the archive is still being written.
	// Default: 1 second
	RetryInterval time.Duration

	// MaxAttempts bounds the attempts per change.
	// Default: 3
	MaxAttempts int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 200 * time.Millisecond,
		RetryInterval: time.Second,
		MaxAttempts:   3,
	}
}

// New creates a new archive watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	def := DefaultConfig()
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = def.DebounceDelay
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}

	return &Plugin{
		path:          cfg.Path,
		action:        cfg.OnChange,
		runOnStart:    cfg.RunOnStart,
		debounceDelay: cfg.DebounceDelay,
		retryInterval: cfg.RetryInterval,
		maxAttempts:   cfg.MaxAttempts,
		logger:        log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "archivewatcher"
}

// Initialize starts watching the archive.
func (p *Plugin) Initialize(ctx context.Context, cfg compatre.PluginConfig) error {
	p.mu.Lock()
	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}
	p.mu.Unlock()

	if p.path == "" || p.action == nil {
		p.logger.Warn("archive watcher disabled: no archive or action configured")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("archive watcher plugin initialized", log.String("archive", p.path))

	if p.runOnStart {
		p.runWithRetry(watchCtx)
	}

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	return nil
}

// Shutdown stops the watcher and waits for a running action to finish.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// Runs reports how many times the action succeeded.
func (p *Plugin) Runs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.path)
	var debounce *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(p.debounceDelay)
			fire = debounce.C

		case <-fire:
			fire = nil
			p.runWithRetry(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("archive watcher error", log.Err(err))
		}
	}
}

// runWithRetry runs the action until it succeeds, the attempts are used up,
// or ctx is cancelled.
func (p *Plugin) runWithRetry(ctx context.Context) {
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return
		}
		err := p.action(ctx, p.path)
		if err == nil {
			p.mu.Lock()
			p.runs++
			p.mu.Unlock()
			p.logger.Info("archive processed", log.String("archive", p.path), log.Int("attempt", attempt))
			return
		}

		p.logger.Error("archive processing failed",
			log.String("archive", p.path),
			log.Int("attempt", attempt),
			log.Err(err))
		if attempt >= p.maxAttempts {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.retryInterval):
		}
	}
}

// Ensure Plugin implements compatre.Plugin.
var _ compatre.Plugin = (*Plugin)(nil)
