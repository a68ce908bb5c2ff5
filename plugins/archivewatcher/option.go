package archivewatcher

import "github.com/bft-labs/compatre/pkg/compatre"

// WithArchiveWatcher returns a compatre Option that enables archive watching.
// The action runs after the archive at cfg.Path changes, once the instance
// has been started.
//
// Usage:
//
//	c, err := compatre.New(cfg,
//	    archivewatcher.WithArchiveWatcher(archivewatcher.Config{
//	        Path:     "plugins/demo.jar",
//	        OnChange: reinject,
//	    }),
//	)
func WithArchiveWatcher(cfg Config) compatre.Option {
	return compatre.WithPlugin(New(cfg))
}
