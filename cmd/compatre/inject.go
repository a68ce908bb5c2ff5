package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bft-labs/compatre/internal/adapters/fs"
	"github.com/bft-labs/compatre/internal/adapters/memhost"
	"github.com/bft-labs/compatre/internal/adapters/ziparchive"
	"github.com/bft-labs/compatre/internal/app"
	"github.com/bft-labs/compatre/internal/cliconfig"
	"github.com/bft-labs/compatre/internal/domain"
	"github.com/bft-labs/compatre/pkg/compatre"
	"github.com/bft-labs/compatre/plugins/archivewatcher"
)

func (c *cli) injectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inject <archive>",
		Short: "Load a plugin archive, inject its marked modules, and write them to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.OutDir == "" {
				return fmt.Errorf("out-dir is required")
			}
			if err := cliconfig.LoadHostInfo(&c.cfg); err != nil {
				return err
			}

			if !c.cfg.Watch {
				inst, err := c.newCompatre()
				if err != nil {
					return err
				}
				return c.injectArchive(inst, args[0])
			}
			return c.watch(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVar(&c.cfg.OutDir, "out-dir", c.cfg.OutDir, "directory the injected modules are written to")
	cmd.Flags().BoolVar(&c.cfg.Watch, "watch", c.cfg.Watch, "re-inject whenever the archive changes")
	cmd.Flags().DurationVar(&c.cfg.Debounce, "debounce", c.cfg.Debounce, "quiet period after a change before re-injecting")
	return cmd
}

// injectArchive loads path into a fresh in-memory host and injects it. Every
// overridden cache slot is mirrored to the output directory.
func (c *cli) injectArchive(inst *compatre.Compatre, path string) error {
	a, err := ziparchive.Open(path)
	if err != nil {
		return err
	}
	defer a.Close()

	host := memhost.New()
	desc := domain.PluginDescription{Name: pluginName(path), ArchivePath: path}
	loader, err := host.NewLoader(desc, a)
	if err != nil {
		return err
	}

	accessor := app.MirrorAccessor{Accessor: host, Mirror: fs.NewModuleDirectory(c.cfg.OutDir)}
	report, err := inst.Inject(accessor, loader)
	for _, name := range report.Injected {
		fmt.Fprintln(c.out, name)
	}
	return err
}

func (c *cli) watch(ctx context.Context, path string) error {
	var inst *compatre.Compatre
	run := func(ctx context.Context, path string) error {
		return c.injectArchive(inst, path)
	}

	inst, err := c.newCompatre(archivewatcher.WithArchiveWatcher(archivewatcher.Config{
		Path:          path,
		OnChange:      run,
		RunOnStart:    true,
		DebounceDelay: c.cfg.Debounce,
	}))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := inst.Start(ctx); err != nil {
		return fmt.Errorf("start compatre: %w", err)
	}
	c.logger.Info().Str("archive", path).Msg("watching archive")

	<-ctx.Done()
	c.logger.Info().Msg("received signal, stopping...")

	if err := inst.Stop(); err != nil {
		return fmt.Errorf("stop compatre: %w", err)
	}
	return nil
}

func pluginName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
