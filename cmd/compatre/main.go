package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/compatre/internal/cliconfig"
	"github.com/bft-labs/compatre/pkg/compatre"
	logAdapter "github.com/bft-labs/compatre/pkg/log"
)

const helpDescription = `
Keep plugins built against one server build loading on another.

Modules annotated with the marker have every version-qualified reference
under net/minecraft/server and org/bukkit/craftbukkit rewritten to the
running server's version, e.g. v1_8_R3 becomes v1_16_R2.

Highlights:
  - Unmarked modules are never touched.
  - The host version is read from --host-package or probed from --server-jar.
  - Configure via file ($HOME/.compatre/config.toml), COMPATRE_* env, or flags.
`

var exampleUsage = strings.TrimSpace(`
  compatre scan plugins/demo.jar
  compatre transform Foo.class -o Foo.remapped.class --host-package org.bukkit.craftbukkit.v1_16_R2
  compatre inject plugins/demo.jar --out-dir build/demo --server-jar spigot.jar --watch
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the resolved configuration and logger shared by subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string

	out    io.Writer
	errOut io.Writer
	logger zerolog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{cfg: cliconfig.DefaultConfig(), out: stdout, errOut: stderr, logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:               "compatre",
		Short:             "Rewrite version-qualified server references in marked plugin modules",
		Long:              strings.TrimSpace(helpDescription),
		Example:           exampleUsage,
		Version:           fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.loadConfig,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.compatre/config.toml)")
	pf.StringVar(&c.cfg.HostPackage, "host-package", c.cfg.HostPackage, "server implementation package carrying the version, e.g. org.bukkit.craftbukkit.v1_16_R2")
	pf.StringVar(&c.cfg.ServerJar, "server-jar", c.cfg.ServerJar, "server archive to read the version from when --host-package is not set")
	pf.StringVar(&c.cfg.Marker, "marker", c.cfg.Marker, "type descriptor of the opt-in annotation")
	pf.StringArrayVar(&c.cfg.Roots, "root", c.cfg.Roots, "namespace root whose version segment is rewritten (repeatable)")
	pf.StringVar(&c.cfg.Suffix, "suffix", c.cfg.Suffix, "suffix of module entries inside archives")
	pf.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	pf.BoolVar(&c.cfg.JSONLogs, "json-logs", c.cfg.JSONLogs, "write logs as JSON lines")

	root.AddCommand(c.scanCmd(), c.transformCmd(), c.injectCmd())
	return root
}

// loadConfig applies the config file, then COMPATRE_* env, under any flag
// set on the command line.
func (c *cli) loadConfig(cmd *cobra.Command, args []string) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.logger = cliconfig.Logger(c.cfg, c.errOut)
	c.logger.Debug().Interface("config", c.cfg).Msg("configuration")
	return nil
}

func (c *cli) newCompatre(opts ...compatre.Option) (*compatre.Compatre, error) {
	opts = append([]compatre.Option{
		compatre.WithLogger(logAdapter.NewZerologAdapterWithLogger(c.logger)),
	}, opts...)
	inst, err := compatre.New(c.cfg.Library(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create compatre: %w", err)
	}
	return inst, nil
}

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		log := cliconfig.Logger(cliconfig.DefaultConfig(), os.Stderr)
		log.Error().Err(err).Msg("compatre")
		os.Exit(1)
	}
}
