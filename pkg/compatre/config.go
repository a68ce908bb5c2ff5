package compatre

import (
	"fmt"
	"strings"

	"github.com/bft-labs/compatre/internal/app"
	"github.com/bft-labs/compatre/internal/domain"
	"github.com/bft-labs/compatre/pkg/remap"
)

// DefaultMarker is the descriptor of the annotation that opts a module in.
const DefaultMarker = app.DefaultMarker

// DefaultEntrySuffix selects module entries inside a plugin archive.
const DefaultEntrySuffix = app.DefaultEntrySuffix

// Config holds the settings of a Compatre instance.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// Marker is the type descriptor of the opt-in annotation,
	// e.g. "Lcom/github/johnnyjayjay/compatre/NmsDependent;".
	Marker string

	// Roots are the namespace roots whose version segment is rewritten.
	// Default: net/minecraft/server and org/bukkit/craftbukkit
	Roots []string

	// EntrySuffix selects the archive entries scanned during injection.
	// Default: ".class"
	EntrySuffix string

	// HostPackage is the host implementation package the version token is
	// read from, e.g. "org.bukkit.craftbukkit.v1_16_R2". It is only used
	// when no probe or resolver is supplied through options.
	HostPackage string
}

// DefaultConfig returns a Config with default marker, roots and suffix.
func DefaultConfig() Config {
	return Config{
		Marker:      DefaultMarker,
		Roots:       append([]string(nil), remap.DefaultRoots...),
		EntrySuffix: DefaultEntrySuffix,
	}
}

// SetDefaults fills empty fields with their defaults.
func (c *Config) SetDefaults() {
	if c.Marker == "" {
		c.Marker = DefaultMarker
	}
	if len(c.Roots) == 0 {
		c.Roots = append([]string(nil), remap.DefaultRoots...)
	}
	if c.EntrySuffix == "" {
		c.EntrySuffix = DefaultEntrySuffix
	}
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if len(c.Marker) < 3 || !strings.HasPrefix(c.Marker, "L") || !strings.HasSuffix(c.Marker, ";") {
		return fmt.Errorf("%w: marker %q is not a type descriptor", domain.ErrInvalidConfig, c.Marker)
	}
	for _, root := range c.Roots {
		root = remap.NormalizeRoot(root)
		if root == "" || strings.ContainsAny(root, ". ;") {
			return fmt.Errorf("%w: root %q is not an internal package name", domain.ErrInvalidConfig, root)
		}
	}
	if c.EntrySuffix == "" {
		return fmt.Errorf("%w: entry suffix is empty", domain.ErrInvalidConfig)
	}
	return nil
}
