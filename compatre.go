// Package compatre keeps plugins built against one server build loading on
// other builds by rewriting the version segment of server references in
// modules that carry the marker annotation.
//
// Example usage:
//
//	c, err := compatre.New(compatre.Config{
//	    HostPackage: "org.bukkit.craftbukkit.v1_16_R2",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := c.Transform(module)
//
// The full API, including the load hook and cache injection, lives in
// github.com/bft-labs/compatre/pkg/compatre.
package compatre

import (
	"github.com/bft-labs/compatre/pkg/compatre"
	"github.com/bft-labs/compatre/pkg/remap"
)

// Config holds the configuration of a Compatre instance.
type Config = compatre.Config

// Compatre rewrites marked modules for the running host.
type Compatre = compatre.Compatre

// Option configures optional behavior of Compatre.
type Option = compatre.Option

// DefaultMarker is the descriptor of the opt-in annotation.
const DefaultMarker = compatre.DefaultMarker

// New creates a Compatre instance.
func New(cfg Config, opts ...Option) (*Compatre, error) {
	return compatre.New(cfg, opts...)
}

// DefaultConfig returns a Config with sensible defaults. Set HostPackage
// before transforming marked modules.
func DefaultConfig() Config {
	return compatre.DefaultConfig()
}

// Remap rewrites the version segment of one internal name or descriptor to
// target, e.g. Remap("net/minecraft/server/v1_8_R3/World", "v1_16_R2").
func Remap(path, target string) string {
	return remap.Rewrite(path, target)
}
