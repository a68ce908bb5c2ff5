package cliconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/compatre/pkg/compatre"
	"github.com/bft-labs/compatre/pkg/remap"
)

// Config holds CLI configuration for compatre.
type Config struct {
	// HostPackage is the host implementation package the version token is
	// read from, e.g. org.bukkit.craftbukkit.v1_16_R2.
	HostPackage string

	// ServerJar is a server archive to probe when HostPackage is unset.
	ServerJar string

	Marker string
	Roots  []string
	Suffix string

	OutDir   string
	Watch    bool
	Debounce time.Duration

	LogLevel string
	JSONLogs bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Marker:   compatre.DefaultMarker,
		Roots:    append([]string(nil), remap.DefaultRoots...),
		Suffix:   compatre.DefaultEntrySuffix,
		Debounce: 200 * time.Millisecond,
		LogLevel: "info",
	}
}

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks the configuration for errors and normalizes roots.
func (c *Config) Validate() error {
	if c.Marker == "" {
		return fmt.Errorf("marker is required")
	}
	if len(c.Roots) == 0 {
		return fmt.Errorf("at least one root is required")
	}
	for i, root := range c.Roots {
		root = remap.NormalizeRoot(root)
		if root == "" {
			return fmt.Errorf("root %d is empty", i)
		}
		c.Roots[i] = root
	}
	if c.Suffix == "" {
		c.Suffix = compatre.DefaultEntrySuffix
	}
	if !logLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Watch && c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}
	return nil
}

// Library converts the CLI configuration to the library's Config.
func (c Config) Library() compatre.Config {
	return compatre.Config{
		Marker:      c.Marker,
		Roots:       append([]string(nil), c.Roots...),
		EntrySuffix: c.Suffix,
		HostPackage: c.HostPackage,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings replaces a list if the new one is not empty and flag not changed.
func (s *configSetter) setStrings(flag string, values []string, dst *[]string) {
	if len(values) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), values...)
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

// splitList splits a comma separated environment value.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
