package cliconfig

import (
	"fmt"

	"github.com/bft-labs/compatre/internal/adapters/ziparchive"
)

// LoadHostInfo fills HostPackage from the server archive when it is not
// already set.
func LoadHostInfo(cfg *Config) error {
	if cfg.HostPackage != "" {
		return nil
	}
	if cfg.ServerJar == "" {
		return fmt.Errorf("host-package is required (or server-jar)")
	}
	pkg, err := ziparchive.ServerProbe(cfg.ServerJar)()
	if err != nil {
		return fmt.Errorf("read host package: %w", err)
	}
	cfg.HostPackage = pkg
	return nil
}
