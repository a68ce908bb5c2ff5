package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	HostPackage string   `toml:"host_package"`
	ServerJar   string   `toml:"server_jar"`
	Marker      string   `toml:"marker"`
	Roots       []string `toml:"roots"`
	Suffix      string   `toml:"suffix"`
	OutDir      string   `toml:"out_dir"`
	Watch       *bool    `toml:"watch"`
	Debounce    string   `toml:"debounce"`
	LogLevel    string   `toml:"log_level"`
	JSONLogs    *bool    `toml:"json_logs"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.compatre/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".compatre", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host-package", fc.HostPackage, &cfg.HostPackage)
	s.setString("server-jar", fc.ServerJar, &cfg.ServerJar)
	s.setString("marker", fc.Marker, &cfg.Marker)
	s.setStrings("root", fc.Roots, &cfg.Roots)
	s.setString("suffix", fc.Suffix, &cfg.Suffix)
	s.setString("out-dir", fc.OutDir, &cfg.OutDir)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("debounce", fc.Debounce, &cfg.Debounce); err != nil {
		return err
	}

	s.setBool("watch", fc.Watch, &cfg.Watch)
	s.setBool("json-logs", fc.JSONLogs, &cfg.JSONLogs)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
