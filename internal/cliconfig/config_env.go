package cliconfig

import "os"

// EnvPrefix prefixes every environment variable compatre reads.
const EnvPrefix = "COMPATRE_"

// ApplyEnvConfig applies COMPATRE_* environment variables to cfg.
// Environment values override the config file but never an explicitly set
// flag. List values (COMPATRE_ROOTS) are comma separated.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("host-package", env("HOST_PACKAGE"), &cfg.HostPackage)
	s.setString("server-jar", env("SERVER_JAR"), &cfg.ServerJar)
	s.setString("marker", env("MARKER"), &cfg.Marker)
	s.setStrings("root", splitList(env("ROOTS")), &cfg.Roots)
	s.setString("suffix", env("SUFFIX"), &cfg.Suffix)
	s.setString("out-dir", env("OUT_DIR"), &cfg.OutDir)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("debounce", env("DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}

	s.setBoolFromString("watch", env("WATCH"), &cfg.Watch)
	s.setBoolFromString("json-logs", env("JSON_LOGS"), &cfg.JSONLogs)

	return nil
}
