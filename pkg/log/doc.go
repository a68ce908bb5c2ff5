// Package log provides the logging abstraction used across compatre.
//
// Components log through the [Logger] interface so that embedders can route
// compatre's output into whatever logging library the host process already
// uses. A zerolog-backed implementation and a no-op implementation ship with
// the package.
//
//	logger := log.NewZerologAdapter(log.Options{Level: "debug"})
//	logger.Info("module rewritten", log.String("module", name), log.Int("symbols", n))
//
// The no-op logger is the default everywhere a Logger is optional.
package log
