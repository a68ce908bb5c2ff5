package cliconfig

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/bft-labs/compatre/pkg/log"
)

// Logger builds the CLI logger from cfg, writing to out.
func Logger(cfg Config, out io.Writer) zerolog.Logger {
	return log.NewZerologAdapter(log.Options{
		Level: cfg.LogLevel,
		JSON:  cfg.JSONLogs,
		Out:   out,
	}).Logger()
}
