package ports

import "github.com/bft-labs/compatre/pkg/log"

// Logger is the structured logging port.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors re-exported for internal callers.
var (
	String  = log.String
	Strings = log.Strings
	Int     = log.Int
	Bool    = log.Bool
	Err     = log.Err
	Any     = log.Any
)
