package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the compatre domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrBinaryFormat is returned when module bytes cannot be decoded.
	ErrBinaryFormat = errors.New("compatre: malformed module binary")

	// ErrResourceNotFound is returned when an expected archive entry or
	// resource is absent.
	ErrResourceNotFound = errors.New("compatre: resource not found")

	// ErrIO is returned when reading an archive or stream fails.
	ErrIO = errors.New("compatre: i/o failure")

	// ErrPrivilegeUnavailable is returned when the privileged loader accessor
	// cannot be obtained. Nothing has been applied when it is returned.
	ErrPrivilegeUnavailable = errors.New("compatre: privileged loader access unavailable")

	// ErrUnsupportedHost is returned when the host version identifier is
	// missing or malformed.
	ErrUnsupportedHost = errors.New("compatre: unsupported host")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("compatre: invalid configuration")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("compatre: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("compatre: not running")
)

// FormatError describes where and why decoding a module failed.
type FormatError struct {
	Offset int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: %s at offset %d", ErrBinaryFormat, e.Reason, e.Offset)
}

// Unwrap returns ErrBinaryFormat.
func (e *FormatError) Unwrap() error { return ErrBinaryFormat }

// ResourceError ties a missing resource or failed read to its name.
type ResourceError struct {
	Name string
	Kind error // ErrResourceNotFound or ErrIO
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Name)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Name, e.Err)
}

// Unwrap exposes both the error kind and the underlying cause.
func (e *ResourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// HostError records the host identifier that could not be interpreted.
type HostError struct {
	Identifier string
	Reason     string
}

func (e *HostError) Error() string {
	if e.Identifier == "" {
		return fmt.Sprintf("%v: %s", ErrUnsupportedHost, e.Reason)
	}
	return fmt.Sprintf("%v: %s (%q)", ErrUnsupportedHost, e.Reason, e.Identifier)
}

// Unwrap returns ErrUnsupportedHost.
func (e *HostError) Unwrap() error { return ErrUnsupportedHost }
