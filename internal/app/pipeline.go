package app

import (
	"bytes"
	"fmt"

	"github.com/bft-labs/compatre/internal/domain"
	"github.com/bft-labs/compatre/internal/ports"
	"github.com/bft-labs/compatre/pkg/classfile"
	"github.com/bft-labs/compatre/pkg/remap"
)

// DefaultMarker is the type descriptor of the opt-in annotation.
const DefaultMarker = "Lcom/github/johnnyjayjay/compatre/NmsDependent;"

// TokenSource yields the running host's version token.
type TokenSource interface {
	Resolve() (domain.VersionToken, error)
}

// RewriteObserver is told about every module the pipeline rewrites.
type RewriteObserver interface {
	OnModuleRewritten(name string, symbols int)
}

// Pipeline decodes a module once, checks for the marker, and remaps symbol
// references of marked modules to the current version token. It holds no
// mutable state and is safe for concurrent use.
type Pipeline struct {
	marker   string
	needle   []byte
	matcher  *remap.Matcher
	tokens   TokenSource
	logger   ports.Logger
	observer RewriteObserver
}

// PipelineConfig configures NewPipeline.
type PipelineConfig struct {
	// Marker is the annotation descriptor. Empty means DefaultMarker.
	Marker string

	// Roots are the namespace roots to rewrite. Empty means remap.DefaultRoots.
	Roots []string

	Tokens   TokenSource
	Logger   ports.Logger
	Observer RewriteObserver
}

// NewPipeline builds a Pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("%w: pipeline needs a token source", domain.ErrInvalidConfig)
	}
	if cfg.Marker == "" {
		cfg.Marker = DefaultMarker
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	// The marker's UTF8 constant is stored as-is in the pool, so its absence
	// from the raw bytes proves the module is unmarked.
	needle := []byte(cfg.Marker)
	return &Pipeline{
		marker:   cfg.Marker,
		needle:   needle,
		matcher:  remap.NewMatcher(cfg.Roots...),
		tokens:   cfg.Tokens,
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}, nil
}

// Marker returns the annotation descriptor the pipeline looks for.
func (p *Pipeline) Marker() string { return p.marker }

// HasMarker decodes data and reports whether the module carries the marker.
// Malformed data yields domain.ErrBinaryFormat, never false.
func (p *Pipeline) HasMarker(data []byte) (bool, error) {
	return classfile.HasAnnotation(data, p.marker)
}

// Marked is HasMarker behind the same raw-byte prefilter Transform uses:
// data that cannot contain the marker is reported unmarked without decoding.
func (p *Pipeline) Marked(data []byte) (bool, error) {
	if !bytes.Contains(data, p.needle) {
		return false, nil
	}
	return p.HasMarker(data)
}

// Transform returns data unchanged (the same slice) for unmarked modules and
// the remapped encoding for marked ones.
func (p *Pipeline) Transform(data []byte) ([]byte, error) {
	out, _, err := p.transform("", data)
	return out, err
}

// TransformNamed is Transform with the module name used for logging and
// observation. It also reports whether any symbol was rewritten.
func (p *Pipeline) TransformNamed(name string, data []byte) ([]byte, bool, error) {
	return p.transform(name, data)
}

func (p *Pipeline) transform(name string, data []byte) ([]byte, bool, error) {
	if !bytes.Contains(data, p.needle) {
		return data, false, nil
	}

	c, err := classfile.Decode(data)
	if err != nil {
		return nil, false, err
	}
	if !c.HasAnnotation(p.marker) {
		return data, false, nil
	}
	if name == "" {
		name = c.Name()
	}

	token, err := p.tokens.Resolve()
	if err != nil {
		return nil, false, err
	}
	rule := p.matcher.Rule(token.String())

	out, n, err := c.Remap(rule.RewriteSymbol)
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		p.logger.Debug("marked module has no versioned symbols", ports.String("module", name))
		return data, false, nil
	}

	p.logger.Debug("module rewritten",
		ports.String("module", name),
		ports.String("version", rule.Target()),
		ports.Int("symbols", n),
	)
	if p.observer != nil {
		p.observer.OnModuleRewritten(name, n)
	}
	return out, true, nil
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, fields ...ports.Field) {}
func (noopLogger) Info(msg string, fields ...ports.Field)  {}
func (noopLogger) Warn(msg string, fields ...ports.Field)  {}
func (noopLogger) Error(msg string, fields ...ports.Field) {}
