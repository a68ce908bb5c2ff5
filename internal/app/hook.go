package app

import (
	"fmt"

	"github.com/bft-labs/compatre/internal/ports"
)

// LoadHook routes every module the host is about to activate through the
// Pipeline. It is the primary interception strategy.
type LoadHook struct {
	pipeline *Pipeline
	logger   ports.Logger
}

// NewLoadHook creates a hook for pipeline.
func NewLoadHook(pipeline *Pipeline, logger ports.Logger) *LoadHook {
	if logger == nil {
		logger = noopLogger{}
	}
	return &LoadHook{pipeline: pipeline, logger: logger}
}

// Install registers the hook with the host. Registration happens once at
// bootstrap; the host owns the registration afterwards.
func (h *LoadHook) Install(registry ports.TransformerRegistry) error {
	if err := registry.AddTransformer(h.Transform); err != nil {
		return fmt.Errorf("register load hook: %w", err)
	}
	h.logger.Info("load hook installed", ports.String("marker", h.pipeline.Marker()))
	return nil
}

// Transform is the registered callback. A failure, including a panic, is
// returned as that module's load error and never affects other loads.
func (h *LoadHook) Transform(name string, data []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("transform %s: panic: %v", name, r)
		}
		if err != nil {
			h.logger.Error("module transform failed", ports.String("module", name), ports.Err(err))
		}
	}()

	out, _, err = h.pipeline.TransformNamed(name, data)
	return out, err
}
