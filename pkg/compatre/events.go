package compatre

import "github.com/bft-labs/compatre/internal/app"

// State is the lifecycle state of a Compatre instance.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns the state name.
func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// ModuleRewrittenEvent is emitted for every module whose symbol references
// were rewritten, by the load hook or by injection.
type ModuleRewrittenEvent struct {
	Module  string
	Symbols int
}

// InjectedEvent is emitted after an injection run, successful or not.
type InjectedEvent struct {
	Report Report
	Err    error
}

// EventHandler receives notifications. Methods are called synchronously
// from the goroutine doing the work and must return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnModuleRewritten(ModuleRewrittenEvent)
	OnInjected(InjectedEvent)
}

// NoopEventHandler ignores every event. Embed it to implement only some
// methods of EventHandler.
type NoopEventHandler struct{}

func (NoopEventHandler) OnStateChange(StateChangeEvent)         {}
func (NoopEventHandler) OnModuleRewritten(ModuleRewrittenEvent) {}
func (NoopEventHandler) OnInjected(InjectedEvent)               {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnModuleRewritten(name string, symbols int) {
	if e.handler == nil {
		return
	}
	e.handler.OnModuleRewritten(ModuleRewrittenEvent{Module: name, Symbols: symbols})
}

func (e *eventEmitterWrapper) OnInjected(report Report, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnInjected(InjectedEvent{Report: report, Err: err})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
