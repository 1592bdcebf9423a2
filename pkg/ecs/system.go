package ecs

import (
	"reflect"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// System is a function that contains game logic. It receives a pointer to its state, whose fields
// are bound once when the system is registered.
type System[T any] func(state *T) error

// systemMetadata contains the metadata for a system.
type systemMetadata struct {
	name    string         // The name of the system
	hook    SystemHook     // When the system runs
	fn      func() error   // Function that wraps a System
	queue   *commandQueue  // Command buffer, nil if the system declares no Commands field
	binders []fieldBinder  // Resource fields resolved before the first run
	bound   bool           // Whether binders have been resolved
	logger  zerolog.Logger // Logger tagged with the system name
}

// fieldBinder pairs a resource field with its name for error reporting.
type fieldBinder struct {
	field  string
	binder resourceBinder
}

// bind resolves the required resources of the system.
func (s *systemMetadata) bind() error {
	if s.bound {
		return nil
	}
	for _, fb := range s.binders {
		if err := fb.binder.bind(); err != nil {
			return &SystemValidationError{System: s.name, Field: fb.field, Err: err}
		}
	}
	s.bound = true
	return nil
}

// systemConfig holds all configurable options for system registration.
type systemConfig struct {
	// The hook that determines when the system should be executed.
	hook SystemHook
	// Name override, the function name is used when empty.
	name string
}

// newSystemConfig creates a new system config with default values.
func newSystemConfig() systemConfig {
	return systemConfig{
		hook: Update,
		name: "",
	}
}

// SystemOption is a function that configures a SystemConfig.
type SystemOption func(*systemConfig)

// SystemHook defines when a system should be executed in the update cycle.
type SystemHook uint8

const (
	// PreUpdate runs before the main update.
	PreUpdate SystemHook = 0
	// Update runs during the main update phase.
	Update SystemHook = 1
	// PostUpdate runs after the main update.
	PostUpdate SystemHook = 2
	// Init runs once, at the start of the first tick.
	Init SystemHook = 3
)

func (h SystemHook) String() string {
	switch h {
	case PreUpdate:
		return "pre-update"
	case Update:
		return "update"
	case PostUpdate:
		return "post-update"
	case Init:
		return "init"
	default:
		return "unknown"
	}
}

// WithHook returns an option to set the system hook.
func WithHook(hook SystemHook) SystemOption {
	return func(cfg *systemConfig) { cfg.hook = hook }
}

// WithName returns an option to set the system name. Names must be unique within a world.
func WithName(name string) SystemOption {
	return func(cfg *systemConfig) { cfg.name = name }
}

// RegisterSystem registers a system and its state with the world. By default, systems are
// registered to the Update hook, which can be overridden with the WithHook option. Systems of a hook
// run in registration order.
//
// The state fields are bound and validated here, once. Declarations that could alias the same data
// mutably are rejected with a *SystemValidationError and nothing is registered.
//
// Example:
//
//	type RegenSystemState struct {
//	    ecs.BaseSystemState
//	    Players ecs.Query[struct {
//	        Health ecs.Write[Health]
//	        Tag    ecs.Read[PlayerTag]
//	    }]
//	}
//
//	err := ecs.RegisterSystem(world, func(state *RegenSystemState) error {
//	    // System logic here
//	    return nil
//	})
func RegisterSystem[T any](w *World, system System[T], opts ...SystemOption) error {
	cfg := newSystemConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	name := cfg.name
	if name == "" {
		name = runtime.FuncForPC(reflect.ValueOf(system).Pointer()).Name()
	}
	if _, exists := w.systemNames[name]; exists {
		return &SystemValidationError{System: name, Err: ErrDuplicateSystem}
	}
	if cfg.hook > Init {
		return &SystemValidationError{System: name, Err: eris.Errorf("invalid system hook %d", cfg.hook)}
	}

	stateType := reflect.TypeFor[T]()
	if stateType.Kind() != reflect.Struct {
		return &SystemValidationError{
			System: name,
			Err:    eris.Wrapf(ErrInvalidSystemState, "system state must be a struct, got %s", stateType),
		}
	}

	state := new(T)
	meta := &systemMetadata{
		name:   name,
		hook:   cfg.hook,
		logger: w.logger.With().Str("system", name).Logger(),
	}
	if err := initializeSystemState(w, state, meta); err != nil {
		return err
	}
	meta.fn = func() error { return system(state) }

	w.systemNames[name] = struct{}{}
	if cfg.hook == Init {
		w.initSystems.register(meta)
	} else {
		w.scheduler[cfg.hook].register(meta)
	}

	w.logger.Debug().Str("system", name).Stringer("hook", cfg.hook).Msg("registered system")
	return nil
}
