package ecs

import (
	"context"
	"time"

	"github.com/argus-labs/gravitron/pkg/telemetry"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// World represents the root ECS state. A World is driven by a single goroutine and must not be
// ticked concurrently.
type World struct {
	state     worldState
	resources resourceStore

	// Systems.
	initDone    bool                // Tracks if init systems have been executed
	initSystems systemScheduler     // Initialization systems, run once at the start of the first tick
	scheduler   [3]systemScheduler  // Systems schedulers (PreUpdate, Update, PostUpdate)
	systemNames map[string]struct{} // Names of every registered system
	ran         []*systemMetadata   // Systems that ran in the current tick, in order

	tick    uint64 // Number of the next tick to execute
	running bool   // Whether a tick is executing

	logger zerolog.Logger
	tracer trace.Tracer
}

// WorldOption configures a World.
type WorldOption func(*World)

// WithLogger sets the logger of the world and its systems.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) { w.logger = logger }
}

// WithTracer sets the tracer used for tick and system spans.
func WithTracer(tracer trace.Tracer) WorldOption {
	return func(w *World) { w.tracer = tracer }
}

// NewWorld creates a new World instance.
func NewWorld(opts ...WorldOption) *World {
	world := &World{
		state:       newWorldState(),
		resources:   newResourceStore(),
		initDone:    false,
		initSystems: newSystemScheduler(),
		scheduler:   [3]systemScheduler{},
		systemNames: make(map[string]struct{}),
		ran:         make([]*systemMetadata, 0),
		logger:      telemetry.GetGlobalLogger("ecs"),
		tracer:      otel.Tracer("github.com/argus-labs/gravitron/pkg/ecs"),
	}

	for i := range world.scheduler {
		world.scheduler[i] = newSystemScheduler()
	}

	for _, opt := range opts {
		opt(world)
	}

	return world
}

// RegisterComponent registers the component type T with the world. Registering a type twice is a
// no-op. Component types used in queries are registered automatically.
func RegisterComponent[T Component](w *World) error {
	_, err := registerComponent[T](&w.state.components)
	return err
}

// CreateEntity creates an entity with the given components and returns its ID. Every component
// type must be registered. If a type appears more than once, the last value wins.
func (w *World) CreateEntity(components ...Component) (EntityID, error) {
	if w.running {
		return 0, ErrWorldLocked
	}
	if _, err := w.state.components.toBitmap(components); err != nil {
		return 0, err
	}

	eid := w.state.entities.reserve()
	if err := w.state.spawn(eid, components); err != nil {
		w.state.entities.release(eid)
		return 0, err
	}
	return eid, nil
}

// Destroy removes an entity and all its components.
func (w *World) Destroy(eid EntityID) error {
	if w.running {
		return ErrWorldLocked
	}
	return w.state.despawn(eid)
}

// Alive reports whether eid refers to a live entity.
func (w *World) Alive(eid EntityID) bool {
	_, ok := w.state.entities.get(eid)
	return ok
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.state.entities.alive
}

// CurrentTick returns the number of ticks completed so far.
func (w *World) CurrentTick() uint64 {
	return w.tick
}

// SystemNames returns the names of the registered systems in execution order.
func (w *World) SystemNames() []string {
	names := make([]string, 0, len(w.systemNames))
	for _, system := range w.initSystems.systems {
		names = append(names, system.name)
	}
	for i := range w.scheduler {
		for _, system := range w.scheduler[i].systems {
			names = append(names, system.name)
		}
	}
	return names
}

// Tick executes the registered systems in order and then applies the commands they recorded.
// On the first tick, init systems run before everything else. Required resources are resolved
// before any system runs, so a missing resource fails the tick without side effects. If any system
// returns an error, the remaining systems are skipped, every recorded command is discarded and the
// error is returned.
func (w *World) Tick() error {
	if w.running {
		return ErrWorldLocked
	}

	if err := w.bind(); err != nil {
		return err
	}

	ctx, span := w.tracer.Start(context.Background(), "tick",
		trace.WithAttributes(attribute.Int64("tick", int64(w.tick)))) //nolint:gosec // fits
	defer span.End()

	start := time.Now()
	w.running = true
	defer func() {
		// Still running only if a system panicked.
		if w.running {
			w.running = false
			w.discardCommands()
		}
	}()
	ran, err := w.runSystems(ctx)
	w.running = false

	if err != nil {
		w.discardCommands()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	w.commitCommands(ran)
	w.tick++

	w.logger.Debug().
		Uint64("tick", w.tick-1).
		Int("entities", w.EntityCount()).
		Dur("duration", time.Since(start)).
		Msg("tick complete")
	return nil
}

// bind resolves required resources of systems that haven't run yet.
func (w *World) bind() error {
	if !w.initDone {
		if err := w.initSystems.bind(); err != nil {
			return err
		}
	}
	for i := range w.scheduler {
		if err := w.scheduler[i].bind(); err != nil {
			return err
		}
	}
	return nil
}

// runSystems runs init systems on the first tick and then every hook in order.
func (w *World) runSystems(ctx context.Context) ([]*systemMetadata, error) {
	ran := w.ran[:0]
	var err error

	if !w.initDone {
		if ran, err = w.initSystems.run(ctx, w.tracer, ran); err != nil {
			return ran, eris.Wrap(err, "init system failed")
		}
		w.initDone = true
	}

	for i := range w.scheduler {
		if ran, err = w.scheduler[i].run(ctx, w.tracer, ran); err != nil {
			return ran, err
		}
	}

	w.ran = ran
	return ran, nil
}

// commitCommands applies the command queues of the systems that ran, in execution order.
func (w *World) commitCommands(ran []*systemMetadata) {
	for _, system := range ran {
		if system.queue != nil {
			system.queue.apply(&w.state, &w.logger)
		}
	}
	clear(w.ran)
}

// discardCommands drops every recorded command after a failed tick.
func (w *World) discardCommands() {
	discard := func(s *systemScheduler) {
		for _, system := range s.systems {
			if system.queue != nil {
				system.queue.discard(&w.state)
			}
		}
	}
	discard(&w.initSystems)
	for i := range w.scheduler {
		discard(&w.scheduler[i])
	}
	clear(w.ran)
}
