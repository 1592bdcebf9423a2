// Package gravitron wires the ECS world, the render collector and the simulation clock into a
// runnable application.
package gravitron

import (
	"context"
	"time"

	"github.com/argus-labs/gravitron/pkg/ecs"
	"github.com/argus-labs/gravitron/pkg/render"
	"github.com/argus-labs/gravitron/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// App owns a world and drives it at a fixed tick rate.
type App struct {
	id       uuid.UUID
	options  Options
	world    *ecs.World
	scene    Scene
	entities []ecs.EntityID
	logger   zerolog.Logger
	tel      telemetry.Telemetry
}

// NewApp creates an app from the environment configuration merged with opts, registers the
// movement and render systems, and spawns the configured scene.
func NewApp(opts Options) (*App, error) {
	cfg, err := loadAppConfig()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load app config")
	}

	options := newDefaultOptions()
	cfg.applyToOptions(&options)
	options.apply(opts)
	if err := options.validate(); err != nil {
		return nil, eris.Wrap(err, "invalid app options")
	}

	tel, err := telemetry.New(telemetry.Options{ServiceName: "gravitron", LogLevel: options.LogLevel})
	if err != nil {
		return nil, eris.Wrap(err, "failed to set up telemetry")
	}

	id := uuid.New()
	logger := tel.GetLogger("app").With().Str("instance", id.String()).Logger()

	app := &App{
		id:      id,
		options: options,
		world:   ecs.NewWorld(ecs.WithLogger(tel.GetLogger("ecs")), ecs.WithTracer(tel.Tracer)),
		logger:  logger,
		tel:     tel,
	}

	if err := app.load(); err != nil {
		if shutdownErr := tel.Shutdown(context.Background()); shutdownErr != nil {
			logger.Warn().Err(shutdownErr).Msg("failed to shut down telemetry")
		}
		return nil, err
	}
	return app, nil
}

// load loads the configured scene and sets up the world.
func (a *App) load() error {
	if a.options.ScenePath != "" {
		scene, err := LoadScene(a.options.ScenePath)
		if err != nil {
			return err
		}
		a.scene = scene
	}
	return a.setup()
}

// setup registers the built-in components, resources and systems and spawns the scene.
func (a *App) setup() error {
	if err := ecs.RegisterComponent[Velocity](a.world); err != nil {
		return eris.Wrap(err, "failed to register velocity")
	}
	ecs.AddResource(a.world, Time{})

	if err := render.Register(a.world, a.scene.camera()); err != nil {
		return err
	}
	if err := ecs.RegisterSystem(a.world, Movement); err != nil {
		return eris.Wrap(err, "failed to register movement")
	}

	_, err := a.Spawn(a.scene)
	return err
}

// Spawn creates the entities of scene in the world. The camera of the scene is ignored, it is only
// used when the app is created.
func (a *App) Spawn(scene Scene) ([]ecs.EntityID, error) {
	if err := scene.validate(); err != nil {
		return nil, err
	}

	entities, err := scene.spawn(a.world)
	a.entities = append(a.entities, entities...)
	if err != nil {
		return entities, err
	}

	a.logger.Info().Int("entities", len(entities)).Int("groups", len(scene.Groups)).Msg("scene spawned")
	return entities, nil
}

// ID returns the instance ID of the app.
func (a *App) ID() uuid.UUID {
	return a.id
}

// World returns the world of the app, for registering game systems before Run.
func (a *App) World() *ecs.World {
	return a.world
}

// Entities returns every entity spawned through Spawn, including the initial scene.
func (a *App) Entities() []ecs.EntityID {
	return a.entities
}

// Step advances the simulation clock by dt and runs one tick.
func (a *App) Step(dt time.Duration) error {
	clock, ok := ecs.GetResource[Time](a.world)
	if !ok {
		return eris.New("time resource missing")
	}
	clock.Delta = dt

	if err := a.world.Tick(); err != nil {
		return eris.Wrapf(err, "tick %d failed", a.world.CurrentTick())
	}
	clock.Elapsed += dt
	return nil
}

// Run ticks the world at the configured rate until ctx is cancelled, MaxTicks is reached or a tick
// fails. The clock runs in its own goroutine and hands ticks to the simulation loop, which is the only
// goroutine touching the world.
func (a *App) Run(ctx context.Context) error {
	interval := time.Duration(float64(time.Second) / a.options.TickRate)
	ticks := make(chan time.Duration, 1)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(ticks)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case now := <-ticker.C:
				select {
				case ticks <- now.Sub(last):
					last = now
				case <-ctx.Done():
					return nil
				}
			case <-ctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		a.logger.Info().Float64("tick_rate", a.options.TickRate).Msg("starting simulation loop")
		for dt := range ticks {
			if err := a.Step(dt); err != nil {
				return err
			}
			if a.options.MaxTicks > 0 && a.world.CurrentTick() >= a.options.MaxTicks {
				a.logger.Info().Uint64("ticks", a.world.CurrentTick()).Msg("tick limit reached")
				return errTickLimit
			}
		}
		return nil
	})

	err := g.Wait()
	if eris.Is(err, errTickLimit) {
		return nil
	}
	return err
}

// Close flushes telemetry. The app must not be used after Close.
func (a *App) Close(ctx context.Context) error {
	return a.tel.Shutdown(ctx)
}

// errTickLimit stops the run loop once MaxTicks is reached.
var errTickLimit = eris.New("tick limit reached")
