package gravitron_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/argus-labs/gravitron/pkg/ecs"
	"github.com/argus-labs/gravitron/pkg/gravitron"
	"github.com/argus-labs/gravitron/pkg/render"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

const movingScene = `
[[group]]
name = "drones"
count = 2
spacing = { x = 10, y = 0, z = 0 }
velocity = { x = 0, y = 2, z = 0 }
model = "drone"
shader = "lit"
`

func newApp(t *testing.T, opts gravitron.Options) *gravitron.App {
	t.Helper()

	if opts.LogLevel == "" {
		opts.LogLevel = "error"
	}
	app, err := gravitron.NewApp(opts)
	require.NoError(t, err)
	return app
}

func writeScene(t *testing.T, scene string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte(scene), 0o600))
	return path
}

func TestNewApp(t *testing.T) {
	t.Run("empty world without a scene", func(t *testing.T) {
		app := newApp(t, gravitron.Options{})
		assert.NotEqual(t, uuid.Nil, app.ID())
		assert.Zero(t, app.World().EntityCount())
		assert.Len(t, app.World().SystemNames(), 2)
	})

	t.Run("scene from the environment", func(t *testing.T) {
		t.Setenv("GRAVITRON_SCENE", writeScene(t, movingScene))

		app := newApp(t, gravitron.Options{})
		assert.Equal(t, 2, app.World().EntityCount())
		assert.Len(t, app.Entities(), 2)
	})

	t.Run("invalid scene", func(t *testing.T) {
		_, err := gravitron.NewApp(gravitron.Options{
			LogLevel:  "error",
			ScenePath: writeScene(t, "[[group]]\ncount = -3"),
		})
		require.Error(t, err)
	})

	t.Run("tracing is shut down when setup fails", func(t *testing.T) {
		previous := otel.GetTracerProvider()
		t.Cleanup(func() { otel.SetTracerProvider(previous) })
		t.Setenv("GRAVITRON_TRACE_ENDPOINT", "localhost:4317")

		_, err := gravitron.NewApp(gravitron.Options{
			LogLevel:  "error",
			ScenePath: filepath.Join(t.TempDir(), "missing.toml"),
		})
		require.Error(t, err)

		_, span := otel.Tracer("test").Start(context.Background(), "after failed setup")
		defer span.End()
		assert.False(t, span.IsRecording(), "provider of the failed app must be shut down")
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := gravitron.NewApp(gravitron.Options{LogLevel: "chatty"})
		require.Error(t, err)
	})

	t.Run("each app has its own instance id", func(t *testing.T) {
		a := newApp(t, gravitron.Options{})
		b := newApp(t, gravitron.Options{})
		assert.NotEqual(t, a.ID(), b.ID())
	})
}

func TestApp_Step(t *testing.T) {
	app := newApp(t, gravitron.Options{ScenePath: writeScene(t, movingScene)})
	w := app.World()

	require.NoError(t, app.Step(500*time.Millisecond))
	require.NoError(t, app.Step(500*time.Millisecond))
	assert.Equal(t, uint64(2), w.CurrentTick())

	for i, eid := range app.Entities() {
		transform, err := ecs.Get[render.Transform](w, eid)
		require.NoError(t, err)
		assert.InDelta(t, 10*float32(i), transform.Position.X, 1e-5)
		assert.InDelta(t, 2, transform.Position.Y, 1e-5)
	}

	clock, ok := ecs.GetResource[gravitron.Time](w)
	require.True(t, ok)
	assert.Equal(t, time.Second, clock.Elapsed)

	instances, ok := ecs.GetResource[render.Instances](w)
	require.True(t, ok)
	drones := instances.Get("lit", "drone")
	require.Len(t, drones, 2)
	// Instances are collected after movement in the same tick.
	assert.InDelta(t, 2, drones[0].Model[13], 1e-5)
}

func TestApp_Spawn(t *testing.T) {
	app := newApp(t, gravitron.Options{ScenePath: writeScene(t, movingScene)})

	scene, err := gravitron.ParseScene("[[group]]\nname = \"crates\"\ncount = 3\nmodel = \"crate\"\nshader = \"lit\"")
	require.NoError(t, err)

	spawned, err := app.Spawn(scene)
	require.NoError(t, err)
	require.Len(t, spawned, 3)
	assert.Equal(t, 5, app.World().EntityCount())
	assert.Equal(t, spawned, app.Entities()[2:])

	_, err = app.Spawn(gravitron.Scene{Groups: []gravitron.SceneGroup{{Name: "broken", Count: 1}}})
	require.Error(t, err)
	assert.Equal(t, 5, app.World().EntityCount())
}

func TestApp_StepFailure(t *testing.T) {
	app := newApp(t, gravitron.Options{})

	type failState struct{}
	require.NoError(t, ecs.RegisterSystem(app.World(), func(*failState) error {
		return assert.AnError
	}, ecs.WithName("fail")))

	err := app.Step(time.Millisecond)
	require.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, app.World().CurrentTick())

	clock, ok := ecs.GetResource[gravitron.Time](app.World())
	require.True(t, ok)
	assert.Zero(t, clock.Elapsed)
}

func TestApp_Run(t *testing.T) {
	t.Run("stops at the tick limit", func(t *testing.T) {
		app := newApp(t, gravitron.Options{TickRate: 1000, MaxTicks: 5})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		require.NoError(t, app.Run(ctx))
		assert.Equal(t, uint64(5), app.World().CurrentTick())
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		app := newApp(t, gravitron.Options{TickRate: 1000})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		require.NoError(t, app.Run(ctx))
		assert.Positive(t, app.World().CurrentTick())
	})

	t.Run("returns the first tick error", func(t *testing.T) {
		app := newApp(t, gravitron.Options{TickRate: 1000})

		type failState struct{ ecs.BaseSystemState }
		require.NoError(t, ecs.RegisterSystem(app.World(), func(state *failState) error {
			if state.Tick() == 2 {
				return assert.AnError
			}
			return nil
		}, ecs.WithName("fail on third tick")))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		require.ErrorIs(t, app.Run(ctx), assert.AnError)
		assert.Equal(t, uint64(2), app.World().CurrentTick())
	})
}
