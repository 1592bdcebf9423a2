package render_test

import (
	"testing"

	"github.com/argus-labs/gravitron/pkg/ecs"
	"github.com/argus-labs/gravitron/pkg/render"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectInstances(t *testing.T) {
	t.Parallel()

	w := ecs.NewWorld(ecs.WithLogger(zerolog.Nop()))
	require.NoError(t, render.Register(w, render.Camera{Far: 50}))

	spawn := func(x float32, model render.ModelID, shader string) {
		_, err := w.CreateEntity(
			render.NewTransform(render.Vec3{X: x}),
			render.MeshRenderer{Model: model, Shader: shader, Color: [4]float32{1, 1, 1, 1}},
		)
		require.NoError(t, err)
	}
	spawn(1, "cube", "lit")
	spawn(2, "cube", "lit")
	spawn(3, "sphere", "lit")
	spawn(4, "cube", "unlit")
	spawn(100, "cube", "lit") // beyond the far plane

	// Entities without a mesh aren't drawn.
	_, err := w.CreateEntity(render.NewTransform(render.Vec3{}))
	require.NoError(t, err)

	require.NoError(t, w.Tick())

	instances, ok := ecs.GetResource[render.Instances](w)
	require.True(t, ok)
	assert.Equal(t, 4, instances.Len())
	assert.Equal(t, []string{"lit", "unlit"}, instances.Shaders())
	assert.Equal(t, []render.ModelID{"cube", "sphere"}, instances.Models("lit"))

	cubes := instances.Get("lit", "cube")
	require.Len(t, cubes, 2)
	assert.InDelta(t, 1, cubes[0].Model[12], 1e-6)
	assert.InDelta(t, 2, cubes[1].Model[12], 1e-6)
	assert.Len(t, instances.Get("unlit", "cube"), 1)

	t.Run("rebuilt every tick", func(t *testing.T) {
		require.NoError(t, w.Tick())
		assert.Equal(t, 4, instances.Len())
		assert.Len(t, instances.Get("lit", "cube"), 2)
	})
}

func TestRegister_KeepsExistingResources(t *testing.T) {
	t.Parallel()

	w := ecs.NewWorld(ecs.WithLogger(zerolog.Nop()))
	ecs.AddResource(w, render.Camera{Far: 1})
	require.NoError(t, render.Register(w, render.Camera{Far: 99}))

	camera, ok := ecs.GetResource[render.Camera](w)
	require.True(t, ok)
	assert.InDelta(t, 1, camera.Far, 0, "an existing camera is kept")

	require.Error(t, render.Register(w, render.Camera{}), "collection system is registered once")
}

func TestInstances_Reset(t *testing.T) {
	t.Parallel()

	var in render.Instances
	in.Add("lit", "cube", render.InstanceData{})
	in.Reset()

	assert.Equal(t, 0, in.Len())
	assert.Empty(t, in.Shaders())
	assert.Empty(t, in.Models("lit"))
	assert.Empty(t, in.Get("lit", "cube"))
}
