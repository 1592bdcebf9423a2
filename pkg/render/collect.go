package render

import (
	"github.com/argus-labs/gravitron/pkg/ecs"
	"github.com/rotisserie/eris"
)

// CollectState is the state of CollectInstances.
type CollectState struct {
	ecs.BaseSystemState
	Camera    ecs.Res[Camera]
	Instances ecs.ResMut[Instances]
	Meshes    ecs.Query[struct {
		Transform ecs.Read[Transform]
		Mesh      ecs.Read[MeshRenderer]
	}]
}

// CollectInstances rebuilds the Instances resource from every entity with a Transform and a
// MeshRenderer.
func CollectInstances(state *CollectState) error {
	camera := state.Camera.Get()
	instances := state.Instances.Get()
	instances.Reset()

	culled := 0
	for _, mesh := range state.Meshes.Iter() {
		transform := mesh.Transform.Get()
		renderer := mesh.Mesh.Get()

		if camera.Far > 0 && transform.Position.Sub(camera.Position).Length() > camera.Far {
			culled++
			continue
		}
		instances.Add(renderer.Shader, renderer.Model, InstanceData{
			Model: transform.Matrix(),
			Color: renderer.Color,
		})
	}

	state.Logger().Trace().Int("instances", instances.Len()).Int("culled", culled).Msg("collected instances")
	return nil
}

// Register adds the render components, the Camera and Instances resources and the collection system
// to the world. The system runs in PostUpdate so it sees the transforms written during Update.
// Existing Camera or Instances resources are kept.
func Register(w *ecs.World, camera Camera) error {
	if err := ecs.RegisterComponent[Transform](w); err != nil {
		return eris.Wrap(err, "failed to register transform")
	}
	if err := ecs.RegisterComponent[MeshRenderer](w); err != nil {
		return eris.Wrap(err, "failed to register mesh renderer")
	}

	ecs.AddResource(w, camera)
	ecs.AddResource(w, NewInstances())

	if err := ecs.RegisterSystem(w, CollectInstances, ecs.WithHook(ecs.PostUpdate)); err != nil {
		return eris.Wrap(err, "failed to register instance collection")
	}
	return nil
}
