package gravitron

import (
	"github.com/BurntSushi/toml"
	"github.com/argus-labs/gravitron/pkg/ecs"
	"github.com/argus-labs/gravitron/pkg/render"
	"github.com/rotisserie/eris"
)

// Scene describes the initial content of a world.
//
//	[camera]
//	position = { x = 0, y = 5, z = -10 }
//	far = 200.0
//
//	[[group]]
//	name = "asteroids"
//	count = 10
//	origin = { x = 0, y = 0, z = 0 }
//	spacing = { x = 2, y = 0, z = 0 }
//	velocity = { x = 0, y = 0, z = 1 }
//	model = "rock"
//	shader = "lit"
type Scene struct {
	Camera SceneCamera  `toml:"camera"`
	Groups []SceneGroup `toml:"group"`
}

// SceneCamera is the camera of a scene.
type SceneCamera struct {
	Position render.Vec3 `toml:"position"`
	Target   render.Vec3 `toml:"target"`
	Far      float32     `toml:"far"`
}

// SceneGroup spawns Count entities in a row starting at Origin, Spacing apart.
type SceneGroup struct {
	Name     string      `toml:"name"`
	Count    int         `toml:"count"`
	Origin   render.Vec3 `toml:"origin"`
	Spacing  render.Vec3 `toml:"spacing"`
	Velocity render.Vec3 `toml:"velocity"`
	Model    string      `toml:"model"`
	Shader   string      `toml:"shader"`
	Color    [4]float32  `toml:"color"`
}

// LoadScene reads and validates a TOML scene file.
func LoadScene(path string) (Scene, error) {
	var scene Scene
	meta, err := toml.DecodeFile(path, &scene)
	if err != nil {
		return Scene{}, eris.Wrapf(err, "failed to decode scene %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Scene{}, eris.Errorf("unknown scene key %s", undecoded[0])
	}
	if err := scene.validate(); err != nil {
		return Scene{}, eris.Wrapf(err, "invalid scene %s", path)
	}
	return scene, nil
}

// ParseScene decodes a TOML scene from a string.
func ParseScene(data string) (Scene, error) {
	var scene Scene
	if _, err := toml.Decode(data, &scene); err != nil {
		return Scene{}, eris.Wrap(err, "failed to decode scene")
	}
	if err := scene.validate(); err != nil {
		return Scene{}, err
	}
	return scene, nil
}

func (s *Scene) validate() error {
	for i, group := range s.Groups {
		if group.Count < 0 {
			return eris.Errorf("group %d (%s) has a negative count", i, group.Name)
		}
		if group.Count > 0 && (group.Model == "" || group.Shader == "") {
			return eris.Errorf("group %d (%s) needs a model and a shader", i, group.Name)
		}
	}
	return nil
}

// camera returns the render camera of the scene.
func (s *Scene) camera() render.Camera {
	return render.Camera{Position: s.Camera.Position, Target: s.Camera.Target, Far: s.Camera.Far}
}

// spawn creates the entities of every group and returns their IDs in spawn order.
func (s *Scene) spawn(w *ecs.World) ([]ecs.EntityID, error) {
	var entities []ecs.EntityID
	for _, group := range s.Groups {
		for i := range group.Count {
			position := group.Origin.Add(group.Spacing.Scale(float32(i)))
			eid, err := w.CreateEntity(
				render.NewTransform(position),
				Velocity{Vec3: group.Velocity},
				render.MeshRenderer{Model: render.ModelID(group.Model), Shader: group.Shader, Color: group.Color},
			)
			if err != nil {
				return entities, eris.Wrapf(err, "failed to spawn entity %d of group %s", i, group.Name)
			}
			entities = append(entities, eid)
		}
	}
	return entities, nil
}
