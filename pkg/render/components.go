// Package render collects per-frame instance data from the world for a renderer. It doesn't talk
// to the GPU, the renderer reads the Instances resource after each tick.
package render

// ModelID names a mesh known to the renderer.
type ModelID string

// Transform places an entity in world space. Rotation holds euler angles in radians.
type Transform struct {
	Position Vec3 `json:"position"`
	Rotation Vec3 `json:"rotation"`
	Scale    Vec3 `json:"scale"`
}

func (Transform) Name() string { return "Transform" }

// Matrix returns the model matrix: scale, then rotate, then translate.
func (t Transform) Matrix() Mat4 {
	return Translation(t.Position).Mul(Rotation(t.Rotation)).Mul(Scaling(t.Scale))
}

// NewTransform returns a unit-scale transform at position.
func NewTransform(position Vec3) Transform {
	return Transform{Position: position, Scale: Vec3{X: 1, Y: 1, Z: 1}}
}

// MeshRenderer marks an entity as drawable with a model and shader.
type MeshRenderer struct {
	Model  ModelID    `json:"model"`
	Shader string     `json:"shader"`
	Color  [4]float32 `json:"color"`
}

func (MeshRenderer) Name() string { return "MeshRenderer" }

// Camera is the resource describing the active view. Instances further than Far from Position are
// not collected. A zero Far disables the cut-off.
type Camera struct {
	Position Vec3
	Target   Vec3
	Far      float32
}
