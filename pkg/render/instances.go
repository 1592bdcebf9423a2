package render

import (
	"maps"
	"slices"
)

// InstanceData is the per-instance payload uploaded to the GPU.
type InstanceData struct {
	Model Mat4
	Color [4]float32
}

// Instances is the resource holding the instances of the current frame, grouped by shader and then
// by model so that each group can be drawn with one instanced call.
type Instances struct {
	batches map[string]map[ModelID][]InstanceData
	count   int
}

// NewInstances creates an empty instance set.
func NewInstances() Instances {
	return Instances{batches: make(map[string]map[ModelID][]InstanceData)}
}

// Reset empties every batch, keeping the allocated slices for the next frame.
func (in *Instances) Reset() {
	for _, models := range in.batches {
		for model, batch := range models {
			models[model] = batch[:0]
		}
	}
	in.count = 0
}

// Add appends an instance to the batch of its shader and model.
func (in *Instances) Add(shader string, model ModelID, data InstanceData) {
	if in.batches == nil {
		in.batches = make(map[string]map[ModelID][]InstanceData)
	}
	models, ok := in.batches[shader]
	if !ok {
		models = make(map[ModelID][]InstanceData)
		in.batches[shader] = models
	}
	models[model] = append(models[model], data)
	in.count++
}

// Get returns the instances of a shader and model.
func (in *Instances) Get(shader string, model ModelID) []InstanceData {
	return in.batches[shader][model]
}

// Shaders returns the shaders with at least one instance, sorted.
func (in *Instances) Shaders() []string {
	shaders := make([]string, 0, len(in.batches))
	for shader, models := range in.batches {
		for _, batch := range models {
			if len(batch) > 0 {
				shaders = append(shaders, shader)
				break
			}
		}
	}
	slices.Sort(shaders)
	return shaders
}

// Models returns the models drawn with a shader, sorted.
func (in *Instances) Models(shader string) []ModelID {
	models := slices.Sorted(maps.Keys(in.batches[shader]))
	return slices.DeleteFunc(models, func(m ModelID) bool { return len(in.batches[shader][m]) == 0 })
}

// Len returns the total number of instances.
func (in *Instances) Len() int {
	return in.count
}
