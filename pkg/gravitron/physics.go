package gravitron

import (
	"time"

	"github.com/argus-labs/gravitron/pkg/ecs"
	"github.com/argus-labs/gravitron/pkg/render"
)

// Velocity moves an entity's Transform, in units per second.
type Velocity struct {
	render.Vec3
}

func (Velocity) Name() string { return "Velocity" }

// Time is the resource holding the simulation clock. The App updates it before every tick.
type Time struct {
	Delta   time.Duration // Duration of the current tick
	Elapsed time.Duration // Simulated time before the current tick
}

// MovementState is the state of Movement.
type MovementState struct {
	Time   ecs.Res[Time]
	Movers ecs.Query[struct {
		Transform ecs.Write[render.Transform]
		Velocity  ecs.Read[Velocity]
	}]
}

// Movement integrates velocities into positions.
func Movement(state *MovementState) error {
	dt := float32(state.Time.Get().Delta.Seconds())
	for _, mover := range state.Movers.Iter() {
		transform := mover.Transform.Get()
		transform.Position = transform.Position.Add(mover.Velocity.Get().Scale(dt))
	}
	return nil
}
