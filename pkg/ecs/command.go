package ecs

import (
	"slices"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// commandKind enumerates the structural changes a system can defer.
type commandKind uint8

const (
	commandCreate commandKind = iota
	commandDestroy
	commandInsert
	commandRemove
)

func (k commandKind) String() string {
	switch k {
	case commandCreate:
		return "create"
	case commandDestroy:
		return "destroy"
	case commandInsert:
		return "insert"
	case commandRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// command is a recorded structural change.
type command struct {
	kind       commandKind
	entity     EntityID
	components []Component // create, insert
	component  componentID // remove
}

// commandQueue is the buffer of one system. Commands are applied in record order.
type commandQueue struct {
	system   string
	commands []command
	reserved []EntityID // IDs reserved by create commands that haven't been applied
}

func newCommandQueue(system string) *commandQueue {
	return &commandQueue{
		system:   system,
		commands: make([]command, 0),
		reserved: make([]EntityID, 0),
	}
}

// apply executes every command against the world state. Commands that can no longer apply, e.g.
// because their entity was destroyed earlier in the commit, are skipped.
func (q *commandQueue) apply(ws *worldState, logger *zerolog.Logger) {
	for _, cmd := range q.commands {
		var err error
		switch cmd.kind {
		case commandCreate:
			if err = ws.spawn(cmd.entity, cmd.components); err != nil && ws.entities.reserved(cmd.entity) {
				ws.entities.release(cmd.entity)
			}
		case commandDestroy:
			err = ws.despawn(cmd.entity)
		case commandInsert:
			err = ws.insert(cmd.entity, cmd.components[0])
		case commandRemove:
			err = ws.remove(cmd.entity, cmd.component)
		}
		if err != nil {
			logger.Warn().Err(err).
				Str("system", q.system).
				Stringer("command", cmd.kind).
				Uint64("entity", uint64(cmd.entity)).
				Msg("skipping command")
		}
	}
	q.reset()
}

// discard drops every command and releases the reserved entity IDs.
func (q *commandQueue) discard(ws *worldState) {
	for _, eid := range q.reserved {
		if ws.entities.reserved(eid) {
			ws.entities.release(eid)
		}
	}
	q.reset()
}

func (q *commandQueue) reset() {
	clear(q.commands)
	q.commands = q.commands[:0]
	q.reserved = q.reserved[:0]
}

// -------------------------------------------------------------------------------------------------
// Commands system state field
// -------------------------------------------------------------------------------------------------

// Commands is a system state field that defers structural changes to the end of the tick. Every
// command a system records is applied after all systems of the tick have run, in the order systems
// ran and, within a system, in the order the commands were recorded. A system declares at most one
// Commands field.
//
// Example:
//
//	type SpawnerSystemState struct {
//	    Commands ecs.Commands
//	    Spawners ecs.Query[struct {
//	        Spawner ecs.Read[Spawner]
//	    }]
//	}
//
//	func SpawnerSystem(state *SpawnerSystemState) error {
//	    for _, s := range state.Spawners.Iter() {
//	        if _, err := state.Commands.Create(Position{X: s.Spawner.Get().X}); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	}
type Commands struct {
	world *World
	queue *commandQueue
}

func (c *Commands) init(w *World, meta *systemMetadata) (fieldAccess, error) {
	c.world = w
	c.queue = newCommandQueue(meta.name)
	meta.queue = c.queue
	return fieldAccess{kind: fieldCommands}, nil
}

// Create reserves an entity ID and records the creation of an entity with the given components.
// The entity becomes visible after the commit phase. Returns an error if a component type isn't
// registered.
func (c *Commands) Create(components ...Component) (EntityID, error) {
	if _, err := c.world.state.components.toBitmap(components); err != nil {
		return 0, err
	}

	eid := c.world.state.entities.reserve()
	c.queue.reserved = append(c.queue.reserved, eid)
	c.queue.commands = append(c.queue.commands, command{
		kind:       commandCreate,
		entity:     eid,
		components: slices.Clone(components),
	})
	return eid, nil
}

// Destroy records the destruction of an entity. Destroying an entity that doesn't exist at commit
// time is a logged no-op.
func (c *Commands) Destroy(eid EntityID) {
	c.queue.commands = append(c.queue.commands, command{kind: commandDestroy, entity: eid})
}

// Insert records setting a component on an entity, adding the component type if the entity
// doesn't have it yet.
func (c *Commands) Insert(eid EntityID, component Component) error {
	if _, err := c.world.state.components.idOf(component); err != nil {
		return err
	}
	c.queue.commands = append(c.queue.commands, command{
		kind:       commandInsert,
		entity:     eid,
		components: []Component{component},
	})
	return nil
}

// RemoveComponent records removing component T from an entity.
func RemoveComponent[T Component](c *Commands, eid EntityID) error {
	cid, err := lookup[T](&c.world.state.components)
	if err != nil {
		return eris.Wrap(err, "cannot remove unregistered component")
	}
	c.queue.commands = append(c.queue.commands, command{kind: commandRemove, entity: eid, component: cid})
	return nil
}

// Len returns the number of commands recorded during the current tick.
func (c *Commands) Len() int {
	return len(c.queue.commands)
}
