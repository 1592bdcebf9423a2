package ecs

import (
	"github.com/argus-labs/gravitron/pkg/assert"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// worldState holds the entities, archetypes and component registry of a world.
type worldState struct {
	components componentManager    // Component type registry
	entities   entityManager       // Manages entity IDs and archetype rows
	archetypes []*archetype        // All archetypes in discovery order
	archIndex  map[ArchetypeID]int // Archetype ID -> index in archetypes
}

// newWorldState creates a new world state.
func newWorldState() worldState {
	return worldState{
		components: newComponentManager(),
		entities:   newEntityManager(),
		archetypes: make([]*archetype, 0),
		archIndex:  make(map[ArchetypeID]int),
	}
}

// findOrCreateArchetype finds the archetype with exactly the given component types or creates it.
func (ws *worldState) findOrCreateArchetype(components bitmap.Bitmap) *archetype {
	if arch, ok := ws.archExact(components); ok {
		return arch
	}

	arch := newArchetype(len(ws.archetypes), components, &ws.components)
	_, collision := ws.archIndex[arch.id]
	assert.That(!collision, "archetype id collision for %d", arch.id)

	ws.archetypes = append(ws.archetypes, arch)
	ws.archIndex[arch.id] = arch.index
	return arch
}

// archContains returns all archetypes that have the given component types, in discovery order.
func (ws *worldState) archContains(components bitmap.Bitmap) []*archetype {
	return ws.archContainsFrom(0, components)
}

// archContainsFrom is archContains restricted to archetypes discovered at or after start.
func (ws *worldState) archContainsFrom(start int, components bitmap.Bitmap) []*archetype {
	var archs []*archetype
	for _, arch := range ws.archetypes[start:] {
		if arch.contains(components) {
			archs = append(archs, arch)
		}
	}
	return archs
}

// archExact returns the archetype that exactly matches the given component types.
func (ws *worldState) archExact(components bitmap.Bitmap) (*archetype, bool) {
	kinds := make([]componentID, 0, components.Count())
	components.Range(func(cid uint32) {
		kinds = append(kinds, cid)
	})

	index, ok := ws.archIndex[archetypeIDOf(kinds)]
	if !ok {
		return nil, false
	}
	arch := ws.archetypes[index]
	assert.That(arch.exact(components), "archetype id collision for %d", arch.id)
	return arch, true
}

// location returns the archetype and row of a live entity.
func (ws *worldState) location(eid EntityID) (*archetype, int, error) {
	rec, ok := ws.entities.get(eid)
	if !ok {
		return nil, 0, eris.Wrapf(ErrEntityNotFound, "entity %d", eid)
	}
	return ws.archetypes[rec.arch], rec.row, nil
}

// -------------------------------------------------------------------------------------------------
// Entity Operations
// -------------------------------------------------------------------------------------------------

// spawn places a reserved entity into the archetype of its components. Later components of a
// repeated type overwrite earlier ones.
func (ws *worldState) spawn(eid EntityID, components []Component) error {
	if !ws.entities.reserved(eid) {
		return eris.Errorf("entity %d is not reserved", eid)
	}

	compBitmap, err := ws.components.toBitmap(components)
	if err != nil {
		return eris.Wrap(err, "failed to create component bitmap")
	}

	arch := ws.findOrCreateArchetype(compBitmap)
	row := arch.newEntity(eid)
	for _, component := range components {
		cid, err := ws.components.idOf(component)
		assert.That(err == nil, "component registered above")
		col, ok := arch.column(cid)
		assert.That(ok, "archetype is missing column for component %d", cid)
		col.setBoxed(row, component)
	}

	ws.entities.place(eid, arch.index, row)
	return nil
}

// despawn removes an entity and all its components.
func (ws *worldState) despawn(eid EntityID) error {
	arch, row, err := ws.location(eid)
	if err != nil {
		return err
	}

	if moved, swapped := arch.removeEntity(row); swapped {
		ws.entities.place(moved, arch.index, row)
	}
	ws.entities.release(eid)
	return nil
}

// insert sets a component on an entity, moving it to a new archetype if it didn't have the
// component type yet.
func (ws *worldState) insert(eid EntityID, component Component) error {
	cid, err := ws.components.idOf(component)
	if err != nil {
		return err
	}

	arch, row, err := ws.location(eid)
	if err != nil {
		return err
	}

	if col, ok := arch.column(cid); ok {
		col.setBoxed(row, component)
		return nil
	}

	components := arch.components.Clone(nil)
	components.Set(cid)
	dst := ws.findOrCreateArchetype(components)
	newRow := ws.move(eid, arch, row, dst)

	col, ok := dst.column(cid)
	assert.That(ok, "archetype is missing column for component %d", cid)
	col.setBoxed(newRow, component)
	return nil
}

// remove deletes a component from an entity, moving it to the archetype without it.
func (ws *worldState) remove(eid EntityID, cid componentID) error {
	arch, row, err := ws.location(eid)
	if err != nil {
		return err
	}

	if !arch.components.Contains(cid) {
		return eris.Wrapf(ErrComponentNotFound, "entity %d, component %s", eid, ws.components.name(cid))
	}

	components := arch.components.Clone(nil)
	components.Remove(cid)
	ws.move(eid, arch, row, ws.findOrCreateArchetype(components))
	return nil
}

// move transfers an entity between archetypes and fixes up the affected records.
func (ws *worldState) move(eid EntityID, src *archetype, row int, dst *archetype) int {
	newRow, moved, swapped := src.moveEntity(row, dst)
	if swapped {
		ws.entities.place(moved, src.index, row)
	}
	ws.entities.place(eid, dst.index, newRow)
	return newRow
}

// getComponent returns a copy of component T of an entity.
func getComponent[T Component](ws *worldState, eid EntityID) (T, error) {
	var zero T

	cid, err := lookup[T](&ws.components)
	if err != nil {
		return zero, err
	}

	arch, row, err := ws.location(eid)
	if err != nil {
		return zero, err
	}

	col, ok := arch.column(cid)
	if !ok {
		return zero, eris.Wrapf(ErrComponentNotFound, "entity %d, component %s", eid, ws.components.name(cid))
	}

	typed, ok := col.(*column[T])
	assert.That(ok, "column type doesn't match component %s", ws.components.name(cid))
	return *typed.get(row), nil
}
