package ecs

import (
	"encoding/binary"
	"slices"

	"github.com/argus-labs/gravitron/pkg/assert"
	"github.com/cespare/xxhash/v2"
	"github.com/kelindar/bitmap"
)

// ArchetypeID identifies a set of component types. It is derived from the sorted component IDs of
// the set, so it doesn't depend on the order components were supplied in.
type ArchetypeID = uint64

// archetypeIDOf hashes a sorted list of component IDs.
func archetypeIDOf(kinds []componentID) ArchetypeID {
	buf := make([]byte, 0, 4*len(kinds))
	for _, cid := range kinds {
		buf = binary.LittleEndian.AppendUint32(buf, cid)
	}
	return xxhash.Sum64(buf)
}

// archetype represents a collection of entities with the same component types.
// NOTE: We store the compCount instead of using Bitmap.Count() because counting bits is O(n). We
// store columns in a slice instead of a map because it's faster for small # of components.
type archetype struct {
	id         ArchetypeID    // Hash of the component set
	index      int            // Position in worldState.archetypes
	components bitmap.Bitmap  // Bitmap of components contained in this archetype
	kinds      []componentID  // Sorted component IDs, parallel to columns
	entities   []EntityID     // List of entities of this archetype, in row order
	columns    []erasedColumn // List of columns containing component data
	compCount  int            // Number of component types in the archetype
}

// newArchetype creates an archetype for the given component types.
func newArchetype(index int, components bitmap.Bitmap, cm *componentManager) *archetype {
	kinds := make([]componentID, 0, components.Count())
	components.Range(func(cid uint32) {
		kinds = append(kinds, cid)
	})

	columns := make([]erasedColumn, len(kinds))
	for i, cid := range kinds {
		columns[i] = cm.infos[cid].factory()
	}

	return &archetype{
		id:         archetypeIDOf(kinds),
		index:      index,
		components: components.Clone(nil),
		kinds:      kinds,
		entities:   make([]EntityID, 0),
		columns:    columns,
		compCount:  len(kinds),
	}
}

// exact returns true if the given components matches the archetype's exactly.
func (a *archetype) exact(components bitmap.Bitmap) bool {
	if a.compCount != components.Count() {
		return false
	}
	return a.contains(components)
}

// contains returns true if the archetype contains all of the components in the given components.
func (a *archetype) contains(components bitmap.Bitmap) bool {
	intersect := components.Clone(nil)
	intersect.And(a.components)
	return intersect.Count() == components.Count()
}

// column returns the column storing component cid.
func (a *archetype) column(cid componentID) (erasedColumn, bool) {
	i, found := slices.BinarySearch(a.kinds, cid)
	if !found {
		return nil, false
	}
	return a.columns[i], true
}

// -------------------------------------------------------------------------------------------------
// Entity operations
// -------------------------------------------------------------------------------------------------

// newEntity appends the entity to the archetype and returns its row. The entity's components are
// initialized with their zero values so every column stays as long as the entities slice.
func (a *archetype) newEntity(eid EntityID) int {
	a.entities = append(a.entities, eid)

	for _, column := range a.columns {
		column.extend()
		assert.That(column.len() == len(a.entities), "column components length doesn't match entities")
	}

	return len(a.entities) - 1
}

// removeEntity swap-removes the given row. If another entity was moved into the row, it is
// returned so the caller can update its record.
func (a *archetype) removeEntity(row int) (EntityID, bool) {
	assert.That(row < len(a.entities), "row %d out of range", row)

	last := len(a.entities) - 1
	moved := a.entities[last]
	a.entities[row] = moved
	a.entities = a.entities[:last]

	for _, column := range a.columns {
		column.remove(row)
	}

	return moved, row != last
}

// moveEntity moves the entity at row into dst, copying the components both archetypes share.
// Components dst doesn't store are dropped and components only dst stores are zero-valued. Returns
// the entity's row in dst and, if another entity took its old row, that entity.
func (a *archetype) moveEntity(row int, dst *archetype) (int, EntityID, bool) {
	assert.That(a.index != dst.index, "entity moved into its existing archetype")

	newRow := dst.newEntity(a.entities[row])
	for i, cid := range a.kinds {
		if target, ok := dst.column(cid); ok {
			a.columns[i].copyTo(row, target, newRow)
		}
	}

	moved, swapped := a.removeEntity(row)
	return newRow, moved, swapped
}
