package ecs

import (
	"github.com/argus-labs/gravitron/pkg/assert"
)

// EntityID uniquely identifies an entity in the world. The low 32 bits hold the slot index and the
// high 32 bits hold the slot's generation. Generations start at 1, so the zero EntityID never
// refers to an entity.
type EntityID uint64

func newEntityID(index, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (e EntityID) index() uint32 {
	return uint32(e) //nolint:gosec // truncation intended
}

func (e EntityID) generation() uint32 {
	return uint32(e >> 32) //nolint:gosec // truncation intended
}

// unplaced marks a record whose entity isn't stored in any archetype, either because its slot is
// free or because the ID is reserved by a pending create command.
const unplaced = -1

// entityRecord tracks where an entity's components live.
type entityRecord struct {
	generation uint32 // Generation of the ID currently owning the slot
	arch       int    // Index into worldState.archetypes, or unplaced
	row        int    // Row inside the archetype
}

// entityManager hands out entity IDs and maps them to their archetype rows.
type entityManager struct {
	records []entityRecord // Slot index -> record
	free    []uint32       // Recycled slot indices
	alive   int            // Number of placed entities
}

// newEntityManager creates a new entity manager.
func newEntityManager() entityManager {
	return entityManager{
		records: make([]entityRecord, 0),
		free:    make([]uint32, 0),
	}
}

// reserve returns a fresh entity ID. The entity isn't alive until it is placed.
func (em *entityManager) reserve() EntityID {
	if n := len(em.free); n > 0 {
		idx := em.free[n-1]
		em.free = em.free[:n-1]
		return newEntityID(idx, em.records[idx].generation)
	}

	idx := uint32(len(em.records)) //nolint:gosec // bounded by memory
	em.records = append(em.records, entityRecord{generation: 1, arch: unplaced})
	return newEntityID(idx, 1)
}

// reserved reports whether eid is reserved but not yet placed.
func (em *entityManager) reserved(eid EntityID) bool {
	idx := eid.index()
	if int(idx) >= len(em.records) {
		return false
	}
	rec := &em.records[idx]
	return rec.generation == eid.generation() && rec.arch == unplaced
}

// place records the archetype row of an entity.
func (em *entityManager) place(eid EntityID, arch, row int) {
	rec := &em.records[eid.index()]
	assert.That(rec.generation == eid.generation(), "placing stale entity %d", eid)
	if rec.arch == unplaced {
		em.alive++
	}
	rec.arch = arch
	rec.row = row
}

// get returns the record of a live entity.
func (em *entityManager) get(eid EntityID) (*entityRecord, bool) {
	idx := eid.index()
	if int(idx) >= len(em.records) {
		return nil, false
	}
	rec := &em.records[idx]
	if rec.generation != eid.generation() || rec.arch == unplaced {
		return nil, false
	}
	return rec, true
}

// release frees the slot of eid, bumping its generation so the ID never resolves again.
func (em *entityManager) release(eid EntityID) {
	rec := &em.records[eid.index()]
	assert.That(rec.generation == eid.generation(), "releasing stale entity %d", eid)
	if rec.arch != unplaced {
		em.alive--
	}
	rec.generation++
	if rec.generation == 0 {
		rec.generation = 1
	}
	rec.arch = unplaced
	rec.row = 0
	em.free = append(em.free, eid.index())
}
