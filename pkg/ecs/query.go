package ecs

import (
	"iter"
	"reflect"

	"github.com/argus-labs/gravitron/pkg/assert"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// Query is a system state field that iterates entities having every component of the tuple T. T
// must be a struct whose fields are all Read[C] or Write[C]:
//
//	type MovementSystemState struct {
//	    Movers ecs.Query[struct {
//	        Position ecs.Write[Position]
//	        Velocity ecs.Read[Velocity]
//	    }]
//	}
//
//	func MovementSystem(state *MovementSystemState) error {
//	    for _, mover := range state.Movers.Iter() {
//	        pos, vel := mover.Position.Get(), mover.Velocity.Get()
//	        pos.X += vel.X
//	    }
//	    return nil
//	}
//
// A component type may appear more than once in T only if every occurrence is a Read. Component
// types used in T are registered when the system is registered.
type Query[T any] struct {
	world      *World        // Reference to the world
	components bitmap.Bitmap // Bitmap of component types this query looks for
	ids        []componentID // Component ID of each tuple field
	fields     []accessor    // Tuple fields of result, bound to a row before each yield
	result     T             // Reusable instance of the result type
	matched    []matchedArchetype
	scanned    int // Number of world archetypes already checked for a match
}

// matchedArchetype caches the columns a query reads from an archetype, one per tuple field.
type matchedArchetype struct {
	arch    *archetype
	columns []erasedColumn
}

// init analyzes the tuple type, registers its components and reports the declared access.
func (q *Query[T]) init(w *World, _ *systemMetadata) (fieldAccess, error) {
	access := fieldAccess{kind: fieldQuery}

	resultType := reflect.TypeFor[T]()
	if resultType.Kind() != reflect.Struct {
		return access, eris.Wrapf(ErrInvalidSystemState, "query tuple must be a struct, got %s", resultType)
	}
	if resultType.NumField() == 0 {
		return access, eris.Wrap(ErrInvalidSystemState, "query tuple has no fields")
	}

	q.world = w
	q.components = bitmap.Bitmap{}
	q.ids = make([]componentID, resultType.NumField())
	q.fields = make([]accessor, resultType.NumField())
	resultValue := reflect.ValueOf(&q.result).Elem()

	for i := range resultType.NumField() {
		field := resultType.Field(i)
		if !field.IsExported() {
			return access, eris.Wrapf(ErrInvalidSystemState, "query field %s must be exported", field.Name)
		}

		fieldAccessor, ok := resultValue.Field(i).Addr().Interface().(accessor)
		if !ok {
			return access, eris.Wrapf(ErrInvalidSystemState,
				"query field %s must be Read[Component] or Write[Component], got %s", field.Name, field.Type)
		}

		cid, err := fieldAccessor.register(&w.state.components)
		if err != nil {
			return access, eris.Wrapf(err, "failed to register component of query field %s", field.Name)
		}

		// A written component can't share the tuple with any other access to it.
		if fieldAccessor.exclusive() {
			if access.reads.Contains(cid) || access.writes.Contains(cid) {
				return access, eris.Wrapf(ErrQueryAliasing, "component %s is written by field %s and accessed again",
					w.state.components.name(cid), field.Name)
			}
			access.writes.Set(cid)
		} else {
			if access.writes.Contains(cid) {
				return access, eris.Wrapf(ErrQueryAliasing, "component %s is read by field %s and written by another",
					w.state.components.name(cid), field.Name)
			}
			access.reads.Set(cid)
		}

		q.ids[i] = cid
		q.fields[i] = fieldAccessor
		q.components.Set(cid)
	}

	return access, nil
}

// refresh extends the matched archetypes with archetypes created since the last call.
func (q *Query[T]) refresh() {
	ws := &q.world.state
	if q.scanned == len(ws.archetypes) {
		return
	}

	for _, arch := range ws.archContainsFrom(q.scanned, q.components) {
		columns := make([]erasedColumn, len(q.ids))
		for i, cid := range q.ids {
			col, ok := arch.column(cid)
			assert.That(ok, "matched archetype is missing component %d", cid)
			columns[i] = col
		}
		q.matched = append(q.matched, matchedArchetype{arch: arch, columns: columns})
	}
	q.scanned = len(ws.archetypes)
}

// attach binds the tuple fields to a row of a matched archetype.
func (q *Query[T]) attach(columns []erasedColumn, row int) T {
	for i, field := range q.fields {
		field.attach(columns[i], row)
	}
	return q.result
}

// Iter returns an iterator over the matching entities and their component handles. Entities are
// visited archetype by archetype in the order archetypes were created, and by row within an
// archetype. The handles are valid until the end of the tick.
//
// Example:
//
//	for entity, mover := range state.Movers.Iter() {
//	    pos := mover.Position.Get()
//	    pos.X += mover.Velocity.Get().X
//	}
func (q *Query[T]) Iter() iter.Seq2[EntityID, T] {
	q.refresh()
	return func(yield func(EntityID, T) bool) {
		for _, match := range q.matched {
			for row, eid := range match.arch.entities {
				if !yield(eid, q.attach(match.columns, row)) {
					return
				}
			}
		}
	}
}

// Get returns the component handles of a single entity.
func (q *Query[T]) Get(eid EntityID) (T, error) {
	var zero T

	arch, row, err := q.world.state.location(eid)
	if err != nil {
		return zero, err
	}
	if !arch.contains(q.components) {
		return zero, eris.Wrapf(ErrArchetypeMismatch, "entity %d", eid)
	}

	q.refresh()
	for _, match := range q.matched {
		if match.arch == arch {
			return q.attach(match.columns, row), nil
		}
	}
	assert.That(false, "archetype %d contains the query but isn't matched", arch.id)
	return zero, nil
}

// Count returns the number of matching entities.
func (q *Query[T]) Count() int {
	q.refresh()
	count := 0
	for _, match := range q.matched {
		count += len(match.arch.entities)
	}
	return count
}

// Single returns the only matching entity. It fails if no entity or more than one entity matches.
func (q *Query[T]) Single() (EntityID, T, error) {
	var zero T

	switch count := q.Count(); count {
	case 0:
		return 0, zero, eris.Wrap(ErrEntityNotFound, "query matched no entity")
	case 1:
	default:
		return 0, zero, eris.Wrapf(ErrMultipleMatches, "%d entities", count)
	}

	for eid, result := range q.Iter() {
		return eid, result, nil
	}
	return 0, zero, nil
}

// -------------------------------------------------------------------------------------------------
// Component Handles
// -------------------------------------------------------------------------------------------------

// accessor is implemented by the handle types allowed in a query tuple.
type accessor interface {
	register(*componentManager) (componentID, error)
	exclusive() bool
	attach(erasedColumn, int)
}

var _ accessor = &Read[Component]{}
var _ accessor = &Write[Component]{}

// Read is a shared handle to a component of the current query row.
type Read[T Component] struct {
	col *column[T]
	row int
}

func (r *Read[T]) register(cm *componentManager) (componentID, error) {
	return registerComponent[T](cm)
}

func (r *Read[T]) exclusive() bool {
	return false
}

func (r *Read[T]) attach(col erasedColumn, row int) {
	typed, ok := col.(*column[T])
	assert.That(ok, "column type doesn't match read handle")
	r.col = typed
	r.row = row
}

// Get returns a copy of the component.
func (r Read[T]) Get() T {
	return *r.col.get(r.row)
}

// Write is an exclusive handle to a component of the current query row.
type Write[T Component] struct {
	col *column[T]
	row int
}

func (w *Write[T]) register(cm *componentManager) (componentID, error) {
	return registerComponent[T](cm)
}

func (w *Write[T]) exclusive() bool {
	return true
}

func (w *Write[T]) attach(col erasedColumn, row int) {
	typed, ok := col.(*column[T])
	assert.That(ok, "column type doesn't match write handle")
	w.col = typed
	w.row = row
}

// Get returns a pointer to the stored component. The pointer is valid until the end of the tick.
func (w Write[T]) Get() *T {
	return w.col.get(w.row)
}

// Set overwrites the stored component.
func (w Write[T]) Set(component T) {
	w.col.set(w.row, component)
}
