package ecs

import (
	"reflect"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// systemStateField defines the interface for system state initialization. All system state fields
// must implement this interface.
type systemStateField interface {
	init(*World, *systemMetadata) (fieldAccess, error)
}

// resourceBinder is implemented by fields that resolve a resource before the system first runs.
type resourceBinder interface {
	bind() error
}

var _ systemStateField = &BaseSystemState{}
var _ systemStateField = &Commands{}
var _ systemStateField = &Query[struct{}]{}
var _ systemStateField = &Res[int]{}
var _ systemStateField = &ResMut[int]{}
var _ systemStateField = &OptRes[int]{}
var _ resourceBinder = &Res[int]{}
var _ resourceBinder = &ResMut[int]{}

// fieldKind is an enum type for system state field types.
type fieldKind uint8

const (
	fieldBase fieldKind = iota
	fieldQuery
	fieldResource
	fieldCommands
)

// fieldAccess is the data a field declares. For queries the bitmaps hold component IDs, for
// resources they hold resource IDs.
type fieldAccess struct {
	kind   fieldKind
	reads  bitmap.Bitmap
	writes bitmap.Bitmap
}

// -------------------------------------------------------------------------------------------------
// Base System State Field
// -------------------------------------------------------------------------------------------------

// BaseSystemState can be embedded in a system state to give the system its logger and the current
// tick number.
//
// Example:
//
//	type DebugSystemState struct {
//	    ecs.BaseSystemState
//	}
//
//	func DebugSystem(state *DebugSystemState) error {
//	    state.Logger().Debug().Uint64("tick", state.Tick()).Msg("debug system ran")
//	    return nil
//	}
type BaseSystemState struct {
	world *World
	meta  *systemMetadata
}

func (b *BaseSystemState) init(w *World, meta *systemMetadata) (fieldAccess, error) {
	b.world = w
	b.meta = meta
	return fieldAccess{kind: fieldBase}, nil
}

// Logger returns the logger of the system, tagged with the system name.
func (b *BaseSystemState) Logger() *zerolog.Logger {
	return &b.meta.logger
}

// Tick returns the number of the tick being executed, starting at 0.
func (b *BaseSystemState) Tick() uint64 {
	return b.world.tick
}

// -------------------------------------------------------------------------------------------------
// Resource Fields
// -------------------------------------------------------------------------------------------------

// resourceField holds the shared state of the resource handles.
type resourceField[T any] struct {
	world *World
	id    resourceID
	value *T
}

func (r *resourceField[T]) register(w *World) bitmap.Bitmap {
	r.world = w
	r.id = w.resources.id(reflect.TypeFor[T]())

	var deps bitmap.Bitmap
	deps.Set(r.id)
	return deps
}

func (r *resourceField[T]) resolve() error {
	value, ok := r.world.resources.get(r.id)
	if !ok {
		return eris.Wrapf(ErrResourceNotFound, "resource %s", reflect.TypeFor[T]())
	}
	r.value = value.(*T) //nolint:errcheck // stored by AddResource
	return nil
}

// Res is a system state field giving shared access to the resource of type T. The resource must be
// present when the system first runs, otherwise that tick fails.
//
// Example:
//
//	type GravitySystemState struct {
//	    Config ecs.Res[PhysicsConfig]
//	}
//
//	func GravitySystem(state *GravitySystemState) error {
//	    g := state.Config.Get().Gravity
//	    // ...
//	    return nil
//	}
type Res[T any] struct {
	resourceField[T]
}

func (r *Res[T]) init(w *World, _ *systemMetadata) (fieldAccess, error) {
	return fieldAccess{kind: fieldResource, reads: r.register(w)}, nil
}

func (r *Res[T]) bind() error {
	return r.resolve()
}

// Get returns a copy of the resource.
func (r *Res[T]) Get() T {
	return *r.value
}

// ResMut is a system state field giving exclusive access to the resource of type T. The resource
// must be present when the system first runs, otherwise that tick fails.
type ResMut[T any] struct {
	resourceField[T]
}

func (r *ResMut[T]) init(w *World, _ *systemMetadata) (fieldAccess, error) {
	return fieldAccess{kind: fieldResource, writes: r.register(w)}, nil
}

func (r *ResMut[T]) bind() error {
	return r.resolve()
}

// Get returns a pointer to the stored resource.
func (r *ResMut[T]) Get() *T {
	return r.value
}

// OptRes is a system state field giving shared access to a resource that may be absent.
type OptRes[T any] struct {
	resourceField[T]
}

func (r *OptRes[T]) init(w *World, _ *systemMetadata) (fieldAccess, error) {
	return fieldAccess{kind: fieldResource, reads: r.register(w)}, nil
}

// Get returns a copy of the resource and whether it exists.
func (r *OptRes[T]) Get() (T, bool) {
	value, ok := r.world.resources.get(r.id)
	if !ok {
		var zero T
		return zero, false
	}
	return *value.(*T), true //nolint:errcheck // stored by AddResource
}

// -------------------------------------------------------------------------------------------------
// Internal
// -------------------------------------------------------------------------------------------------

// initializeSystemState initializes every field of the system state and rejects declarations whose
// accesses could alias. Fields that resolve resources are collected in meta.binders.
func initializeSystemState[T any](w *World, state *T, meta *systemMetadata) error {
	// Component access of the queries seen so far.
	var queryReads, queryWrites bitmap.Bitmap
	// Resource access of the resource fields seen so far.
	var resReads, resWrites bitmap.Bitmap
	commands := 0

	value := reflect.ValueOf(state).Elem()
	for i := range value.NumField() {
		field := value.Field(i)
		fieldType := value.Type().Field(i)

		fail := func(err error) error {
			return &SystemValidationError{System: meta.name, Field: fieldType.Name, Err: err}
		}

		if !fieldType.IsExported() {
			return fail(eris.Wrap(ErrInvalidSystemState, "field must be exported"))
		}

		fieldInstance := field.Addr().Interface()
		stateField, ok := fieldInstance.(systemStateField)
		if !ok {
			return fail(eris.Wrapf(ErrInvalidSystemState, "unsupported field type %s", fieldType.Type))
		}

		access, err := stateField.init(w, meta)
		if err != nil {
			return fail(err)
		}

		switch access.kind {
		case fieldQuery:
			if hasDuplicate(queryReads, access.writes) || hasDuplicate(queryWrites, access.writes) ||
				hasDuplicate(queryWrites, access.reads) {
				return fail(eris.Wrap(ErrQueryAliasing, "component is written by one query and accessed by another"))
			}
			union(&queryReads, access.reads)
			union(&queryWrites, access.writes)
		case fieldResource:
			if hasDuplicate(resWrites, access.reads) || hasDuplicate(resWrites, access.writes) ||
				hasDuplicate(resReads, access.writes) {
				return fail(eris.Wrap(ErrResourceAliasing, "resource is accessed both exclusively and again"))
			}
			union(&resReads, access.reads)
			union(&resWrites, access.writes)
			if binder, ok := fieldInstance.(resourceBinder); ok {
				meta.binders = append(meta.binders, fieldBinder{field: fieldType.Name, binder: binder})
			}
		case fieldCommands:
			commands++
			if commands > 1 {
				return fail(ErrDuplicateCommands)
			}
		case fieldBase:
		}
	}

	return nil
}

// union adds the bits of src to dst. bitmap.Or can't take an empty operand.
func union(dst *bitmap.Bitmap, src bitmap.Bitmap) {
	src.Range(dst.Set)
}

// hasDuplicate checks if any bits in deps are already set in aggregate.
func hasDuplicate(aggregate, deps bitmap.Bitmap) bool {
	clone := deps.Clone(nil)
	clone.And(aggregate)
	return clone.Count() != 0
}
