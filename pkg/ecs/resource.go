package ecs

import (
	"reflect"
)

// resourceID is a unique identifier for a resource type within a world.
type resourceID = uint32

// resourceStore holds at most one value per Go type. Values are boxed as *T and never replaced, so
// pointers handed to systems stay valid for the lifetime of the world.
type resourceStore struct {
	ids    map[reflect.Type]resourceID // Resource type -> resource ID
	values []any                       // Resource ID -> *T, nil while absent
	types  []reflect.Type              // Resource ID -> type
}

// newResourceStore creates an empty resource store.
func newResourceStore() resourceStore {
	return resourceStore{
		ids:    make(map[reflect.Type]resourceID),
		values: make([]any, 0),
		types:  make([]reflect.Type, 0),
	}
}

// id returns the ID of a resource type, allocating one the first time the type is seen. Systems
// get IDs for resources that may only be added later.
func (rs *resourceStore) id(typ reflect.Type) resourceID {
	if rid, ok := rs.ids[typ]; ok {
		return rid
	}
	rid := resourceID(len(rs.values)) //nolint:gosec // bounded by number of types
	rs.ids[typ] = rid
	rs.values = append(rs.values, nil)
	rs.types = append(rs.types, typ)
	return rid
}

// insert stores value under its ID unless a value is already present. Returns false if ignored.
func (rs *resourceStore) insert(rid resourceID, value any) bool {
	if rs.values[rid] != nil {
		return false
	}
	rs.values[rid] = value
	return true
}

// get returns the boxed value of a resource.
func (rs *resourceStore) get(rid resourceID) (any, bool) {
	value := rs.values[rid]
	return value, value != nil
}

// AddResource stores value as the world's resource of type T. If a resource of type T already
// exists the call is ignored and the existing value is kept.
func AddResource[T any](w *World, value T) {
	typ := reflect.TypeFor[T]()
	boxed := new(T)
	*boxed = value
	if !w.resources.insert(w.resources.id(typ), boxed) {
		w.logger.Debug().Str("resource", typ.String()).Msg("resource already present, ignoring")
	}
}

// GetResource returns a pointer to the world's resource of type T. Writes through the pointer are
// visible to every system that reads the resource.
func GetResource[T any](w *World) (*T, bool) {
	rid, ok := w.resources.ids[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	value, ok := w.resources.get(rid)
	if !ok {
		return nil, false
	}
	return value.(*T), true //nolint:errcheck // stored by AddResource
}
