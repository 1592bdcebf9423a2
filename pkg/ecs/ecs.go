// Package ecs implements an archetype based entity component system. Entities are stored in
// archetypes, one column per component type. Systems declare the data they use through the fields
// of a state struct, which are validated once at registration so that no two handles of a system can
// alias the same data mutably.
package ecs

import "github.com/rotisserie/eris"

// Get gets a component from an entity.
// Returns an error if the entity doesn't exist or doesn't contain the component type.
func Get[T Component](w *World, eid EntityID) (T, error) {
	return getComponent[T](&w.state, eid)
}

// Has checks if an entity has a specific component type.
// Returns false if either the entity doesn't exist or doesn't have the component.
func Has[T Component](w *World, eid EntityID) bool {
	_, err := Get[T](w, eid)
	return err == nil
}

// Insert sets a component on an entity outside of a tick, adding the component type if needed.
func Insert(w *World, eid EntityID, component Component) error {
	if w.running {
		return ErrWorldLocked
	}
	return w.state.insert(eid, component)
}

// Remove removes component T from an entity outside of a tick.
// Returns an error if the entity or the component to remove doesn't exist.
func Remove[T Component](w *World, eid EntityID) error {
	if w.running {
		return ErrWorldLocked
	}
	cid, err := lookup[T](&w.state.components)
	if err != nil {
		return eris.Wrap(err, "cannot remove unregistered component")
	}
	return w.state.remove(eid, cid)
}
