package ecs

import (
	"reflect"

	"github.com/argus-labs/gravitron/pkg/assert"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// Component is the interface that all components must implement.
// Components are pure data containers that can be attached to entities.
type Component interface { //nolint:iface // We may add more methods in the future.
	// Name returns a unique string identifier for the component type. It is used in logs and
	// introspection output.
	Name() string
}

// componentID is a unique identifier for a component type.
// It is used internally to track and manage component types efficiently.
type componentID = uint32

// componentInfo describes a registered component type.
type componentInfo struct {
	name    string
	typ     reflect.Type
	factory columnFactory
}

// componentManager manages component type registration and lookup. Component identity is the Go
// type, names only need to be unique.
type componentManager struct {
	byType map[reflect.Type]componentID // Component type -> component ID
	byName map[string]componentID       // Component name -> component ID
	infos  []componentInfo              // Component ID -> component info
}

// newComponentManager creates a new component manager.
func newComponentManager() componentManager {
	return componentManager{
		byType: make(map[reflect.Type]componentID),
		byName: make(map[string]componentID),
		infos:  make([]componentInfo, 0),
	}
}

// registerComponent registers the component type T and returns its ID. If T is already registered
// it returns the existing ID.
func registerComponent[T Component](cm *componentManager) (componentID, error) {
	typ := reflect.TypeFor[T]()
	if cid, exists := cm.byType[typ]; exists {
		return cid, nil
	}
	if typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Interface {
		return 0, eris.Errorf("component %s must be a value type", typ)
	}

	var zero T
	name := zero.Name()
	if name == "" {
		return 0, eris.Errorf("component %s has an empty name", typ)
	}
	if other, exists := cm.byName[name]; exists {
		return 0, eris.Errorf("component name %s is used by both %s and %s", name, cm.infos[other].typ, typ)
	}

	cid := componentID(len(cm.infos)) //nolint:gosec // bounded by number of types
	cm.byType[typ] = cid
	cm.byName[name] = cid
	cm.infos = append(cm.infos, componentInfo{name: name, typ: typ, factory: newColumnFactory[T]()})
	assert.That(len(cm.infos) == len(cm.byType), "component catalog out of sync")

	return cid, nil
}

// lookup returns the ID of T without registering it.
func lookup[T Component](cm *componentManager) (componentID, error) {
	typ := reflect.TypeFor[T]()
	cid, exists := cm.byType[typ]
	if !exists {
		return 0, eris.Wrapf(ErrComponentNotRegistered, "component %s", typ)
	}
	return cid, nil
}

// idOf returns the ID of the dynamic type of component.
func (cm *componentManager) idOf(component Component) (componentID, error) {
	if component == nil {
		return 0, eris.Wrap(ErrComponentNotRegistered, "nil component")
	}
	typ := reflect.TypeOf(component)
	cid, exists := cm.byType[typ]
	if !exists {
		return 0, eris.Wrapf(ErrComponentNotRegistered, "component %s", typ)
	}
	return cid, nil
}

// toBitmap returns the component set of the given components. Repeated types collapse into one.
func (cm *componentManager) toBitmap(components []Component) (bitmap.Bitmap, error) {
	var bm bitmap.Bitmap
	for _, component := range components {
		cid, err := cm.idOf(component)
		if err != nil {
			return bitmap.Bitmap{}, err
		}
		bm.Set(cid)
	}
	return bm, nil
}

// name returns the name of a registered component.
func (cm *componentManager) name(cid componentID) string {
	assert.That(int(cid) < len(cm.infos), "unknown component id %d", cid)
	return cm.infos[cid].name
}
