package ecs

import (
	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
)

// archetypeDump is the introspection view of an archetype.
type archetypeDump struct {
	ID         ArchetypeID  `json:"id"`
	Components []string     `json:"components"`
	Entities   []entityDump `json:"entities"`
}

// entityDump is the introspection view of an entity.
type entityDump struct {
	ID         EntityID             `json:"id"`
	Components map[string]Component `json:"components"`
}

// DumpJSON encodes every archetype with its entities and component values. The output is meant for
// debugging tools and is not read back.
func (w *World) DumpJSON() ([]byte, error) {
	ws := &w.state
	dump := make([]archetypeDump, 0, len(ws.archetypes))

	for _, arch := range ws.archetypes {
		names := make([]string, len(arch.kinds))
		for i, cid := range arch.kinds {
			names[i] = ws.components.name(cid)
		}

		entities := make([]entityDump, len(arch.entities))
		for row, eid := range arch.entities {
			components := make(map[string]Component, len(arch.columns))
			for i, col := range arch.columns {
				components[names[i]] = col.boxed(row)
			}
			entities[row] = entityDump{ID: eid, Components: components}
		}

		dump = append(dump, archetypeDump{ID: arch.id, Components: names, Entities: entities})
	}

	data, err := json.Marshal(dump)
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode world dump")
	}
	return data, nil
}

// ComponentSchemas returns the JSON schema of every registered component, keyed by component name.
func (w *World) ComponentSchemas() (map[string][]byte, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schemas := make(map[string][]byte, len(w.state.components.infos))

	for _, info := range w.state.components.infos {
		schema := reflector.ReflectFromType(info.typ)
		data, err := json.Marshal(schema)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to encode schema of component %s", info.name)
		}
		schemas[info.name] = data
	}
	return schemas, nil
}
