// Package testutils holds component and resource fixtures shared by the ecs tests.
package testutils

// Components.

type Health struct {
	Value int `json:"value"`
}

func (Health) Name() string { return "Health" }

type Position struct{ X, Y int }

func (Position) Name() string { return "Position" }

type Velocity struct{ X, Y int }

func (Velocity) Name() string { return "Velocity" }

type Experience struct{ Value int }

func (Experience) Name() string { return "Experience" }

type PlayerTag struct{ Tag string }

func (PlayerTag) Name() string { return "PlayerTag" }

type Level struct{ Value int }

func (Level) Name() string { return "Level" }

type MapComponent struct {
	Items map[string]int `json:"items"`
}

func (MapComponent) Name() string { return "MapComponent" }

type InvalidEmptyName struct{}

func (InvalidEmptyName) Name() string { return "" }

// AnotherHealth has the same layout as Health but is a distinct component type.
type AnotherHealth struct {
	Value int `json:"value"`
}

func (AnotherHealth) Name() string { return "AnotherHealth" }

// DuplicateHealthName reuses the name of Health.
type DuplicateHealthName struct{ Value int }

func (DuplicateHealthName) Name() string { return "Health" }

// Resources.

type Config struct {
	Gravity int
	Label   string
}

type Counter struct{ Value int }

type Log struct{ Entries []string }
