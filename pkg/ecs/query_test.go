package ecs_test

import (
	"testing"

	"github.com/argus-labs/gravitron/pkg/ecs"
	. "github.com/argus-labs/gravitron/pkg/ecs/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthQueryState struct {
	Q ecs.Query[struct {
		Health ecs.Read[Health]
	}]
}

// runOnce registers fn under a fixed name and runs a single tick.
func runOnce[T any](t *testing.T, w *ecs.World, fn ecs.System[T]) {
	t.Helper()
	require.NoError(t, ecs.RegisterSystem(w, fn, ecs.WithName(t.Name())))
	require.NoError(t, w.Tick())
}

func TestQuery_Iter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		setupFn    func(*testing.T, *ecs.World) []ecs.EntityID
		validateFn func(*testing.T, []ecs.EntityID, []ecs.EntityID, []int)
	}{
		{
			name: "empty world",
			setupFn: func(*testing.T, *ecs.World) []ecs.EntityID {
				return nil
			},
			validateFn: func(t *testing.T, _, got []ecs.EntityID, values []int) {
				assert.Empty(t, got)
				assert.Empty(t, values)
			},
		},
		{
			name: "superset archetypes match",
			setupFn: func(t *testing.T, w *ecs.World) []ecs.EntityID {
				a, err := w.CreateEntity(Health{Value: 1})
				require.NoError(t, err)
				b, err := w.CreateEntity(Health{Value: 2}, Position{})
				require.NoError(t, err)
				_, err = w.CreateEntity(Position{})
				require.NoError(t, err)
				c, err := w.CreateEntity(Health{Value: 3})
				require.NoError(t, err)
				return []ecs.EntityID{a, c, b}
			},
			validateFn: func(t *testing.T, expected, got []ecs.EntityID, values []int) {
				assert.Equal(t, expected, got, "archetype discovery order, then row order")
				assert.Equal(t, []int{1, 3, 2}, values)
			},
		},
		{
			name: "destroyed entities are skipped",
			setupFn: func(t *testing.T, w *ecs.World) []ecs.EntityID {
				a, err := w.CreateEntity(Health{Value: 1})
				require.NoError(t, err)
				b, err := w.CreateEntity(Health{Value: 2})
				require.NoError(t, err)
				c, err := w.CreateEntity(Health{Value: 3})
				require.NoError(t, err)
				require.NoError(t, w.Destroy(a))
				return []ecs.EntityID{c, b}
			},
			validateFn: func(t *testing.T, expected, got []ecs.EntityID, values []int) {
				assert.Equal(t, expected, got)
				assert.Equal(t, []int{3, 2}, values)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := newWorld(t)
			expected := tt.setupFn(t, w)

			var got []ecs.EntityID
			var values []int
			runOnce(t, w, func(s *healthQueryState) error {
				for eid, row := range s.Q.Iter() {
					got = append(got, eid)
					values = append(values, row.Health.Get().Value)
				}
				return nil
			})
			tt.validateFn(t, expected, got, values)
		})
	}
}

func TestQuery_DeterministicOrder(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	for i := range 20 {
		components := []ecs.Component{Health{Value: i}}
		if i%3 == 0 {
			components = append(components, Position{X: i})
		}
		if i%4 == 0 {
			components = append(components, PlayerTag{})
		}
		_, err := w.CreateEntity(components...)
		require.NoError(t, err)
	}

	var scans [][]ecs.EntityID
	require.NoError(t, ecs.RegisterSystem(w, func(s *healthQueryState) error {
		for range 2 {
			var scan []ecs.EntityID
			for eid := range s.Q.Iter() {
				scan = append(scan, eid)
			}
			scans = append(scans, scan)
		}
		return nil
	}))

	require.NoError(t, w.Tick())
	require.NoError(t, w.Tick())

	require.Len(t, scans, 4)
	require.Len(t, scans[0], 20)
	for _, scan := range scans[1:] {
		assert.Equal(t, scans[0], scan)
	}
}

func TestQuery_EarlyBreak(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	for i := range 5 {
		_, err := w.CreateEntity(Health{Value: i})
		require.NoError(t, err)
	}

	visited := 0
	runOnce(t, w, func(s *healthQueryState) error {
		for range s.Q.Iter() {
			visited++
			if visited == 2 {
				break
			}
		}
		return nil
	})
	assert.Equal(t, 2, visited)
}

func TestQuery_HandlesStayBound(t *testing.T) {
	t.Parallel()

	type state struct {
		Q ecs.Query[struct {
			Health ecs.Write[Health]
		}]
	}

	w := newWorld(t)
	a, err := w.CreateEntity(Health{Value: 1})
	require.NoError(t, err)
	b, err := w.CreateEntity(Health{Value: 2}, Position{})
	require.NoError(t, err)

	runOnce(t, w, func(s *state) error {
		type row = struct{ Health ecs.Write[Health] }
		var rows []row
		for _, r := range s.Q.Iter() {
			rows = append(rows, r)
		}
		// Handles collected during iteration keep pointing at their own rows.
		for i, r := range rows {
			r.Health.Set(Health{Value: 100 + i})
		}
		return nil
	})

	health, err := ecs.Get[Health](w, a)
	require.NoError(t, err)
	assert.Equal(t, 100, health.Value)
	health, err = ecs.Get[Health](w, b)
	require.NoError(t, err)
	assert.Equal(t, 101, health.Value)
}

func TestQuery_GetCountSingle(t *testing.T) {
	t.Parallel()

	type state struct {
		Players ecs.Query[struct {
			Tag    ecs.Read[PlayerTag]
			Health ecs.Write[Health]
		}]
	}

	w := newWorld(t)
	player, err := w.CreateEntity(PlayerTag{Tag: "hero"}, Health{Value: 5})
	require.NoError(t, err)
	npc, err := w.CreateEntity(Health{Value: 1})
	require.NoError(t, err)

	var count int
	var getErr, mismatchErr, missingErr, singleErr error
	var single ecs.EntityID
	runOnce(t, w, func(s *state) error {
		count = s.Players.Count()

		row, err := s.Players.Get(player)
		getErr = err
		if err == nil {
			row.Health.Get().Value += 10
		}
		_, mismatchErr = s.Players.Get(npc)
		_, missingErr = s.Players.Get(ecs.EntityID(12345))

		single, _, singleErr = s.Players.Single()
		return nil
	})

	assert.Equal(t, 1, count)
	require.NoError(t, getErr)
	require.ErrorIs(t, mismatchErr, ecs.ErrArchetypeMismatch)
	require.ErrorIs(t, missingErr, ecs.ErrEntityNotFound)
	require.NoError(t, singleErr)
	assert.Equal(t, player, single)

	health, err := ecs.Get[Health](w, player)
	require.NoError(t, err)
	assert.Equal(t, 15, health.Value)
}

func TestQuery_SingleErrors(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	var noneErr, manyErr error
	var phase int
	require.NoError(t, ecs.RegisterSystem(w, func(s *healthQueryState) error {
		if phase == 0 {
			_, _, noneErr = s.Q.Single()
		} else {
			_, _, manyErr = s.Q.Single()
		}
		return nil
	}))

	require.NoError(t, w.Tick())
	for range 2 {
		_, err := w.CreateEntity(Health{})
		require.NoError(t, err)
	}
	phase = 1
	require.NoError(t, w.Tick())

	require.ErrorIs(t, noneErr, ecs.ErrEntityNotFound)
	require.ErrorIs(t, manyErr, ecs.ErrMultipleMatches)
}

func TestQuery_AutoRegistersComponents(t *testing.T) {
	t.Parallel()

	type state struct {
		Q ecs.Query[struct{ Level ecs.Read[Level] }]
	}

	w := newWorld(t)
	_, err := w.CreateEntity(Level{Value: 1})
	require.ErrorIs(t, err, ecs.ErrComponentNotRegistered)

	require.NoError(t, ecs.RegisterSystem(w, func(*state) error { return nil }))
	_, err = w.CreateEntity(Level{Value: 1})
	require.NoError(t, err)
}
