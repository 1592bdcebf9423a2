package ecs

import (
	"testing"

	. "github.com/argus-labs/gravitron/pkg/ecs/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestColumn[T Component]() *column[T] {
	col, ok := newColumnFactory[T]()().(*column[T])
	if !ok {
		panic("factory returned the wrong column type")
	}
	return col
}

func TestColumn_ExtendSetGet(t *testing.T) {
	t.Parallel()

	col := newTestColumn[Health]()
	col.extend()
	col.extend()
	require.Equal(t, 2, col.len())
	assert.Equal(t, Health{}, *col.get(1), "extended rows are zero valued")

	col.set(0, Health{Value: 10})
	col.setBoxed(1, Health{Value: 20})
	assert.Equal(t, Health{Value: 10}, *col.get(0))
	assert.Equal(t, Health{Value: 20}, col.boxed(1))

	assert.Panics(t, func() { col.setBoxed(0, Position{}) })
	assert.Panics(t, func() { col.get(2) })

	p := col.get(0)
	p.Value = 11
	assert.Equal(t, Health{Value: 11}, col.components[0], "get points into the column")
}

func TestColumn_Remove(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		remove   int
		expected []Health
	}{
		{name: "first row swaps last in", remove: 0, expected: []Health{{Value: 3}, {Value: 2}}},
		{name: "middle row", remove: 1, expected: []Health{{Value: 1}, {Value: 3}}},
		{name: "last row", remove: 2, expected: []Health{{Value: 1}, {Value: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			col := newTestColumn[Health]()
			for i := range 3 {
				col.extend()
				col.set(i, Health{Value: i + 1})
			}

			col.remove(tt.remove)
			assert.Equal(t, tt.expected, col.components)
		})
	}
}

func TestColumn_CopyTo(t *testing.T) {
	t.Parallel()

	src := newTestColumn[Position]()
	dst := newTestColumn[Position]()
	src.extend()
	src.set(0, Position{X: 4, Y: 2})
	dst.extend()
	dst.extend()

	src.copyTo(0, dst, 1)
	assert.Equal(t, Position{X: 4, Y: 2}, *dst.get(1))
	assert.Panics(t, func() { src.copyTo(0, newTestColumn[Velocity](), 0) })
}
