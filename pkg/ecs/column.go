package ecs

import (
	"github.com/argus-labs/gravitron/pkg/assert"
)

// erasedColumn is a column with its component type erased, so an archetype can hold columns of
// different types in one slice.
type erasedColumn interface {
	len() int
	extend()
	setBoxed(row int, component Component)
	boxed(row int) Component
	copyTo(row int, dst erasedColumn, dstRow int)
	remove(row int)
}

type columnFactory func() erasedColumn

var _ erasedColumn = (*column[Component])(nil)

// column holds one component type for every entity of an archetype. Row i belongs to the i-th
// entity of the archetype, so it is always exactly as long as the archetype's entity list.
type column[T Component] struct {
	components []T
}

func newColumnFactory[T Component]() columnFactory {
	return func() erasedColumn {
		return &column[T]{components: make([]T, 0, 16)}
	}
}

func (c *column[T]) len() int { return len(c.components) }

func (c *column[T]) extend() {
	c.components = append(c.components, *new(T))
}

func (c *column[T]) set(row int, component T) {
	assert.That(row < len(c.components), "row %d out of range, column has %d rows", row, len(c.components))
	c.components[row] = component
}

// get returns a pointer into the column. It is valid until the column grows or shrinks.
func (c *column[T]) get(row int) *T {
	assert.That(row < len(c.components), "row %d out of range, column has %d rows", row, len(c.components))
	return &c.components[row]
}

func (c *column[T]) setBoxed(row int, component Component) {
	typed, ok := component.(T)
	assert.That(ok, "component %T stored in column of %T", component, *new(T))
	c.set(row, typed)
}

func (c *column[T]) boxed(row int) Component {
	return *c.get(row)
}

func (c *column[T]) copyTo(row int, dst erasedColumn, dstRow int) {
	target, ok := dst.(*column[T])
	assert.That(ok, "copy between columns of %T and %T", c, dst)
	target.set(dstRow, c.components[row])
}

// remove moves the last row into row and shrinks the column by one. The vacated slot is zeroed
// so the column doesn't keep references alive.
func (c *column[T]) remove(row int) {
	last := len(c.components) - 1
	assert.That(row <= last, "row %d out of range, column has %d rows", row, len(c.components))

	c.components[row] = c.components[last]
	c.components[last] = *new(T)
	c.components = c.components[:last]
}
