package object

// Cell is a mutable box shared between a function and the closures it
// defines. An empty cell reads as an unbound variable.
type Cell struct {
	base
	value Object
	set   bool
}

// NewCell returns an empty cell.
func NewCell() *Cell {
	return &Cell{}
}

// NewCellValue returns a cell holding the given value.
func NewCellValue(value Object) *Cell {
	return &Cell{value: value, set: true}
}

// Get returns the cell contents; ok is false for an empty cell.
func (c *Cell) Get() (Object, bool) {
	return c.value, c.set
}

func (c *Cell) Set(value Object) {
	c.value = value
	c.set = true
}

// Clear empties the cell, as `del` on a cell variable does.
func (c *Cell) Clear() {
	c.value = nil
	c.set = false
}

func (c *Cell) Type() Type { return CELL }

func (c *Cell) Inspect() string {
	if !c.set {
		return "<cell (empty)>"
	}
	return "<cell: " + c.value.Inspect() + ">"
}

func (c *Cell) Interface() any {
	if !c.set {
		return nil
	}
	return c.value.Interface()
}

func (c *Cell) Equals(other Object) bool { return c == other }
