package engine

import "fmt"

// Cell is a grid coordinate. Row 0 is the top of the board.
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Add returns the cell one step away in direction d.
func (c Cell) Add(d Direction) Cell {
	return Cell{Col: c.Col + d.DX, Row: c.Row + d.DY}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

// Grid is the fixed Cols x Rows board.
type Grid struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// Contains reports whether c lies on the board.
func (g Grid) Contains(c Cell) bool {
	return c.Col >= 0 && c.Col < g.Cols && c.Row >= 0 && c.Row < g.Rows
}

// Center is where a fresh snake puts its head.
func (g Grid) Center() Cell {
	return Cell{Col: g.Cols / 2, Row: g.Rows / 2}
}

// Area is the number of cells on the board.
func (g Grid) Area() int {
	return g.Cols * g.Rows
}
