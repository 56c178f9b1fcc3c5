package engine

// Snake is the ordered body (head first), the heading, and the number of
// segments still owed from eating.
type Snake struct {
	body        []Cell
	dir         Direction
	growPending int
}

// NewSnake builds a snake of the given length with its head on the grid center.
func NewSnake(grid Grid, length int) *Snake {
	s := &Snake{}
	s.Reset(grid, length)
	return s
}

// Reset lays the body out horizontally, head at the center and tail to the
// left, heading right with no pending growth.
func (s *Snake) Reset(grid Grid, length int) {
	if length < 1 {
		length = 1
	}
	center := grid.Center()
	s.body = make([]Cell, length)
	for i := range s.body {
		s.body[i] = Cell{Col: center.Col - i, Row: center.Row}
	}
	s.dir = Right
	s.growPending = 0
}

func (s *Snake) Head() Cell {
	return s.body[0]
}

func (s *Snake) Tail() Cell {
	return s.body[len(s.body)-1]
}

// NextHead is the head moved one step in the current direction.
func (s *Snake) NextHead() Cell {
	return s.Head().Add(s.dir)
}

// SetDirection changes the heading. Reversing straight back into the neck is
// ignored and reported as false.
func (s *Snake) SetDirection(d Direction) bool {
	if !d.IsValid() || d == s.dir.Opposite() {
		return false
	}
	s.dir = d
	return true
}

// WillCollideSelf reports whether moving the head into c hits the body.
// The check runs before the move: when no growth is pending the tail leaves
// its cell on this move, so stepping into it is allowed.
func (s *Snake) WillCollideSelf(c Cell) bool {
	occupied := s.body
	if s.growPending == 0 {
		occupied = s.body[:len(s.body)-1]
	}
	for _, b := range occupied {
		if b == c {
			return true
		}
	}
	return false
}

// MoveHead prepends head. Pending growth keeps the tail; otherwise the tail
// is dropped and the length stays the same.
func (s *Snake) MoveHead(head Cell) {
	if s.growPending > 0 {
		s.growPending--
		s.body = append(s.body, Cell{})
	}
	copy(s.body[1:], s.body[:len(s.body)-1])
	s.body[0] = head
}

// Grow defers n segments of growth, consumed one per move.
func (s *Snake) Grow(n int) {
	if n > 0 {
		s.growPending += n
	}
}

// Body returns a copy of the segments, head first.
func (s *Snake) Body() []Cell {
	out := make([]Cell, len(s.body))
	copy(out, s.body)
	return out
}

func (s *Snake) Len() int { return len(s.body) }

func (s *Snake) Direction() Direction { return s.dir }

func (s *Snake) GrowPending() int { return s.growPending }
