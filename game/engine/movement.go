package engine

// classifyMove reports what the head would hit by moving into next. Walls
// are checked first, then the body as it is before the move.
func classifyMove(grid Grid, snake *Snake, next Cell) Cause {
	if !grid.Contains(next) {
		return CauseWall
	}
	if snake.WillCollideSelf(next) {
		return CauseSelf
	}
	return CauseNone
}

// SafeDirections lists the directions the snake could take on the next tick
// without ending the run. Reversal is excluded since it would be ignored.
func SafeDirections(grid Grid, snake *Snake) []Direction {
	var safe []Direction
	for _, d := range Directions {
		if d == snake.Direction().Opposite() {
			continue
		}
		if classifyMove(grid, snake, snake.Head().Add(d)) == CauseNone {
			safe = append(safe, d)
		}
	}
	return safe
}
