package engine

// ManhattanDistance calculates the Manhattan distance between two cells
func ManhattanDistance(from, to Cell) int {
	return abs(from.Col-to.Col) + abs(from.Row-to.Row)
}

// SpeedLevel counts the speed-up steps between the initial and the current
// interval, with 1 being the starting speed.
func SpeedLevel(config GameConfig, intervalMs int) int {
	level := 1
	for cur := config.InitialIntervalMs; cur > intervalMs; {
		next := config.NextIntervalMs(cur)
		if next == cur {
			break
		}
		cur = next
		level++
	}
	return level
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
