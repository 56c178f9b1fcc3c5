package engine

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/rand"
)

// MaxPlacementAttempts bounds the random search for a free food cell.
const MaxPlacementAttempts = 1000

var ErrBoardFull = errors.New("board full")

// Rand is the randomness food placement needs. *rand.Rand from
// golang.org/x/exp/rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// NewRand returns a PCG-backed source. A zero seed seeds from the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewSource(seed))
}

// Food is the single active food cell.
type Food struct {
	Position Cell
}

// PlaceFood picks a uniformly random cell not covered by occupied.
func PlaceFood(grid Grid, rng Rand, occupied []Cell) (Food, error) {
	taken := make(map[Cell]struct{}, len(occupied))
	for _, c := range occupied {
		taken[c] = struct{}{}
	}

	for attempt := 0; attempt < MaxPlacementAttempts; attempt++ {
		c := Cell{Col: rng.Intn(grid.Cols), Row: rng.Intn(grid.Rows)}
		if _, ok := taken[c]; !ok {
			return Food{Position: c}, nil
		}
	}
	return Food{}, fmt.Errorf("%w: no free cell after %d attempts", ErrBoardFull, MaxPlacementAttempts)
}
