package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestGridContains(t *testing.T) {
	grid := Grid{Cols: 4, Rows: 3}

	tests := []struct {
		cell Cell
		want bool
	}{
		{Cell{0, 0}, true},
		{Cell{3, 2}, true},
		{Cell{4, 0}, false},
		{Cell{0, 3}, false},
		{Cell{-1, 1}, false},
		{Cell{1, -1}, false},
	}

	for _, tt := range tests {
		if got := grid.Contains(tt.cell); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}

func TestGridCenter(t *testing.T) {
	grid := Grid{Cols: DefaultCols, Rows: DefaultRows}
	center := grid.Center()
	if center.Col != 14 || center.Row != 15 {
		t.Errorf("Expected center (14,15), got %v", center)
	}
}

func TestDirectionOpposite(t *testing.T) {
	pairs := map[Direction]Direction{Up: Down, Down: Up, Left: Right, Right: Left}
	for d, want := range pairs {
		if got := d.Opposite(); got != want {
			t.Errorf("%v.Opposite() = %v, want %v", d, got, want)
		}
	}
}

func TestParseDirection(t *testing.T) {
	t.Run("Valid names", func(t *testing.T) {
		cases := map[string]Direction{"up": Up, "DOWN": Down, " Left ": Left, "right": Right}
		for name, want := range cases {
			got, err := ParseDirection(name)
			if err != nil {
				t.Fatalf("ParseDirection(%q) returned error: %v", name, err)
			}
			if got != want {
				t.Errorf("ParseDirection(%q) = %v, want %v", name, got, want)
			}
		}
	})

	t.Run("Invalid name", func(t *testing.T) {
		_, err := ParseDirection("north")
		if !errors.Is(err, ErrInvalidDirection) {
			t.Errorf("Expected ErrInvalidDirection, got %v", err)
		}
	})
}

func TestDirectionFromDelta(t *testing.T) {
	d, err := DirectionFromDelta(0, -1)
	if err != nil || d != Up {
		t.Errorf("Expected Up, got %v (err %v)", d, err)
	}

	for _, delta := range [][2]int{{0, 0}, {1, 1}, {2, 0}} {
		if _, err := DirectionFromDelta(delta[0], delta[1]); !errors.Is(err, ErrInvalidDirection) {
			t.Errorf("Expected ErrInvalidDirection for %v, got %v", delta, err)
		}
	}
}

func TestSnapshotJSON(t *testing.T) {
	snap := &Snapshot{
		Version:   7,
		State:     StateGameOver,
		Cause:     CauseSelf,
		Grid:      Grid{Cols: 10, Rows: 10},
		Body:      []Cell{{5, 5}, {4, 5}},
		Direction: Left,
		Food:      Cell{1, 1},
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Failed to marshal snapshot: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Failed to unmarshal raw snapshot: %v", err)
	}
	if raw["state"] != "game_over" {
		t.Errorf("Expected state game_over, got %v", raw["state"])
	}
	if raw["cause"] != "self" {
		t.Errorf("Expected cause self, got %v", raw["cause"])
	}
	if raw["direction"] != "left" {
		t.Errorf("Expected direction left, got %v", raw["direction"])
	}

	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if decoded.State != StateGameOver || decoded.Cause != CauseSelf || decoded.Direction != Left {
		t.Errorf("Decoded snapshot mismatch: %+v", decoded)
	}
	if decoded.Head() != (Cell{5, 5}) {
		t.Errorf("Expected head (5,5), got %v", decoded.Head())
	}
}

func TestRunningSnapshotOmitsCause(t *testing.T) {
	data, err := json.Marshal(&Snapshot{State: StateRunning, Direction: Right})
	if err != nil {
		t.Fatalf("Failed to marshal snapshot: %v", err)
	}

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	if _, ok := raw["cause"]; ok {
		t.Errorf("Expected no cause field while running, got %v", raw["cause"])
	}
}
