package gen

import (
	"strings"
	"testing"
)

func TestHouseBlueprint_Shape(t *testing.T) {
	bp := HouseBlueprint(3, 42)
	if len(bp) == 0 {
		t.Fatalf("empty blueprint")
	}
	width := len(bp[0])
	exterior := 0
	for i, row := range bp {
		if len(row) != width {
			t.Fatalf("row %d length %d, want %d", i, len(row), width)
		}
		for _, ch := range row {
			switch ch {
			case CellWall, CellFloor, CellDoor, CellExteriorDoor, ' ':
			default:
				t.Fatalf("unexpected blueprint cell %q", ch)
			}
		}
		exterior += strings.Count(row, string(rune(CellExteriorDoor)))
	}
	if exterior != 1 {
		t.Fatalf("blueprint has %d exterior doors, want 1", exterior)
	}
}

func TestHouseBlueprint_ThreeRoomsConnected(t *testing.T) {
	bp := HouseBlueprint(3, 42)
	doors := 0
	for _, row := range bp {
		doors += strings.Count(row, string(rune(CellDoor)))
	}
	// Each attached room carves a door cell in both facing walls.
	if doors < 2 {
		t.Fatalf("blueprint has %d interior door cells, want at least 2", doors)
	}
}

func TestHouseBlueprint_Deterministic(t *testing.T) {
	a := HouseBlueprint(3, 7)
	b := HouseBlueprint(3, 7)
	if len(a) != len(b) {
		t.Fatalf("same seed, different heights")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed, row %d differs:\n%s\n%s", i, a[i], b[i])
		}
	}

	c := HouseBlueprint(3, 8)
	same := len(a) == len(c)
	if same {
		for i := range a {
			if a[i] != c[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Fatalf("different seeds produced identical blueprints")
	}
}

// Floors of different rooms must never touch: rooms keep a wall (or gap)
// between their interiors.
func TestHouseBlueprint_RoomsDoNotMerge(t *testing.T) {
	bp := HouseBlueprint(4, 99)
	at := func(x, y int) byte {
		if y < 0 || y >= len(bp) || x < 0 || x >= len(bp[y]) {
			return ' '
		}
		return bp[y][x]
	}
	for y := range bp {
		for x := range bp[y] {
			if at(x, y) != CellFloor {
				continue
			}
			// A floor cell may only border floor, wall, or door cells.
			for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				n := at(x+d[0], y+d[1])
				if n == ' ' {
					t.Fatalf("floor cell (%d,%d) exposed to open space", x, y)
				}
			}
		}
	}
}
