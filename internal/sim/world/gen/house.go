package gen

import (
	"math/rand"
)

// Blueprint cell markers. Space means untouched: placement leaves whatever
// the procedural pass produced there.
const (
	CellWall         = 'W'
	CellFloor        = 'F'
	CellDoor         = 'D'
	CellExteriorDoor = 'E'
)

const (
	blueprintCanvas = 40
	roomMinInterior = 3
	roomMaxInterior = 6
	attachRetries   = 24
)

type roomRect struct {
	x, y, w, h int // includes walls
}

func (r roomRect) overlaps(o roomRect, pad int) bool {
	return r.x < o.x+o.w+pad && o.x < r.x+r.w+pad &&
		r.y < o.y+o.h+pad && o.y < r.y+r.h+pad
}

// HouseBlueprint synthesizes a multi-room building layout as a cropped grid
// of equal-length rows. Rows use 'W' for walls, 'F' for floor, 'D' for
// interior doors and 'E' for the single exterior door. Rooms are attached one
// by one with bounded retries; a room that cannot be placed is skipped, so
// the result may have fewer rooms than asked. The result is empty only if the
// seed room itself cannot fit, which the canvas size rules out; callers must
// still tolerate an empty grid and skip placement.
func HouseBlueprint(numRooms int, seed int64) []string {
	rng := rand.New(rand.NewSource(seed))

	grid := make([][]byte, blueprintCanvas)
	for i := range grid {
		grid[i] = make([]byte, blueprintCanvas)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	var rooms []roomRect

	first := roomRect{
		w: roomMinInterior + rng.Intn(roomMaxInterior-roomMinInterior+1) + 2,
		h: roomMinInterior + rng.Intn(roomMaxInterior-roomMinInterior+1) + 2,
	}
	first.x = blueprintCanvas/2 - first.w/2
	first.y = blueprintCanvas/2 - first.h/2
	stampRoom(grid, first)
	rooms = append(rooms, first)

	for placed := 1; placed < numRooms; placed++ {
		room, parent, ok := attachRoom(rng, rooms)
		if !ok {
			break
		}
		stampRoom(grid, room)
		carveDoor(rng, grid, rooms[parent], room)
		rooms = append(rooms, room)
	}

	placeExteriorDoor(rng, grid, rooms[0])
	return crop(grid)
}

// attachRoom tries to place a new room flush against a randomly chosen side
// of a randomly chosen existing room. Flush means the facing walls occupy
// adjacent cells; rooms never share a cell. The new room must stay on the
// canvas and keep one tile of clearance from every room but its parent.
func attachRoom(rng *rand.Rand, rooms []roomRect) (roomRect, int, bool) {
	for try := 0; try < attachRetries; try++ {
		pi := rng.Intn(len(rooms))
		parent := rooms[pi]
		w := roomMinInterior + rng.Intn(roomMaxInterior-roomMinInterior+1) + 2
		h := roomMinInterior + rng.Intn(roomMaxInterior-roomMinInterior+1) + 2

		var room roomRect
		switch rng.Intn(4) {
		case 0: // right of parent
			room = roomRect{x: parent.x + parent.w, y: parent.y + rng.Intn(parent.h) - h/2, w: w, h: h}
		case 1: // left
			room = roomRect{x: parent.x - w, y: parent.y + rng.Intn(parent.h) - h/2, w: w, h: h}
		case 2: // below
			room = roomRect{x: parent.x + rng.Intn(parent.w) - w/2, y: parent.y + parent.h, w: w, h: h}
		case 3: // above
			room = roomRect{x: parent.x + rng.Intn(parent.w) - w/2, y: parent.y - h, w: w, h: h}
		}

		if room.x < 1 || room.y < 1 ||
			room.x+room.w > blueprintCanvas-1 || room.y+room.h > blueprintCanvas-1 {
			continue
		}
		clear := true
		for i, r := range rooms {
			if i == pi {
				continue
			}
			if room.overlaps(r, 1) {
				clear = false
				break
			}
		}
		if !clear {
			continue
		}
		// The facing walls must actually share a span so a door can connect.
		if spanOverlap(parent, room) < 3 {
			continue
		}
		return room, pi, true
	}
	return roomRect{}, 0, false
}

// spanOverlap is the length of the shared boundary span between two rooms
// placed flush against each other.
func spanOverlap(a, b roomRect) int {
	if a.x+a.w == b.x || b.x+b.w == a.x { // horizontal neighbors
		lo, hi := maxi(a.y, b.y), mini(a.y+a.h, b.y+b.h)
		return hi - lo
	}
	lo, hi := maxi(a.x, b.x), mini(a.x+a.w, b.x+b.w)
	return hi - lo
}

func stampRoom(grid [][]byte, r roomRect) {
	for y := r.y; y < r.y+r.h; y++ {
		for x := r.x; x < r.x+r.w; x++ {
			if x == r.x || x == r.x+r.w-1 || y == r.y || y == r.y+r.h-1 {
				if grid[y][x] == ' ' {
					grid[y][x] = CellWall
				}
			} else {
				grid[y][x] = CellFloor
			}
		}
	}
}

// carveDoor opens a passage between two flush rooms: one door cell in each
// facing wall at a shared row or column.
func carveDoor(rng *rand.Rand, grid [][]byte, a, b roomRect) {
	switch {
	case a.x+a.w == b.x: // b right of a
		y := doorSpot(rng, a.y, a.y+a.h, b.y, b.y+b.h)
		grid[y][a.x+a.w-1] = CellDoor
		grid[y][b.x] = CellDoor
	case b.x+b.w == a.x: // b left of a
		y := doorSpot(rng, a.y, a.y+a.h, b.y, b.y+b.h)
		grid[y][a.x] = CellDoor
		grid[y][b.x+b.w-1] = CellDoor
	case a.y+a.h == b.y: // b below a
		x := doorSpot(rng, a.x, a.x+a.w, b.x, b.x+b.w)
		grid[a.y+a.h-1][x] = CellDoor
		grid[b.y][x] = CellDoor
	default: // b above a
		x := doorSpot(rng, a.x, a.x+a.w, b.x, b.x+b.w)
		grid[a.y][x] = CellDoor
		grid[b.y+b.h-1][x] = CellDoor
	}
}

// doorSpot picks a coordinate strictly inside the shared span so the door
// never lands on a corner cell.
func doorSpot(rng *rand.Rand, aLo, aHi, bLo, bHi int) int {
	lo := maxi(aLo, bLo) + 1
	hi := mini(aHi, bHi) - 1
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo)
}

// placeExteriorDoor converts one exterior-facing wall cell into the
// building's entrance. Candidates are wall cells bordering untouched space,
// collected in scan order and chosen by seeded index; if none exist the first
// room's south wall midpoint is forced open.
func placeExteriorDoor(rng *rand.Rand, grid [][]byte, first roomRect) {
	type cell struct{ x, y int }
	var candidates []cell
	for y := 1; y < blueprintCanvas-1; y++ {
		for x := 1; x < blueprintCanvas-1; x++ {
			if grid[y][x] != CellWall {
				continue
			}
			if grid[y-1][x] == ' ' || grid[y+1][x] == ' ' ||
				grid[y][x-1] == ' ' || grid[y][x+1] == ' ' {
				candidates = append(candidates, cell{x, y})
			}
		}
	}
	if len(candidates) == 0 {
		grid[first.y+first.h-1][first.x+first.w/2] = CellExteriorDoor
		return
	}
	c := candidates[rng.Intn(len(candidates))]
	grid[c.y][c.x] = CellExteriorDoor
}

// crop trims untouched margin rows and columns so the blueprint is the tight
// bounding box of the building.
func crop(grid [][]byte) []string {
	minX, minY := blueprintCanvas, blueprintCanvas
	maxX, maxY := -1, -1
	for y := range grid {
		for x := range grid[y] {
			if grid[y][x] != ' ' {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX < 0 {
		return nil
	}
	out := make([]string, 0, maxY-minY+1)
	for y := minY; y <= maxY; y++ {
		out = append(out, string(grid[y][minX:maxX+1]))
	}
	return out
}

func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func mini(a, b int) int {
	if a < b {
		return a
	}
	return b
}
