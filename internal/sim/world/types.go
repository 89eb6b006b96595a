package world

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ChunkKey identifies one chunk: (chunkX, chunkY) on the horizontal grid and
// Z as the discrete level (negative = underground, 0 = surface).
type ChunkKey struct {
	CX int
	CY int
	Z  int
}

func (k ChunkKey) String() string {
	return fmt.Sprintf("%d,%d,%d", k.CX, k.CY, k.Z)
}

var chunkKeyPattern = regexp.MustCompile(`^(-?\d+),(-?\d+),(-?\d+)$`)

// ParseChunkKey parses the canonical "<cx>,<cy>,<z>" persistence key form.
func ParseChunkKey(s string) (ChunkKey, error) {
	m := chunkKeyPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ChunkKey{}, fmt.Errorf("invalid chunk key %q", s)
	}
	cx, _ := strconv.Atoi(m[1])
	cy, _ := strconv.Atoi(m[2])
	z, _ := strconv.Atoi(m[3])
	return ChunkKey{CX: cx, CY: cy, Z: z}, nil
}

// TileSentinel is returned by tile queries against unloaded chunks: callers
// treat unloaded space as solid so nothing walks into unresolved terrain.
const TileSentinel = "ROCK_WALL"

func floorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
