package snapshot

import (
	"path/filepath"
	"testing"

	"tilevale/internal/sim/world"
)

func testPalette() ([]string, map[string]uint16) {
	palette := []string{"GRASS", "ROCK_WALL", "WATER"}
	index := make(map[string]uint16, len(palette))
	for i, k := range palette {
		index[k] = uint16(i)
	}
	return palette, index
}

func TestSnapshot_RoundTrip(t *testing.T) {
	palette, index := testPalette()

	grid := make([][]string, 4)
	for y := range grid {
		grid[y] = make([]string, 4)
		for x := range grid[y] {
			grid[y][x] = palette[(x+y)%len(palette)]
		}
	}
	rec := world.Record{
		Terrain: grid,
		Entities: []*world.Entity{
			{UID: "NPC-0,0,0-2x2", X: 40, Y: 40, Z: 0, Key: "NPC", Facing: "down"},
		},
	}

	chunk, err := PackChunk("0,0,0", rec, index)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	snap := SnapshotV1{
		Header:     Header{Version: 1, WorldID: "w1", Seed: 1234},
		Seed:       1234,
		ChunkTiles: 4,
		TilePixels: 16,
		Palette:    palette,
		Chunks:     []ChunkV1{chunk},
	}

	path := filepath.Join(t.TempDir(), "snaps", "world.snap.zst")
	if err := Write(path, snap); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Seed != 1234 || got.Header.WorldID != "w1" {
		t.Fatalf("header lost: %+v", got.Header)
	}
	if len(got.Chunks) != 1 {
		t.Fatalf("chunks = %d", len(got.Chunks))
	}

	back, err := got.Chunks[0].Unpack(got.ChunkTiles, got.Palette)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	for y := range grid {
		for x := range grid[y] {
			if back.Terrain[y][x] != grid[y][x] {
				t.Fatalf("terrain (%d,%d): %s != %s", x, y, back.Terrain[y][x], grid[y][x])
			}
		}
	}
	if len(back.Entities) != 1 || back.Entities[0].UID != "NPC-0,0,0-2x2" {
		t.Fatalf("entities = %+v", back.Entities)
	}
}

func TestUnpack_WrongDimensionsRejected(t *testing.T) {
	palette, index := testPalette()
	rec := world.Record{
		Terrain:  [][]string{{"GRASS", "GRASS"}},
		Entities: []*world.Entity{},
	}
	chunk, err := PackChunk("0,0,0", rec, index)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if _, err := chunk.Unpack(4, palette); err == nil {
		t.Fatalf("short terrain accepted for 4x4 grid")
	}
}
