package world

import (
	"testing"

	"tilevale/internal/sim/catalogs"
	"tilevale/internal/sim/noise"
	"tilevale/internal/sim/world/gen"
)

func TestSpawnPlaza_Overrides(t *testing.T) {
	w, _ := newTestWorld(t, 12345)
	c := w.generateChunk(ChunkKey{CX: 0, CY: 0, Z: 0})

	for ty := plazaCenterTY - plazaRadius; ty <= plazaCenterTY+plazaRadius; ty++ {
		for tx := plazaCenterTX - plazaRadius; tx <= plazaCenterTX+plazaRadius; tx++ {
			if !inPlaza(tx, ty) {
				continue
			}
			if got := c.Terrain[ty][tx]; got != "STONE_GROUND" {
				t.Fatalf("plaza tile (%d,%d) = %s, want STONE_GROUND", tx, ty, got)
			}
		}
	}

	counts := map[string]int{}
	tp := w.tuning.TilePixels
	for _, e := range c.Entities {
		tx, ty := e.tileOf(tp)
		if inPlaza(tx, ty) {
			counts[e.Key]++
		}
	}
	for _, want := range []string{"STATUE", "STAIRS_DOWN", "CRAFTING_TABLE", "TREE", "NPC"} {
		if counts[want] != 1 {
			t.Fatalf("plaza has %d %s, want exactly 1", counts[want], want)
		}
		delete(counts, want)
	}
	if len(counts) != 0 {
		t.Fatalf("procedural entities left inside plaza circle: %v", counts)
	}
}

func TestSpawnPlaza_OnlyAtOrigin(t *testing.T) {
	w, _ := newTestWorld(t, 12345)
	c := w.generateChunk(ChunkKey{CX: 1, CY: 0, Z: 0})
	for _, e := range c.Entities {
		if e.Key == "STATUE" {
			t.Fatalf("plaza statue leaked into chunk (1,0,0)")
		}
	}
}

// houseFree reports whether no house anchor in reach of the tile passes the
// stamping gate, so the tile's terrain is purely biome-driven.
func houseFree(w *World, gx, gy int) bool {
	step := w.tuning.Gen.HouseAnchorTiles
	region := w.tuning.Gen.BiomeRegionTiles
	const margin = 40
	startX := floorDiv(gx-margin, step) * step
	startY := floorDiv(gy-margin, step) * step
	for ay := startY; ay <= gy+margin; ay += step {
		for ax := startX; ax <= gx+margin; ax += step {
			if noise.At(noise.ChannelSpecial, ax, ay, 0, w.seed) < w.tuning.Gen.HouseThreshold {
				continue
			}
			biome := w.catalogs.Biomes.Defs[gen.BiomeAt(&w.catalogs.Biomes, ax, ay, 0, w.seed, region)]
			if biome.Houses {
				return false
			}
		}
	}
	return true
}

// findBiomeTile scans chunks around (but excluding) the spawn chunk for a
// house-free tile classified as the given biome, returning its chunk key and
// local coordinates.
func findBiomeTile(t *testing.T, w *World, biome string) (ChunkKey, int, int) {
	t.Helper()
	tiles := w.tuning.ChunkTiles
	region := w.tuning.Gen.BiomeRegionTiles
	for cy := -6; cy <= 6; cy++ {
		for cx := -6; cx <= 6; cx++ {
			if cx == 0 && cy == 0 {
				continue
			}
			for ty := 0; ty < tiles; ty += 4 {
				for tx := 0; tx < tiles; tx += 4 {
					gx, gy := cx*tiles+tx, cy*tiles+ty
					if gen.BiomeAt(&w.catalogs.Biomes, gx, gy, 0, w.seed, region) == biome && houseFree(w, gx, gy) {
						return ChunkKey{CX: cx, CY: cy, Z: 0}, tx, ty
					}
				}
			}
		}
	}
	t.Fatalf("no %s tile within six chunks of spawn", biome)
	return ChunkKey{}, 0, 0
}

func TestSurface_OceanTilesAreWaterAndEmpty(t *testing.T) {
	w, _ := newTestWorld(t, 2024)
	key, tx, ty := findBiomeTile(t, w, catalogs.BiomeOcean)
	c := w.generateChunk(key)

	if got := c.Terrain[ty][tx]; got != "WATER" {
		t.Fatalf("ocean tile (%d,%d) in %s = %s, want WATER", tx, ty, key, got)
	}
	tp := w.tuning.TilePixels
	tiles := w.tuning.ChunkTiles
	for _, e := range c.Entities {
		gx, gy := e.tileOf(tp)
		if mod(gx, tiles) == tx && mod(gy, tiles) == ty {
			t.Fatalf("ocean tile hosts entity %s; ocean spawns nothing", e.Key)
		}
	}
}

func TestSurface_BeachTilesAreSand(t *testing.T) {
	w, _ := newTestWorld(t, 2024)
	key, tx, ty := findBiomeTile(t, w, catalogs.BiomeBeach)
	c := w.generateChunk(key)
	if got := c.Terrain[ty][tx]; got != "SAND" {
		t.Fatalf("beach tile (%d,%d) in %s = %s, want SAND", tx, ty, key, got)
	}
}

func TestUnderground_ForcedStairs(t *testing.T) {
	w, _ := newTestWorld(t, 999)
	c := w.generateChunk(ChunkKey{CX: 0, CY: 0, Z: -1})

	if got := c.Terrain[undergroundStairsTY][undergroundStairsTX]; got != "CAVE_FLOOR" {
		t.Fatalf("stairs tile = %s, want CAVE_FLOOR", got)
	}
	tp := w.tuning.TilePixels
	found := false
	for _, e := range c.Entities {
		tx, ty := e.tileOf(tp)
		if e.Key == "STAIRS_UP" && tx == undergroundStairsTX && ty == undergroundStairsTY {
			found = true
		}
	}
	if !found {
		t.Fatalf("no STAIRS_UP at (%d,%d)", undergroundStairsTX, undergroundStairsTY)
	}
}

func TestUnderground_TilesAndOres(t *testing.T) {
	w, _ := newTestWorld(t, 31337)
	c := w.generateChunk(ChunkKey{CX: 2, CY: 2, Z: -1})

	walls, floors := 0, 0
	for ty := range c.Terrain {
		for tx := range c.Terrain[ty] {
			switch c.Terrain[ty][tx] {
			case "ROCK_WALL":
				walls++
			case "CAVE_FLOOR":
				floors++
			default:
				t.Fatalf("unexpected underground tile %s", c.Terrain[ty][tx])
			}
		}
	}
	if walls == 0 || floors == 0 {
		t.Fatalf("degenerate cave: %d walls, %d floors", walls, floors)
	}

	// Ore veins only ever sit embedded in wall tiles.
	tp := w.tuning.TilePixels
	tiles := w.tuning.ChunkTiles
	for _, e := range c.Entities {
		if e.Key != "ORE_VEIN" {
			continue
		}
		gx, gy := e.tileOf(tp)
		if got := c.Terrain[mod(gy, tiles)][mod(gx, tiles)]; got != "ROCK_WALL" {
			t.Fatalf("ORE_VEIN on %s tile", got)
		}
	}
}

func TestSurface_EntitiesMatchBiomeRules(t *testing.T) {
	w, _ := newTestWorld(t, 555)
	c := w.generateChunk(ChunkKey{CX: 4, CY: 4, Z: 0})

	// Every generated entity must come from a known template and carry the
	// components the template declares.
	for _, e := range c.Entities {
		if _, ok := w.catalogs.Entities.Templates[e.Key]; !ok {
			t.Fatalf("generated entity with unknown template %s", e.Key)
		}
		if e.UID == "" {
			t.Fatalf("generated entity without UID")
		}
	}

	// Terrain must stay within the palette.
	for ty := range c.Terrain {
		for tx := range c.Terrain[ty] {
			if _, ok := w.catalogs.Terrain.Defs[c.Terrain[ty][tx]]; !ok {
				t.Fatalf("tile (%d,%d) = %q not in terrain defs", tx, ty, c.Terrain[ty][tx])
			}
		}
	}
}
