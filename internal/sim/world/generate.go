package world

import (
	"tilevale/internal/sim/catalogs"
	"tilevale/internal/sim/noise"
	"tilevale/internal/sim/world/gen"
)

// Spawn chunk layout: the plaza circle and its landmark entities, plus the
// guaranteed stairway back up from the first underground level. Offsets are
// chunk-local tile coordinates inside chunk (0,0,0) / (0,0,-1).
const (
	plazaCenterTX = 30
	plazaCenterTY = 30
	plazaRadius   = 8

	undergroundStairsTX = 28
	undergroundStairsTY = 32
)

var plazaEntities = []struct {
	template string
	tx, ty   int
}{
	{"STATUE", 30, 30},
	{"STAIRS_DOWN", 34, 30},
	{"CRAFTING_TABLE", 26, 30},
	{"TREE", 30, 26},
	{"NPC", 30, 34},
}

// generateChunk produces the procedural content for one chunk key. It is a
// pure function of (seed, key, catalogs, tuning): revisiting a never-saved
// chunk yields byte-identical content.
func (w *World) generateChunk(key ChunkKey) *Chunk {
	if key.Z < 0 {
		return w.generateUnderground(key)
	}
	c := w.generateSurface(key)
	if key.CX == 0 && key.CY == 0 && key.Z == 0 {
		w.applySpawnPlazaOverrides(c)
	}
	return c
}

func (w *World) generateSurface(key ChunkKey) *Chunk {
	tiles := w.tuning.ChunkTiles
	c := newChunk(key, tiles)

	for ty := 0; ty < tiles; ty++ {
		gy := key.CY*tiles + ty
		for tx := 0; tx < tiles; tx++ {
			gx := key.CX*tiles + tx
			s := noise.NewSampler(gx, gy, key.Z, w.seed)
			biome := w.catalogs.Biomes.Defs[gen.BiomeAt(&w.catalogs.Biomes, gx, gy, key.Z, w.seed, w.tuning.Gen.BiomeRegionTiles)]
			c.Terrain[ty][tx] = biome.Tile
			w.spawnForTile(c, biome, s, tx, ty, gx, gy)
		}
	}

	w.stampHouses(c)
	return c
}

// spawnForTile applies the biome's spawn rules in declared order; the first
// rule whose channel clears its threshold places one entity at the tile
// center and wins the tile.
func (w *World) spawnForTile(c *Chunk, biome catalogs.BiomeDef, s *noise.Sampler, tx, ty, gx, gy int) {
	for _, rule := range biome.Spawns {
		if s.Get(noise.Channel(rule.Channel)) < rule.Threshold {
			continue
		}
		px, py := w.tileCenter(gx, gy)
		if e := w.factory.CreateEntity(rule.Template, px, py, c.Key.Z, GenUID(rule.Template, c.Key, tx, ty)); e != nil {
			c.Entities = append(c.Entities, e)
		}
		return
	}
}

// stampHouses scans the global anchor grid around the chunk and stamps every
// house whose footprint intersects it. The scan window extends one blueprint
// canvas past the chunk so a building anchored in a neighbor still writes its
// overhanging cells here, keeping structures seamless across chunk borders.
func (w *World) stampHouses(c *Chunk) {
	tiles := w.tuning.ChunkTiles
	step := w.tuning.Gen.HouseAnchorTiles
	margin := 40 // blueprint canvas bound

	gx0 := c.Key.CX * tiles
	gy0 := c.Key.CY * tiles

	startX := floorDiv(gx0-margin, step) * step
	startY := floorDiv(gy0-margin, step) * step
	for ay := startY; ay < gy0+tiles+margin; ay += step {
		for ax := startX; ax < gx0+tiles+margin; ax += step {
			if noise.At(noise.ChannelSpecial, ax, ay, c.Key.Z, w.seed) < w.tuning.Gen.HouseThreshold {
				continue
			}
			biome := w.catalogs.Biomes.Defs[gen.BiomeAt(&w.catalogs.Biomes, ax, ay, c.Key.Z, w.seed, w.tuning.Gen.BiomeRegionTiles)]
			if !biome.Houses {
				continue
			}
			bp := gen.HouseBlueprint(w.tuning.Gen.HouseRooms, houseSeed(w.seed, ax, ay))
			if len(bp) == 0 {
				continue
			}
			w.placeHouse(c, bp, ax, ay)
		}
	}
}

// houseSeed folds the anchor coordinate into the world seed so each anchor
// draws an independent but reproducible blueprint.
func houseSeed(seed int64, ax, ay int) int64 {
	return seed + int64(ax)*73856093 + int64(ay)*19349663
}

// placeHouse stamps a blueprint anchored at global tile (ax, ay) into the
// chunk. The site is cleared first: every entity inside the footprint's
// pixel bounding box is removed. Walls get a floor tile written beneath them
// so demolishing a wall later reveals flooring, not raw biome ground.
func (w *World) placeHouse(c *Chunk, bp []string, ax, ay int) {
	tiles := w.tuning.ChunkTiles
	tp := w.tuning.TilePixels
	gx0 := c.Key.CX * tiles
	gy0 := c.Key.CY * tiles

	minPX := float64(ax * tp)
	minPY := float64(ay * tp)
	maxPX := float64((ax + len(bp[0])) * tp)
	maxPY := float64((ay + len(bp)) * tp)
	kept := c.Entities[:0]
	for _, e := range c.Entities {
		if e.X >= minPX && e.X < maxPX && e.Y >= minPY && e.Y < maxPY {
			continue
		}
		kept = append(kept, e)
	}
	c.Entities = kept

	for row, line := range bp {
		gy := ay + row
		ty := gy - gy0
		if ty < 0 || ty >= tiles {
			continue
		}
		for col := 0; col < len(line); col++ {
			gx := ax + col
			tx := gx - gx0
			if tx < 0 || tx >= tiles {
				continue
			}
			cell := line[col]
			if cell == ' ' {
				continue
			}
			c.Terrain[ty][tx] = "WOOD_FLOOR"
			var template string
			switch cell {
			case gen.CellWall:
				template = "WOOD_WALL"
			case gen.CellDoor, gen.CellExteriorDoor:
				template = "WOOD_DOOR"
			default:
				continue
			}
			px, py := w.tileCenter(gx, gy)
			if e := w.factory.CreateEntity(template, px, py, c.Key.Z, GenUID(template, c.Key, tx, ty)); e != nil {
				c.Entities = append(c.Entities, e)
			}
		}
	}
}

// applySpawnPlazaOverrides carves the fixed starting plaza into the spawn
// chunk: a stone circle cleared of procedural spawns, with one of each
// landmark entity at a fixed offset.
func (w *World) applySpawnPlazaOverrides(c *Chunk) {
	tp := w.tuning.TilePixels

	kept := c.Entities[:0]
	for _, e := range c.Entities {
		tx := int(e.X) / tp
		ty := int(e.Y) / tp
		if inPlaza(tx, ty) {
			continue
		}
		kept = append(kept, e)
	}
	c.Entities = kept

	for ty := plazaCenterTY - plazaRadius; ty <= plazaCenterTY+plazaRadius; ty++ {
		for tx := plazaCenterTX - plazaRadius; tx <= plazaCenterTX+plazaRadius; tx++ {
			if inPlaza(tx, ty) {
				c.Terrain[ty][tx] = "STONE_GROUND"
			}
		}
	}

	for _, p := range plazaEntities {
		px, py := w.tileCenter(p.tx, p.ty)
		if e := w.factory.CreateEntity(p.template, px, py, 0, GenUID(p.template, c.Key, p.tx, p.ty)); e != nil {
			c.Entities = append(c.Entities, e)
		}
	}
}

func inPlaza(tx, ty int) bool {
	dx := tx - plazaCenterTX
	dy := ty - plazaCenterTY
	return dx*dx+dy*dy <= plazaRadius*plazaRadius
}

func (w *World) generateUnderground(key ChunkKey) *Chunk {
	tiles := w.tuning.ChunkTiles
	c := newChunk(key, tiles)

	for ty := 0; ty < tiles; ty++ {
		gy := key.CY*tiles + ty
		for tx := 0; tx < tiles; tx++ {
			gx := key.CX*tiles + tx
			if !gen.CaveWall(gx, gy, key.Z, w.seed, w.tuning.Gen.CaveWallThreshold) {
				c.Terrain[ty][tx] = "CAVE_FLOOR"
				continue
			}
			c.Terrain[ty][tx] = "ROCK_WALL"
			if noise.At(noise.ChannelMineral, gx, gy, key.Z, w.seed) >= w.tuning.Gen.OreThreshold {
				px, py := w.tileCenter(gx, gy)
				if e := w.factory.CreateEntity("ORE_VEIN", px, py, key.Z, GenUID("ORE_VEIN", key, tx, ty)); e != nil {
					c.Entities = append(c.Entities, e)
				}
			}
		}
	}

	// Guaranteed way back to the surface from the spawn chunk's first
	// underground level, whatever the cave noise says there.
	if key.CX == 0 && key.CY == 0 && key.Z == -1 {
		c.Terrain[undergroundStairsTY][undergroundStairsTX] = "CAVE_FLOOR"
		c.removeEntity(GenUID("ORE_VEIN", key, undergroundStairsTX, undergroundStairsTY))
		gx := key.CX*tiles + undergroundStairsTX
		gy := key.CY*tiles + undergroundStairsTY
		px, py := w.tileCenter(gx, gy)
		if e := w.factory.CreateEntity("STAIRS_UP", px, py, key.Z, GenUID("STAIRS_UP", key, undergroundStairsTX, undergroundStairsTY)); e != nil {
			c.Entities = append(c.Entities, e)
		}
	}
	return c
}

// tileCenter converts a global tile coordinate to the pixel position of the
// tile's center, where generated entities stand.
func (w *World) tileCenter(gx, gy int) (float64, float64) {
	tp := w.tuning.TilePixels
	return float64(gx*tp + tp/2), float64(gy*tp + tp/2)
}
