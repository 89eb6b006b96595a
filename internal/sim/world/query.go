package world

import (
	"sort"
)

// MapTileKey resolves the tile at global tile coordinates. Unloaded space
// reads as the solid sentinel so movement and collision treat it as
// impassable rather than walkable void.
func (w *World) MapTileKey(gx, gy, gz int) string {
	tiles := w.tuning.ChunkTiles
	key := ChunkKey{CX: floorDiv(gx, tiles), CY: floorDiv(gy, tiles), Z: gz}
	c := w.chunks[key]
	if c == nil {
		return TileSentinel
	}
	return c.TileAt(mod(gx, tiles), mod(gy, tiles))
}

// TileSolid reports whether the tile at a global coordinate blocks movement,
// per the terrain catalog. Unknown tiles and unloaded space are solid.
func (w *World) TileSolid(gx, gy, gz int) bool {
	def, ok := w.catalogs.Terrain.Defs[w.MapTileKey(gx, gy, gz)]
	if !ok {
		return true
	}
	return def.Solid
}

// ChunkKeyFor returns the key of the chunk owning the entity's position.
func (w *World) ChunkKeyFor(e *Entity) ChunkKey {
	tx, ty := e.tileOf(w.tuning.TilePixels)
	tiles := w.tuning.ChunkTiles
	return ChunkKey{CX: floorDiv(tx, tiles), CY: floorDiv(ty, tiles), Z: e.Z}
}

// FindEntityAt returns the interaction-eligible entity whose tile contains
// the given pixel position at the player's current level, or nil. Only
// entities carrying an interaction component qualify.
func (w *World) FindEntityAt(worldX, worldY float64) *Entity {
	tp := w.tuning.TilePixels
	tx := floorDiv(int(worldX), tp)
	ty := floorDiv(int(worldY), tp)
	tiles := w.tuning.ChunkTiles
	key := ChunkKey{CX: floorDiv(tx, tiles), CY: floorDiv(ty, tiles), Z: w.playerZ}
	c := w.chunks[key]
	if c == nil {
		return nil
	}
	for _, e := range c.Entities {
		if !e.Components.interactable() {
			continue
		}
		etx, ety := e.tileOf(tp)
		if etx == tx && ety == ty {
			return e
		}
	}
	return nil
}

// FindEntityByUID scans every loaded chunk for the UID. Linear in loaded
// entities; callers on hot paths should hold the entity instead.
func (w *World) FindEntityByUID(uid string) *Entity {
	for _, c := range w.chunks {
		if _, e := c.findEntity(uid); e != nil {
			return e
		}
	}
	return nil
}

// VisibleObjects returns every entity on the player's current level across
// loaded chunks, sorted by y so painters draw back-to-front.
func (w *World) VisibleObjects() []*Entity {
	var out []*Entity
	for _, c := range w.chunks {
		if c.Key.Z != w.playerZ {
			continue
		}
		out = append(out, c.Entities...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].UID < out[j].UID
	})
	return out
}

// ActiveCounts reports the sizes of the fast-path indices; tests and the
// status endpoint use it to check index/store consistency.
func (w *World) ActiveCounts() (ai, growth int) {
	return len(w.activeAI), len(w.activeGrowth)
}

// LoadedChunks returns the number of resident chunks.
func (w *World) LoadedChunks() int { return len(w.chunks) }

// Chunk exposes a resident chunk for read-only inspection, or nil.
func (w *World) Chunk(key ChunkKey) *Chunk { return w.chunks[key] }

// IsDirty reports whether the chunk is currently marked dirty.
func (w *World) IsDirty(key ChunkKey) bool { return w.dirty[key] }

// sortedUIDs snapshots an index in deterministic order for system ticks.
func sortedUIDs(m map[string]*Entity) []string {
	uids := make([]string, 0, len(m))
	for uid := range m {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}
