package world

// Chunk is one square of world state: a tile grid indexed [ty][tx] plus the
// entities resident in it. Entities own continuous pixel positions; the
// chunk is simply the storage bucket their position maps to.
type Chunk struct {
	Key      ChunkKey
	Terrain  [][]string
	Entities []*Entity
}

func newChunk(key ChunkKey, tiles int) *Chunk {
	terrain := make([][]string, tiles)
	for i := range terrain {
		terrain[i] = make([]string, tiles)
	}
	return &Chunk{Key: key, Terrain: terrain}
}

// TileAt returns the tile key at chunk-local coordinates, or the solid
// sentinel when out of range.
func (c *Chunk) TileAt(tx, ty int) string {
	if ty < 0 || ty >= len(c.Terrain) || tx < 0 || tx >= len(c.Terrain[ty]) {
		return TileSentinel
	}
	return c.Terrain[ty][tx]
}

func (c *Chunk) findEntity(uid string) (int, *Entity) {
	for i, e := range c.Entities {
		if e.UID == uid {
			return i, e
		}
	}
	return -1, nil
}

// removeEntity removes by UID and reports whether anything was removed.
// Removing an absent UID is a no-op, not an error.
func (c *Chunk) removeEntity(uid string) (*Entity, bool) {
	i, e := c.findEntity(uid)
	if i < 0 {
		return nil, false
	}
	c.Entities = append(c.Entities[:i], c.Entities[i+1:]...)
	return e, true
}

// Record is the persistence shape of a chunk: plain JSON with the full tile
// grid and entity list. The chunk key lives outside the record, as the
// key-value store key.
type Record struct {
	Terrain  [][]string `json:"terrain"`
	Entities []*Entity  `json:"entities"`
}

func (c *Chunk) Record() Record {
	return Record{Terrain: c.Terrain, Entities: c.Entities}
}

// Valid reports whether a loaded record is usable. A record missing its
// terrain or entity list is treated as absent and the chunk regenerated.
func (r Record) Valid() bool {
	return len(r.Terrain) > 0 && r.Entities != nil
}

func chunkFromRecord(key ChunkKey, r Record) *Chunk {
	return &Chunk{Key: key, Terrain: r.Terrain, Entities: r.Entities}
}
