package world

import (
	"log/slog"
)

// DeltaKind tags the mutation variants. The set is closed: RecordDelta
// rejects anything else.
type DeltaKind string

const (
	DeltaAddEntity     DeltaKind = "ADD_ENTITY"
	DeltaRemoveEntity  DeltaKind = "REMOVE_ENTITY"
	DeltaReplaceEntity DeltaKind = "REPLACE_ENTITY"
	DeltaMoveEntity    DeltaKind = "MOVE_ENTITY"
	DeltaChangeTile    DeltaKind = "CHANGE_TILE"
)

// Delta is one world mutation. Which fields are meaningful depends on Kind;
// the constructors below build well-formed values.
type Delta struct {
	Kind DeltaKind `json:"kind"`

	// ADD_ENTITY, REPLACE_ENTITY
	Entity *Entity `json:"entity,omitempty"`

	// REMOVE_ENTITY, REPLACE_ENTITY, MOVE_ENTITY
	UID string `json:"uid,omitempty"`

	// MOVE_ENTITY: new pixel position within the same chunk.
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// CHANGE_TILE: chunk-local tile coordinate and new tile key.
	TX   int    `json:"tx,omitempty"`
	TY   int    `json:"ty,omitempty"`
	Tile string `json:"tile,omitempty"`
}

func AddEntity(e *Entity) Delta     { return Delta{Kind: DeltaAddEntity, Entity: e} }
func RemoveEntity(uid string) Delta { return Delta{Kind: DeltaRemoveEntity, UID: uid} }
func ReplaceEntity(uid string, e *Entity) Delta {
	return Delta{Kind: DeltaReplaceEntity, UID: uid, Entity: e}
}
func MoveEntity(uid string, x, y float64) Delta {
	return Delta{Kind: DeltaMoveEntity, UID: uid, X: x, Y: y}
}
func ChangeTile(tx, ty int, tile string) Delta {
	return Delta{Kind: DeltaChangeTile, TX: tx, TY: ty, Tile: tile}
}

// journalEntry is the audit-log shape of an applied delta.
type journalEntry struct {
	Chunk string `json:"chunk"`
	Delta Delta  `json:"delta"`
	Tick  int64  `json:"tick"`
}

// RecordDelta applies one mutation to the chunk at key. It is the single
// entrypoint every gameplay-driven world change goes through: it keeps the
// chunk store, the active-entity indices, and the dirty set consistent in
// one synchronous step. A delta against a chunk that is not loaded is
// dropped with a warning; it is never queued or retried, and callers get no
// error, so they must not assume a delta always lands.
func (w *World) RecordDelta(key ChunkKey, d Delta) {
	c := w.chunks[key]
	if c == nil {
		w.Metrics.DroppedDeltas++
		slog.Warn("delta against unloaded chunk dropped", "key", key, "kind", d.Kind)
		return
	}

	switch d.Kind {
	case DeltaAddEntity:
		if d.Entity == nil {
			slog.Warn("ADD_ENTITY without entity", "key", key)
			return
		}
		c.Entities = append(c.Entities, d.Entity)
		w.register(d.Entity)

	case DeltaRemoveEntity:
		// Removing an absent UID leaves the chunk unchanged.
		if e, ok := c.removeEntity(d.UID); ok {
			w.deregister(e)
		}

	case DeltaReplaceEntity:
		if d.Entity == nil {
			slog.Warn("REPLACE_ENTITY without entity", "key", key)
			return
		}
		if i, old := c.findEntity(d.UID); i >= 0 {
			c.Entities[i] = d.Entity
			w.deregister(old)
		} else {
			w.Metrics.ReplaceMisses++
			slog.Warn("REPLACE_ENTITY target missing, adding instead", "key", key, "uid", d.UID)
			c.Entities = append(c.Entities, d.Entity)
		}
		w.register(d.Entity)

	case DeltaMoveEntity:
		// Position update only; crossing a chunk boundary is a distinct
		// operation (MoveEntityToNewChunk).
		if _, e := c.findEntity(d.UID); e != nil {
			e.X, e.Y = d.X, d.Y
		}

	case DeltaChangeTile:
		if d.TY < 0 || d.TY >= len(c.Terrain) || d.TX < 0 || d.TX >= len(c.Terrain[d.TY]) {
			slog.Warn("CHANGE_TILE out of range", "key", key, "tx", d.TX, "ty", d.TY)
			return
		}
		c.Terrain[d.TY][d.TX] = d.Tile

	default:
		slog.Warn("unknown delta kind", "kind", d.Kind)
		return
	}

	w.dirty[key] = true
	if w.journal != nil {
		if err := w.journal.Append(journalEntry{Chunk: key.String(), Delta: d, Tick: w.tick}); err != nil {
			slog.Warn("journal append failed", "err", err)
		}
	}
}

// RecordDeltaFromEntity routes a delta to the chunk owning the entity's
// current position.
func (w *World) RecordDeltaFromEntity(e *Entity, d Delta) {
	w.RecordDelta(w.ChunkKeyFor(e), d)
}

// MoveEntityToNewChunk transfers an entity across a chunk boundary. The old
// chunk drops it without touching the active indices; if the destination is
// loaded the entity joins it and both chunks are marked dirty. If the
// destination is NOT loaded the entity is dropped from the world and purged
// from both indices. Loss at the loaded frontier is the intended policy:
// nothing simulates inside unloaded space, so nothing may live there.
func (w *World) MoveEntityToNewChunk(e *Entity, oldKey, newKey ChunkKey) {
	if old := w.chunks[oldKey]; old != nil {
		if _, ok := old.removeEntity(e.UID); ok {
			w.dirty[oldKey] = true
		}
	}
	dst := w.chunks[newKey]
	if dst == nil {
		w.Metrics.FrontierDrops++
		w.deregister(e)
		slog.Warn("entity crossed into unloaded chunk, dropped", "uid", e.UID, "dst", newKey)
		return
	}
	dst.Entities = append(dst.Entities, e)
	w.dirty[newKey] = true
}
