package world

import (
	"log/slog"
	"math"

	"tilevale/internal/sim/noise"
)

// stepGrowth advances every growth-bearing entity in a loaded chunk. A
// matured entity is swapped for its next template through the delta protocol
// so the chunk store, indices, and dirty set stay consistent.
func (w *World) stepGrowth() {
	for _, uid := range sortedUIDs(w.activeGrowth) {
		e := w.activeGrowth[uid]
		g := e.Components.Growth
		g.Ticks += w.tuning.GrowthEveryTicks
		if g.Ticks < g.MatureTicks {
			continue
		}
		key := w.ChunkKeyFor(e)
		mature := w.factory.CreateEntity(g.Next, e.X, e.Y, e.Z, RuntimeUID(g.Next, key))
		if mature == nil {
			// Bad next-template reference; stop re-rolling every cycle.
			slog.Warn("growth target template missing, halting growth", "uid", uid, "next", g.Next)
			g.MatureTicks = math.MaxInt32
			continue
		}
		w.RecordDelta(key, ReplaceEntity(uid, mature))
	}
}

// stepAI moves every AI-bearing entity with a noise-driven wander: heading
// is a pure function of position, tick, and seed, so replays with the same
// inputs walk the same paths. Hostile AIs wander too; chase behavior lives
// in the excluded gameplay layer.
func (w *World) stepAI() {
	tp := w.tuning.TilePixels
	perTick := float64(w.tuning.AIEveryTicks) / float64(w.tuning.TickRateHz)

	for _, uid := range sortedUIDs(w.activeAI) {
		e := w.activeAI[uid]
		ai := e.Components.MovementAI

		roll := noise.Hash(math.Floor(e.X), math.Floor(e.Y), float64(w.tick), w.seed)
		if roll < 0.3 {
			// Standing still a third of the time reads as grazing.
			ai.VX, ai.VY = 0, 0
			continue
		}
		angle := roll * 2 * math.Pi
		ai.VX = math.Cos(angle) * ai.Speed
		ai.VY = math.Sin(angle) * ai.Speed

		nx := e.X + ai.VX*perTick
		ny := e.Y + ai.VY*perTick
		if w.TileSolid(floorDiv(int(nx), tp), floorDiv(int(ny), tp), e.Z) {
			continue
		}

		oldKey := w.ChunkKeyFor(e)
		e.Facing = facingFor(ai.VX, ai.VY)
		moved := *e
		moved.X, moved.Y = nx, ny
		newKey := w.ChunkKeyFor(&moved)
		if newKey == oldKey {
			w.RecordDelta(oldKey, MoveEntity(uid, nx, ny))
			continue
		}
		e.X, e.Y = nx, ny
		w.MoveEntityToNewChunk(e, oldKey, newKey)
	}
}

func facingFor(vx, vy float64) string {
	if math.Abs(vx) > math.Abs(vy) {
		if vx < 0 {
			return "left"
		}
		return "right"
	}
	if vy < 0 {
		return "up"
	}
	return "down"
}
