package world

import (
	"sort"
)

// The tile-transport system moves items between grid-snapped machines:
// sources produce into the machine they face, pipes forward their buffer
// head downstream, depots just accumulate. Everything runs on the owner
// goroutine in deterministic order, so two worlds with the same state tick
// identically.

type pipeNode struct {
	e   *Entity
	key ChunkKey
}

// stepPipes runs one transport tick across all loaded chunks.
func (w *World) stepPipes() {
	nodes := w.collectPipeNodes()
	byTile := make(map[[3]int]*pipeNode, len(nodes))
	tp := w.tuning.TilePixels
	for i := range nodes {
		tx, ty := nodes[i].e.tileOf(tp)
		byTile[[3]int{tx, ty, nodes[i].e.Z}] = &nodes[i]
	}

	// Forward pass first: draining downstream buffers before sources emit
	// keeps a full chain moving one slot per tick instead of stalling.
	for i := range nodes {
		n := &nodes[i]
		pl := n.e.Components.PipeLogic
		dir := n.e.Components.OutputDirection
		if pl == nil || dir == nil || len(pl.Buffer) == 0 {
			continue
		}
		if w.pushItem(byTile, n, dir, pl.Buffer[0]) {
			pl.Buffer = pl.Buffer[1:]
			w.dirty[n.key] = true
		}
	}

	for i := range nodes {
		n := &nodes[i]
		src := n.e.Components.ItemSource
		if src == nil {
			continue
		}
		src.Progress += w.tuning.PipeEveryTicks
		if src.Progress < src.EveryTicks {
			continue
		}
		dir := n.e.Components.OutputDirection
		if dir == nil {
			continue
		}
		if w.pushItem(byTile, n, dir, src.Item) {
			src.Progress -= src.EveryTicks
			w.dirty[n.key] = true
		}
		// A blocked source holds at maturity rather than overproducing.
		if src.Progress > src.EveryTicks {
			src.Progress = src.EveryTicks
		}
	}
}

// pushItem offers one item to the machine the node faces. It succeeds only
// if a buffered machine with spare capacity sits on the target tile.
func (w *World) pushItem(byTile map[[3]int]*pipeNode, n *pipeNode, dir *OutputDirection, item string) bool {
	tx, ty := n.e.tileOf(w.tuning.TilePixels)
	dst, ok := byTile[[3]int{tx + dir.DX, ty + dir.DY, n.e.Z}]
	if !ok {
		return false
	}
	pl := dst.e.Components.PipeLogic
	if pl == nil || len(pl.Buffer) >= pl.Capacity {
		return false
	}
	pl.Buffer = append(pl.Buffer, item)
	w.dirty[dst.key] = true
	return true
}

// collectPipeNodes gathers every transport-relevant entity from loaded
// chunks in UID order.
func (w *World) collectPipeNodes() []pipeNode {
	var nodes []pipeNode
	for key, c := range w.chunks {
		for _, e := range c.Entities {
			if e.Components.PipeLogic != nil || e.Components.ItemSource != nil {
				nodes = append(nodes, pipeNode{e: e, key: key})
			}
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].e.UID < nodes[j].e.UID })
	return nodes
}
