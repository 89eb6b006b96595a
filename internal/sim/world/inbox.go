package world

// Commands from transport goroutines. The world owns all mutable state, so
// connections never touch it directly: they post to these channels and the
// Run loop applies commands between ticks.

type MoveCommand struct {
	X, Y float64
	Z    int
}

type DeltaCommand struct {
	Key   ChunkKey
	Delta Delta
}

// ObsRequest asks the owner loop for a copy-safe view of the loaded world.
type ObsRequest struct {
	Resp chan ObsView
}

type ObsView struct {
	Tick    int64
	PlayerX float64
	PlayerY float64
	PlayerZ int

	Chunks   []ChunkView
	Entities []EntityView
}

// ChunkView carries a deep copy of the terrain grid; the live grid keeps
// mutating on the owner goroutine after the view is handed out.
type ChunkView struct {
	Key     ChunkKey
	Terrain [][]string
}

type EntityView struct {
	UID    string
	X, Y   float64
	Z      int
	Key    string
	Facing string
}

func (w *World) Moves() chan<- MoveCommand   { return w.moveCh }
func (w *World) Deltas() chan<- DeltaCommand { return w.deltaCh }
func (w *World) Obs() chan<- ObsRequest      { return w.obsCh }

func (w *World) handleMove(m MoveCommand) {
	w.UpdateActiveChunks(m.X, m.Y, m.Z)
	w.playerX, w.playerY = m.X, m.Y
}

func (w *World) handleObs(req ObsRequest) {
	view := ObsView{
		Tick:    w.tick,
		PlayerX: w.playerX,
		PlayerY: w.playerY,
		PlayerZ: w.playerZ,
	}
	for key, c := range w.chunks {
		if key.Z != w.playerZ {
			continue
		}
		terrain := make([][]string, len(c.Terrain))
		for i, row := range c.Terrain {
			terrain[i] = append([]string(nil), row...)
		}
		view.Chunks = append(view.Chunks, ChunkView{Key: key, Terrain: terrain})
	}
	for _, e := range w.VisibleObjects() {
		view.Entities = append(view.Entities, EntityView{
			UID: e.UID, X: e.X, Y: e.Y, Z: e.Z, Key: e.Key, Facing: e.Facing,
		})
	}
	req.Resp <- view
}
