package world

import (
	"testing"
)

func TestMapTileKey_UnloadedIsSentinel(t *testing.T) {
	w, _ := newTestWorld(t, 3)
	if got := w.MapTileKey(10_000, 10_000, 0); got != TileSentinel {
		t.Fatalf("unloaded tile = %s, want %s", got, TileSentinel)
	}
	if !w.TileSolid(10_000, 10_000, 0) {
		t.Fatalf("unloaded space must read as solid")
	}
}

func TestMapTileKey_NegativeCoordinates(t *testing.T) {
	w, _ := newTestWorld(t, 3)
	loadSpawn(t, w)

	// Tile (-1,-1) lives in chunk (-1,-1) at local (59,59).
	want := w.Chunk(ChunkKey{CX: -1, CY: -1, Z: 0}).TileAt(59, 59)
	if got := w.MapTileKey(-1, -1, 0); got != want {
		t.Fatalf("MapTileKey(-1,-1) = %s, want %s", got, want)
	}
}

func TestParseChunkKey(t *testing.T) {
	key, err := ParseChunkKey("-3,12,-1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if key != (ChunkKey{CX: -3, CY: 12, Z: -1}) {
		t.Fatalf("parsed %+v", key)
	}
	if key.String() != "-3,12,-1" {
		t.Fatalf("round trip = %s", key.String())
	}
	for _, bad := range []string{"", "1,2", "a,b,c", "1,2,3,4", "1.5,2,3"} {
		if _, err := ParseChunkKey(bad); err == nil {
			t.Fatalf("ParseChunkKey(%q) accepted", bad)
		}
	}
}

func TestFindEntityAt_InteractablesOnly(t *testing.T) {
	w, _ := newTestWorld(t, 3)
	loadSpawn(t, w)

	// The deer carries no interaction component; the tree does.
	px, py := w.tileCenter(10, 10)
	deer := w.factory.CreateEntity("DEER", px, py, 0, RuntimeUID("DEER", spawnKey()))
	w.RecordDelta(spawnKey(), AddEntity(deer))
	if got := w.FindEntityAt(px, py); got != nil {
		t.Fatalf("FindEntityAt returned non-interactable %s", got.Key)
	}

	qx, qy := w.tileCenter(11, 10)
	tree := w.factory.CreateEntity("TREE", qx, qy, 0, RuntimeUID("TREE", spawnKey()))
	w.RecordDelta(spawnKey(), AddEntity(tree))
	got := w.FindEntityAt(qx, qy)
	if got == nil || got.UID != tree.UID {
		t.Fatalf("FindEntityAt missed the tree")
	}
}

func TestVisibleObjects_SortedAndLevelFiltered(t *testing.T) {
	w, _ := newTestWorld(t, 3)
	loadSpawn(t, w)

	objs := w.VisibleObjects()
	if len(objs) == 0 {
		t.Fatalf("no visible objects in spawn neighborhood")
	}
	for i := 1; i < len(objs); i++ {
		if objs[i].Y < objs[i-1].Y {
			t.Fatalf("objects not sorted by y at %d", i)
		}
	}
	for _, e := range objs {
		if e.Z != 0 {
			t.Fatalf("entity at z=%d leaked into surface view", e.Z)
		}
	}
}

func TestChunkKeyFor(t *testing.T) {
	w, _ := newTestWorld(t, 3)
	e := &Entity{UID: "x", X: -1, Y: -1, Z: 0}
	if got := w.ChunkKeyFor(e); got != (ChunkKey{CX: -1, CY: -1, Z: 0}) {
		t.Fatalf("ChunkKeyFor = %v", got)
	}
	e2 := &Entity{UID: "y", X: 960, Y: 0, Z: -2}
	if got := w.ChunkKeyFor(e2); got != (ChunkKey{CX: 1, CY: 0, Z: -2}) {
		t.Fatalf("ChunkKeyFor = %v", got)
	}
}
