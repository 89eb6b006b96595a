// Package world owns the authoritative game state: the chunk store, the
// active-entity indices, the dirty set, and the delta protocol through which
// every mutation flows. All three structures have a single owner goroutine;
// nothing in this package takes a lock. Background work (chunk resolution,
// eviction saves) communicates with the owner through channels.
package world

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"tilevale/internal/sim/catalogs"
	"tilevale/internal/sim/tuning"
)

// Backend is the local key-value store chunks persist to.
type Backend interface {
	SaveChunk(key string, rec Record) error
	LoadChunk(key string) (Record, bool, error)
	SaveSeed(seed int64) error
	LoadSeed() (int64, bool, error)
}

// RemoteBackend mirrors chunk saves to a networked key-value store. It is
// optional; a nil remote disables mirroring.
type RemoteBackend interface {
	PutChunk(ctx context.Context, key string, rec Record) error
}

// Journal receives every applied delta for audit logging. Optional.
type Journal interface {
	Append(v any) error
}

// Metrics counts the degenerate paths the protocol tolerates by design, so
// operators can see how often they actually fire. Owner-goroutine only.
type Metrics struct {
	DroppedDeltas int64 // deltas against unloaded chunks
	ReplaceMisses int64 // REPLACE_ENTITY falling back to add
	FrontierDrops int64 // entities lost moving into unloaded chunks
	SyncSaves     int64 // eviction saves written inline on a full queue
	Generated     int64
	Loaded        int64
	Evicted       int64
}

type resolved struct {
	key   ChunkKey
	chunk *Chunk
	isNew bool
}

type saveReq struct {
	key string
	rec Record
}

// World is the single authoritative simulation state.
type World struct {
	tuning   tuning.Tuning
	catalogs *catalogs.Catalogs
	factory  *Factory
	seed     int64

	backend Backend
	remote  RemoteBackend
	journal Journal

	chunks  map[ChunkKey]*Chunk
	pending map[ChunkKey]bool
	dirty   map[ChunkKey]bool

	activeAI     map[string]*Entity
	activeGrowth map[string]*Entity

	resolveCh chan resolved
	saveCh    chan saveReq
	saveDone  chan struct{}
	closeOnce sync.Once

	moveCh  chan MoveCommand
	deltaCh chan DeltaCommand
	obsCh   chan ObsRequest

	playerX, playerY            float64
	playerCX, playerCY, playerZ int
	tick                        int64

	Metrics Metrics
}

// Options carries the optional collaborators; zero value is a fully local,
// unaudited world.
type Options struct {
	Remote  RemoteBackend
	Journal Journal
}

// New builds a world over the given backend. The seed is restored from the
// backend when present so existing terrain reproduces verbatim; otherwise
// newSeed is persisted and used.
func New(t tuning.Tuning, cats *catalogs.Catalogs, backend Backend, newSeed int64, opts Options) (*World, error) {
	seed := newSeed
	if s, ok, err := backend.LoadSeed(); err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	} else if ok {
		seed = s
	} else if err := backend.SaveSeed(seed); err != nil {
		return nil, fmt.Errorf("save seed: %w", err)
	}

	w := &World{
		tuning:       t,
		catalogs:     cats,
		factory:      NewFactory(cats),
		seed:         seed,
		backend:      backend,
		remote:       opts.Remote,
		journal:      opts.Journal,
		chunks:       make(map[ChunkKey]*Chunk),
		pending:      make(map[ChunkKey]bool),
		dirty:        make(map[ChunkKey]bool),
		activeAI:     make(map[string]*Entity),
		activeGrowth: make(map[string]*Entity),
		resolveCh:    make(chan resolved, 32),
		saveCh:       make(chan saveReq, t.SaveQueueDepth),
		saveDone:     make(chan struct{}),
		moveCh:       make(chan MoveCommand, 16),
		deltaCh:      make(chan DeltaCommand, 64),
		obsCh:        make(chan ObsRequest, 4),
	}
	go w.saver()
	return w, nil
}

func (w *World) Seed() int64 { return w.seed }

// saver drains the background save queue. Eviction saves land here so the
// owner goroutine never blocks on disk.
func (w *World) saver() {
	defer close(w.saveDone)
	for req := range w.saveCh {
		if err := w.backend.SaveChunk(req.key, req.rec); err != nil {
			slog.Error("background chunk save failed", "key", req.key, "err", err)
		}
	}
}

// Close flushes dirty state and stops the saver. Safe to call twice; the
// world is unusable after.
func (w *World) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.FlushDirty()
		close(w.saveCh)
		<-w.saveDone
	})
	return err
}

// Run drives the simulation loop until ctx is done: it drains resolved chunk
// loads and advances the periodic systems at the configured tick rate.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.tuning.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-w.resolveCh:
			w.admit(r)
		case m := <-w.moveCh:
			w.handleMove(m)
		case d := <-w.deltaCh:
			w.RecordDelta(d.Key, d.Delta)
		case req := <-w.obsCh:
			w.handleObs(req)
		case <-ticker.C:
			w.Step()
		}
	}
}

// Step advances the world by one tick: pending resolutions are admitted,
// then each periodic system runs on its own cadence.
func (w *World) Step() {
	w.drainResolved()
	w.tick++
	if w.tick%int64(w.tuning.AIEveryTicks) == 0 {
		w.stepAI()
	}
	if w.tick%int64(w.tuning.GrowthEveryTicks) == 0 {
		w.stepGrowth()
	}
	if w.tick%int64(w.tuning.PipeEveryTicks) == 0 {
		w.stepPipes()
	}
}

// UpdateActiveChunks recomputes the loaded set around the player's pixel
// position. Loads for the 3x3 neighborhood are requested first; then any
// active chunk outside the evict radius, or on a different level, is flushed
// if dirty (fire-and-forget while the queue has room, inline otherwise) and
// removed.
func (w *World) UpdateActiveChunks(playerX, playerY float64, playerZ int) {
	tp := w.tuning.TilePixels
	tiles := w.tuning.ChunkTiles
	w.playerCX = floorDiv(floorDiv(int(playerX), tp), tiles)
	w.playerCY = floorDiv(floorDiv(int(playerY), tp), tiles)
	w.playerZ = playerZ

	r := w.tuning.ActiveRadius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			key := ChunkKey{CX: w.playerCX + dx, CY: w.playerCY + dy, Z: playerZ}
			if w.chunks[key] != nil || w.pending[key] {
				continue
			}
			w.pending[key] = true
			go w.resolve(key)
		}
	}

	for key, c := range w.chunks {
		if key.Z == playerZ &&
			absInt(key.CX-w.playerCX) <= w.tuning.EvictRadius &&
			absInt(key.CY-w.playerCY) <= w.tuning.EvictRadius {
			continue
		}
		w.evict(key, c)
	}
}

// resolve loads or generates one chunk off the owner goroutine and posts the
// result to the resolve channel. Loads have no cancellation: a chunk that
// drifted out of range while resolving is still admitted, and the next
// UpdateActiveChunks pass evicts it.
func (w *World) resolve(key ChunkKey) {
	c, isNew := w.getOrGenerateChunk(key)
	w.resolveCh <- resolved{key: key, chunk: c, isNew: isNew}
}

// getOrGenerateChunk restores the chunk from persistence when a valid record
// exists, otherwise generates it. The bool reports whether it is new, i.e.
// generated this call.
func (w *World) getOrGenerateChunk(key ChunkKey) (*Chunk, bool) {
	rec, ok, err := w.backend.LoadChunk(key.String())
	if err != nil {
		slog.Warn("chunk load failed, regenerating", "key", key, "err", err)
	} else if ok && rec.Valid() {
		return chunkFromRecord(key, rec), false
	}
	return w.generateChunk(key), true
}

func (w *World) admit(r resolved) {
	delete(w.pending, r.key)
	w.chunks[r.key] = r.chunk
	for _, e := range r.chunk.Entities {
		w.register(e)
	}
	if r.isNew {
		// First-visit content persists even if nothing ever mutates it.
		w.dirty[r.key] = true
		w.Metrics.Generated++
	} else {
		w.Metrics.Loaded++
	}
}

func (w *World) evict(key ChunkKey, c *Chunk) {
	if w.dirty[key] {
		select {
		case w.saveCh <- saveReq{key: key.String(), rec: c.Record()}:
		default:
			// Queue full: write inline rather than lose the mutations. A
			// chunk leaves the dirty set only once its state is persisted.
			w.Metrics.SyncSaves++
			slog.Warn("save queue full, writing eviction save inline", "key", key)
			if err := w.backend.SaveChunk(key.String(), c.Record()); err != nil {
				slog.Error("eviction save failed, keeping chunk resident", "key", key, "err", err)
				return
			}
		}
		delete(w.dirty, key)
	}
	for _, e := range c.Entities {
		w.deregister(e)
	}
	delete(w.chunks, key)
	w.Metrics.Evicted++
}

func (w *World) register(e *Entity) {
	if e.hasAI() {
		w.activeAI[e.UID] = e
	}
	if e.hasGrowth() {
		w.activeGrowth[e.UID] = e
	}
}

func (w *World) deregister(e *Entity) {
	delete(w.activeAI, e.UID)
	delete(w.activeGrowth, e.UID)
}

// drainResolved admits every already-completed resolution without blocking.
func (w *World) drainResolved() {
	for {
		select {
		case r := <-w.resolveCh:
			w.admit(r)
		default:
			return
		}
	}
}

// SyncPending blocks until every pending load has resolved and been
// admitted. Intended for startup and tests; the live loop admits
// incrementally via Run.
func (w *World) SyncPending() {
	for len(w.pending) > 0 {
		w.admit(<-w.resolveCh)
	}
}

// FlushDirty saves every dirty resident chunk synchronously, then clears the
// dirty set. Chunks marked dirty but no longer resident have already been
// queued by eviction and are skipped here.
func (w *World) FlushDirty() error {
	var firstErr error
	for _, key := range w.dirtyKeys() {
		c := w.chunks[key]
		if c == nil {
			delete(w.dirty, key)
			continue
		}
		if err := w.backend.SaveChunk(key.String(), c.Record()); err != nil {
			slog.Error("chunk flush failed", "key", key, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delete(w.dirty, key)
	}
	return firstErr
}

// FlushRemote mirrors every dirty resident chunk to the remote store. On
// partial failure the dirty set is kept unless forceClear is set, in which
// case it clears regardless, trading durability for forward progress.
func (w *World) FlushRemote(ctx context.Context, forceClear bool) error {
	if w.remote == nil {
		return fmt.Errorf("no remote backend configured")
	}
	var firstErr error
	for _, key := range w.dirtyKeys() {
		c := w.chunks[key]
		if c == nil {
			delete(w.dirty, key)
			continue
		}
		if err := w.remote.PutChunk(ctx, key.String(), c.Record()); err != nil {
			slog.Error("remote chunk save failed", "key", key, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			if forceClear {
				delete(w.dirty, key)
			}
			continue
		}
		delete(w.dirty, key)
	}
	return firstErr
}

// dirtyKeys snapshots the dirty set in deterministic order; flush loops
// mutate the set while iterating.
func (w *World) dirtyKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(w.dirty))
	for k := range w.dirty {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.CY != b.CY {
			return a.CY < b.CY
		}
		return a.CX < b.CX
	})
	return keys
}

// DirtyChunksData returns the persistence records of every dirty resident
// chunk, keyed by canonical chunk key.
func (w *World) DirtyChunksData() map[string]Record {
	out := make(map[string]Record, len(w.dirty))
	for _, key := range w.dirtyKeys() {
		if c := w.chunks[key]; c != nil {
			out[key.String()] = c.Record()
		}
	}
	return out
}

// ResidentChunksData returns the persistence records of every loaded chunk,
// dirty or not. Snapshot writers use it to capture the whole active world.
func (w *World) ResidentChunksData() map[string]Record {
	out := make(map[string]Record, len(w.chunks))
	for key, c := range w.chunks {
		out[key.String()] = c.Record()
	}
	return out
}

func (w *World) ClearDirtyChunks() {
	w.dirty = make(map[ChunkKey]bool)
}
