package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"tilevale/internal/persistence/chunkdb"
	persistlog "tilevale/internal/persistence/log"
	"tilevale/internal/persistence/remote"
	"tilevale/internal/persistence/snapshot"
	"tilevale/internal/sim/catalogs"
	"tilevale/internal/sim/tuning"
	"tilevale/internal/sim/world"
	"tilevale/internal/transport/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr       = flag.String("addr", ":8080", "listen address")
		dataDir    = flag.String("data", "./data", "data directory")
		configDir  = flag.String("configs", "./configs", "config directory")
		worldID    = flag.String("world", "world1", "world identifier")
		seed       = flag.Int64("seed", 0, "seed for a fresh world (0 = derive from time)")
		journalOn  = flag.Bool("journal", true, "write the delta journal")
		snapshotAt = flag.String("snapshot-on-exit", "", "write a snapshot to this path on shutdown")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	logger := log.New(os.Stderr, "ws ", log.LstdFlags)

	t, err := tuning.Load(filepath.Join(*configDir, "tuning.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("tuning: %w", err)
		}
		t = tuning.Default()
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		return fmt.Errorf("catalogs: %w", err)
	}

	db, err := chunkdb.Open(filepath.Join(*dataDir, *worldID, "chunks.db"))
	if err != nil {
		return fmt.Errorf("chunkdb: %w", err)
	}
	defer db.Close()

	newSeed := *seed
	if newSeed == 0 {
		newSeed = time.Now().UnixNano()
	}

	var opts world.Options
	if endpoint := os.Getenv("REMOTE_S3_ENDPOINT"); endpoint != "" {
		rc, err := remote.New(endpoint,
			os.Getenv("REMOTE_S3_BUCKET"), *worldID,
			os.Getenv("REMOTE_S3_ACCESS_KEY_ID"), os.Getenv("REMOTE_S3_SECRET_ACCESS_KEY"))
		if err != nil {
			return fmt.Errorf("remote: %w", err)
		}
		opts.Remote = rc
	}
	var journal *persistlog.Journal
	if *journalOn {
		journal = persistlog.NewJournal(filepath.Join(*dataDir, *worldID, "journal"), "deltas")
		defer journal.Close()
		opts.Journal = journal
	}

	w, err := world.New(t, cats, db, newSeed, opts)
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}
	slog.Info("world ready", "id", *worldID, "seed", w.Seed())

	// Load the spawn neighborhood before accepting clients.
	w.UpdateActiveChunks(0, 0, 0)
	w.SyncPending()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ws.NewServer(w, t, cats, logger).Handler())
	srv := &http.Server{Addr: *addr, Handler: mux}

	errCh := make(chan error, 2)
	go func() {
		slog.Info("listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stop()
		return err
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutCtx)

	if *snapshotAt != "" {
		if err := writeSnapshot(*snapshotAt, *worldID, w, t, cats); err != nil {
			slog.Error("snapshot on exit failed", "err", err)
		}
	}
	if err := w.Close(); err != nil {
		slog.Error("final flush failed", "err", err)
	}
	slog.Info("shutdown complete")
	return nil
}

func writeSnapshot(path, worldID string, w *world.World, t tuning.Tuning, cats *catalogs.Catalogs) error {
	snap := snapshot.SnapshotV1{
		Header:     snapshot.Header{Version: 1, WorldID: worldID, Seed: w.Seed()},
		Seed:       w.Seed(),
		ChunkTiles: t.ChunkTiles,
		TilePixels: t.TilePixels,
		Palette:    cats.Terrain.Palette,
	}
	for key, rec := range w.ResidentChunksData() {
		c, err := snapshot.PackChunk(key, rec, cats.Terrain.Index)
		if err != nil {
			return err
		}
		snap.Chunks = append(snap.Chunks, c)
	}
	return snapshot.Write(path, snap)
}
