// Package snapshot writes whole-world save files: a zstd stream holding one
// JSON header line (so tools can identify a file without decoding the body)
// followed by the gob-encoded snapshot. Terrain grids are RLE-compressed
// against the terrain palette before encoding.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"tilevale/internal/sim/encoding"
	"tilevale/internal/sim/world"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Seed    int64  `json:"seed"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed       int64    `json:"seed"`
	ChunkTiles int      `json:"chunk_tiles"`
	TilePixels int      `json:"tile_pixels"`
	Palette    []string `json:"palette"`

	Chunks []ChunkV1 `json:"chunks"`
}

type ChunkV1 struct {
	Key      string          `json:"key"`
	Terrain  string          `json:"terrain"` // RLE against Palette
	Entities []*world.Entity `json:"entities"`
}

// PackChunk converts a persistence record into the snapshot chunk shape.
func PackChunk(key string, rec world.Record, index map[string]uint16) (ChunkV1, error) {
	terrain, err := encoding.EncodeTerrain(rec.Terrain, index)
	if err != nil {
		return ChunkV1{}, fmt.Errorf("chunk %s: %w", key, err)
	}
	return ChunkV1{Key: key, Terrain: terrain, Entities: rec.Entities}, nil
}

// UnpackChunk expands a snapshot chunk back into a persistence record.
func (c ChunkV1) Unpack(chunkTiles int, palette []string) (world.Record, error) {
	grid, err := encoding.DecodeTerrain(c.Terrain, chunkTiles, chunkTiles, palette)
	if err != nil {
		return world.Record{}, fmt.Errorf("chunk %s: %w", c.Key, err)
	}
	entities := c.Entities
	if entities == nil {
		entities = []*world.Entity{}
	}
	return world.Record{Terrain: grid, Entities: entities}, nil
}

func Write(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func Read(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line is advisory; gob carries it too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
