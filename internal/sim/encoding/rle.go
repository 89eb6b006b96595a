// Package encoding compresses terrain grids for snapshots and the wire: a
// chunk's tile grid collapses to base64(varint run pairs) over the terrain
// palette, which flattens the large uniform areas worldgen produces.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeTerrain flattens a [ty][tx] grid of tile keys row-major and encodes
// it as base64(varint (palette_id, run_len) pairs). A tile key missing from
// the palette index is an error; the palette is the closed tile vocabulary.
func EncodeTerrain(grid [][]string, index map[string]uint16) (string, error) {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	flush := func(id uint16, run int) {
		n := binary.PutUvarint(tmp[:], uint64(id))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])
	}

	var cur uint16
	run := 0
	for _, row := range grid {
		for _, key := range row {
			id, ok := index[key]
			if !ok {
				return "", fmt.Errorf("tile %q not in palette", key)
			}
			if run > 0 && id == cur {
				run++
				continue
			}
			if run > 0 {
				flush(cur, run)
			}
			cur, run = id, 1
		}
	}
	if run > 0 {
		flush(cur, run)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeTerrain reverses EncodeTerrain into a width x height grid of tile
// keys looked up in the palette.
func DecodeTerrain(b64 string, width, height int, palette []string) ([][]string, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}

	grid := make([][]string, height)
	for i := range grid {
		grid[i] = make([]string, width)
	}

	pos := 0
	total := width * height
	for i := 0; i < len(raw); {
		id, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if id >= uint64(len(palette)) {
			return nil, fmt.Errorf("palette id out of range: %d", id)
		}
		key := palette[id]
		for k := 0; k < int(run); k++ {
			if pos >= total {
				return nil, fmt.Errorf("run overflows grid at %d", pos)
			}
			grid[pos/width][pos%width] = key
			pos++
		}
	}
	if pos != total {
		return nil, fmt.Errorf("short terrain data: %d of %d tiles", pos, total)
	}
	return grid, nil
}
