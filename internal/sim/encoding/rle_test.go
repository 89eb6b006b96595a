package encoding

import (
	"testing"
)

func testPalette() ([]string, map[string]uint16) {
	palette := []string{"CAVE_FLOOR", "GRASS", "ROCK_WALL", "WATER"}
	index := make(map[string]uint16, len(palette))
	for i, k := range palette {
		index[k] = uint16(i)
	}
	return palette, index
}

func TestEncodeTerrain_RoundTrip(t *testing.T) {
	palette, index := testPalette()

	grid := make([][]string, 8)
	for y := range grid {
		grid[y] = make([]string, 8)
		for x := range grid[y] {
			grid[y][x] = palette[(x/3+y)%len(palette)]
		}
	}

	enc, err := EncodeTerrain(grid, index)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := DecodeTerrain(enc, 8, 8, palette)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for y := range grid {
		for x := range grid[y] {
			if dec[y][x] != grid[y][x] {
				t.Fatalf("(%d,%d): %s != %s", x, y, dec[y][x], grid[y][x])
			}
		}
	}
}

func TestEncodeTerrain_UniformGridIsTiny(t *testing.T) {
	palette, index := testPalette()
	grid := make([][]string, 60)
	for y := range grid {
		grid[y] = make([]string, 60)
		for x := range grid[y] {
			grid[y][x] = "WATER"
		}
	}
	enc, err := EncodeTerrain(grid, index)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// One run pair: a handful of base64 bytes, not 3600 entries.
	if len(enc) > 16 {
		t.Fatalf("uniform grid encoded to %d bytes", len(enc))
	}
	dec, err := DecodeTerrain(enc, 60, 60, palette)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec[59][59] != "WATER" {
		t.Fatalf("decode corrupted uniform grid")
	}
}

func TestEncodeTerrain_UnknownTileRejected(t *testing.T) {
	_, index := testPalette()
	if _, err := EncodeTerrain([][]string{{"LAVA"}}, index); err == nil {
		t.Fatalf("unknown tile accepted")
	}
}

func TestDecodeTerrain_BadInputs(t *testing.T) {
	palette, index := testPalette()
	enc, _ := EncodeTerrain([][]string{{"WATER", "WATER"}}, index)

	if _, err := DecodeTerrain(enc, 3, 3, palette); err == nil {
		t.Fatalf("short data accepted for larger grid")
	}
	if _, err := DecodeTerrain("!!!not-base64!!!", 1, 1, palette); err == nil {
		t.Fatalf("invalid base64 accepted")
	}
	if _, err := DecodeTerrain(enc, 2, 1, palette); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if _, err := DecodeTerrain(enc, 2, 1, nil); err == nil {
		t.Fatalf("empty palette accepted")
	}
}
