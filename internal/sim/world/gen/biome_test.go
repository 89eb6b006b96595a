package gen

import (
	"testing"

	"tilevale/internal/sim/catalogs"
	"tilevale/internal/sim/noise"
)

func loadBiomes(t *testing.T) *catalogs.BiomeCatalog {
	t.Helper()
	cats, err := catalogs.Load("../../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return &cats.Biomes
}

func TestBiomeAt_UndergroundFixed(t *testing.T) {
	cat := loadBiomes(t)
	for _, z := range []int{-1, -2, -10} {
		if got := BiomeAt(cat, 100, 200, z, 1, 48); got != catalogs.BiomeUnderground {
			t.Fatalf("biome at z=%d is %s, want %s", z, got, catalogs.BiomeUnderground)
		}
	}
}

// The 0.25/0.30 elevation cutoffs are part of the save-compatibility
// contract: every tile below them classifies as OCEAN or BEACH no matter
// what the region scan would say.
func TestBiomeAt_ElevationCutoffs(t *testing.T) {
	cat := loadBiomes(t)
	const seed = 2024

	foundOcean, foundBeach := false, false
	for gy := 0; gy < 3000; gy += 31 {
		for gx := 0; gx < 3000; gx += 31 {
			elev := noise.At(noise.ChannelTerrain, gx, gy, 0, seed)
			got := BiomeAt(cat, gx, gy, 0, seed, 48)
			switch {
			case elev < 0.25:
				if got != catalogs.BiomeOcean {
					t.Fatalf("(%d,%d) elev %.3f classified %s, want OCEAN", gx, gy, elev, got)
				}
				foundOcean = true
			case elev < 0.30:
				if got != catalogs.BiomeBeach {
					t.Fatalf("(%d,%d) elev %.3f classified %s, want BEACH", gx, gy, elev, got)
				}
				foundBeach = true
			default:
				if got == catalogs.BiomeOcean || got == catalogs.BiomeBeach {
					t.Fatalf("(%d,%d) elev %.3f classified %s above the cutoffs", gx, gy, elev, got)
				}
			}
		}
	}
	if !foundOcean || !foundBeach {
		t.Fatalf("scan found ocean=%v beach=%v; widen the range", foundOcean, foundBeach)
	}
}

func TestBiomeAt_Deterministic(t *testing.T) {
	cat := loadBiomes(t)
	for i := 0; i < 64; i++ {
		gx, gy := i*17-300, i*31-500
		a := BiomeAt(cat, gx, gy, 0, 777, 48)
		b := BiomeAt(cat, gx, gy, 0, 777, 48)
		if a != b {
			t.Fatalf("biome at (%d,%d) unstable: %s vs %s", gx, gy, a, b)
		}
		if _, ok := cat.Defs[a]; !ok {
			t.Fatalf("biome at (%d,%d) = %q not in catalog", gx, gy, a)
		}
	}
}

func TestBiomeAt_SeedChangesRegions(t *testing.T) {
	cat := loadBiomes(t)
	diff := 0
	for i := 0; i < 256; i++ {
		gx, gy := i*53, i*29
		if BiomeAt(cat, gx, gy, 0, 1, 48) != BiomeAt(cat, gx, gy, 0, 2, 48) {
			diff++
		}
	}
	if diff == 0 {
		t.Fatalf("seeds 1 and 2 classify all 256 samples identically")
	}
}

func TestCaveWall_DeterministicAndMixed(t *testing.T) {
	walls := 0
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			a := CaveWall(x, y, -1, 99, 0.55)
			if a != CaveWall(x, y, -1, 99, 0.55) {
				t.Fatalf("cave wall unstable at (%d,%d)", x, y)
			}
			if a {
				walls++
			}
		}
	}
	if walls == 0 || walls == 60*60 {
		t.Fatalf("degenerate cave field: %d walls of %d", walls, 60*60)
	}

	// Depth feeds the noise field, so layers differ.
	same := true
	for y := 0; y < 30 && same; y++ {
		for x := 0; x < 30; x++ {
			if CaveWall(x, y, -1, 99, 0.55) != CaveWall(x, y, -2, 99, 0.55) {
				same = false
				break
			}
		}
	}
	if same {
		t.Fatalf("z=-1 and z=-2 cave layers identical")
	}
}
