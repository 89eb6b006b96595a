// Package gen holds the pure generation math: biome classification, cave
// carving, and house blueprint synthesis. Everything here is a function of
// coordinates plus the world seed; chunk assembly lives in the world package.
package gen

import (
	"tilevale/internal/sim/catalogs"
	"tilevale/internal/sim/noise"
)

// Elevation thresholds for the fixed coastal biomes. These are part of the
// save-compatibility contract: moving them reshapes every existing world.
const (
	oceanBelow = 0.25
	beachBelow = 0.30
)

// Noise salts for region-level rolls, offset from the channel salts so a
// region's center jitter never correlates with its biome pick.
const (
	saltRegionJitterX = 101
	saltRegionJitterY = 103
	saltRegionBiome   = 107
	saltCave          = 113
)

// BiomeAt classifies the tile at global tile coordinates (gx, gy, gz).
// Underground levels are a single fixed biome; the surface uses elevation
// cutoffs for ocean and beach, then falls through to region selection.
func BiomeAt(cat *catalogs.BiomeCatalog, gx, gy, gz int, seed int64, regionTiles int) string {
	if gz < 0 {
		return catalogs.BiomeUnderground
	}
	elev := noise.At(noise.ChannelTerrain, gx, gy, 0, seed)
	if elev < oceanBelow {
		return catalogs.BiomeOcean
	}
	if elev < beachBelow {
		return catalogs.BiomeBeach
	}
	return regionBiome(cat, gx, gy, seed, regionTiles)
}

// regionBiome picks the biome of whichever of the 3x3 neighboring regions'
// jittered centers lies nearest the tile. Centers are jittered per region so
// biome borders are organic blobs rather than grid lines; the scan is O(9)
// hashes per tile and fully deterministic from the seed.
func regionBiome(cat *catalogs.BiomeCatalog, gx, gy int, seed int64, regionTiles int) string {
	rx0 := floorDiv(gx, regionTiles)
	ry0 := floorDiv(gy, regionTiles)

	best := ""
	bestD2 := 0.0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			rx, ry := rx0+dx, ry0+dy
			cx, cy := regionCenter(rx, ry, regionTiles, seed)
			ddx := float64(gx) - cx
			ddy := float64(gy) - cy
			d2 := ddx*ddx + ddy*ddy
			if best == "" || d2 < bestD2 {
				bestD2 = d2
				best = cat.PickWeighted(noise.Hash(float64(rx), float64(ry), 0, seed+saltRegionBiome))
			}
		}
	}
	return best
}

func regionCenter(rx, ry, regionTiles int, seed int64) (float64, float64) {
	jx := noise.Hash(float64(rx), float64(ry), 0, seed+saltRegionJitterX)
	jy := noise.Hash(float64(rx), float64(ry), 0, seed+saltRegionJitterY)
	return (float64(rx) + jx) * float64(regionTiles), (float64(ry) + jy) * float64(regionTiles)
}

// CaveWall reports whether the underground tile at (gx, gy, z) is solid rock.
// The field is smoothed and scaled, and z feeds the third noise axis so cave
// shapes differ between depth levels.
func CaveWall(gx, gy, z int, seed int64, wallThreshold float64) bool {
	v := noise.Smooth(float64(gx)/9.0, float64(gy)/9.0, float64(z)*1.7, seed+saltCave)
	return v >= wallThreshold
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}
