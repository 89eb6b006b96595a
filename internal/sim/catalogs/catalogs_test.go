package catalogs

import (
	"testing"
)

func load(t *testing.T) *Catalogs {
	t.Helper()
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return c
}

func TestLoad_RequiredTilesPresent(t *testing.T) {
	c := load(t)
	for _, id := range requiredTiles {
		if _, ok := c.Terrain.Defs[id]; !ok {
			t.Fatalf("required tile %s missing", id)
		}
	}
	if len(c.Terrain.Palette) != len(c.Terrain.Defs) {
		t.Fatalf("palette size %d != defs %d", len(c.Terrain.Palette), len(c.Terrain.Defs))
	}
	for i, id := range c.Terrain.Palette {
		if c.Terrain.Index[id] != uint16(i) {
			t.Fatalf("palette index inconsistent at %d", i)
		}
		if i > 0 && c.Terrain.Palette[i-1] >= id {
			t.Fatalf("palette not sorted at %d", i)
		}
	}
}

func TestLoad_FixedBiomesHaveZeroWeight(t *testing.T) {
	c := load(t)
	for _, key := range []string{BiomeOcean, BiomeBeach, BiomeUnderground} {
		def, ok := c.Biomes.Defs[key]
		if !ok {
			t.Fatalf("fixed biome %s missing", key)
		}
		if def.Weight != 0 {
			t.Fatalf("fixed biome %s has region weight %f", key, def.Weight)
		}
	}
}

func TestPickWeighted_CoversAllRegionBiomes(t *testing.T) {
	c := load(t)

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		roll := float64(i) / 1000
		key := c.Biomes.PickWeighted(roll)
		def, ok := c.Biomes.Defs[key]
		if !ok {
			t.Fatalf("picked unknown biome %s", key)
		}
		if def.Weight <= 0 {
			t.Fatalf("picked zero-weight biome %s", key)
		}
		seen[key] = true
	}
	for _, w := range c.Biomes.Weighted {
		if !seen[w.Key] {
			t.Fatalf("biome %s never picked across the roll range", w.Key)
		}
	}

	// Boundary rolls stay in range.
	if c.Biomes.PickWeighted(0) == "" || c.Biomes.PickWeighted(0.999999) == "" {
		t.Fatalf("boundary roll returned empty biome")
	}
}

func TestSpawnRules_ReferenceKnownTemplatesAndChannels(t *testing.T) {
	c := load(t)
	channels := map[string]bool{
		"terrain": true, "vegetation": true, "mineral": true,
		"npc": true, "animal": true, "enemy": true, "special": true,
	}
	for key, biome := range c.Biomes.Defs {
		for _, rule := range biome.Spawns {
			if _, ok := c.Entities.Templates[rule.Template]; !ok {
				t.Fatalf("biome %s spawns unknown template %s", key, rule.Template)
			}
			if !channels[rule.Channel] {
				t.Fatalf("biome %s uses unknown channel %s", key, rule.Channel)
			}
			if rule.Threshold <= 0 || rule.Threshold >= 1 {
				t.Fatalf("biome %s threshold %f out of (0,1)", key, rule.Threshold)
			}
		}
	}
}

func TestDigests_Stable(t *testing.T) {
	a := load(t)
	b := load(t)
	if a.Terrain.DefsDigest != b.Terrain.DefsDigest ||
		a.Terrain.PaletteDigest != b.Terrain.PaletteDigest ||
		a.Entities.Digest != b.Entities.Digest ||
		a.Biomes.Digest != b.Biomes.Digest {
		t.Fatalf("digests unstable across loads")
	}
	if len(a.Terrain.DefsDigest) != 64 {
		t.Fatalf("digest is not sha256 hex: %s", a.Terrain.DefsDigest)
	}
}
