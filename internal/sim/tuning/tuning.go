package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz     int `yaml:"tick_rate_hz"`
	ChunkTiles     int `yaml:"chunk_tiles"`
	TilePixels     int `yaml:"tile_pixels"`
	ActiveRadius   int `yaml:"active_radius"`
	EvictRadius    int `yaml:"evict_radius"`
	SaveQueueDepth int `yaml:"save_queue_depth"`

	GrowthEveryTicks int `yaml:"growth_every_ticks"`
	PipeEveryTicks   int `yaml:"pipe_every_ticks"`
	AIEveryTicks     int `yaml:"ai_every_ticks"`

	Gen GenTuning `yaml:"gen"`
}

type GenTuning struct {
	BiomeRegionTiles  int     `yaml:"biome_region_tiles"`
	HouseAnchorTiles  int     `yaml:"house_anchor_tiles"`
	HouseThreshold    float64 `yaml:"house_threshold"`
	HouseRooms        int     `yaml:"house_rooms"`
	CaveWallThreshold float64 `yaml:"cave_wall_threshold"`
	OreThreshold      float64 `yaml:"ore_threshold"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.ApplyDefaults()
	return t, nil
}

// Default returns tuning with every field at its default. Used by tests and
// by callers that run without a config directory.
func Default() Tuning {
	var t Tuning
	t.ApplyDefaults()
	return t
}

func (t *Tuning) ApplyDefaults() {
	if t.ProtocolVersion == "" {
		t.ProtocolVersion = "1.0"
	}
	if t.TickRateHz <= 0 {
		t.TickRateHz = 10
	}
	if t.ChunkTiles <= 0 {
		t.ChunkTiles = 60
	}
	if t.TilePixels <= 0 {
		t.TilePixels = 16
	}
	if t.ActiveRadius <= 0 {
		t.ActiveRadius = 1
	}
	// Eviction is wider than activation so chunks don't thrash at the border.
	if t.EvictRadius <= 0 {
		t.EvictRadius = 2
	}
	if t.SaveQueueDepth <= 0 {
		t.SaveQueueDepth = 64
	}
	if t.GrowthEveryTicks <= 0 {
		t.GrowthEveryTicks = 20
	}
	if t.PipeEveryTicks <= 0 {
		t.PipeEveryTicks = 5
	}
	if t.AIEveryTicks <= 0 {
		t.AIEveryTicks = 2
	}
	t.Gen.applyDefaults()
}

func (g *GenTuning) applyDefaults() {
	if g.BiomeRegionTiles <= 0 {
		g.BiomeRegionTiles = 48
	}
	if g.HouseAnchorTiles <= 0 {
		g.HouseAnchorTiles = 20
	}
	if g.HouseThreshold <= 0 {
		g.HouseThreshold = 0.985
	}
	if g.HouseRooms <= 0 {
		g.HouseRooms = 3
	}
	if g.CaveWallThreshold <= 0 {
		g.CaveWallThreshold = 0.55
	}
	if g.OreThreshold <= 0 {
		g.OreThreshold = 0.93
	}
}
