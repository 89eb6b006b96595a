// Package catalogs loads the immutable definition data the engine consumes:
// terrain tiles, entity templates, biome rules, and items. Files are JSON,
// validated against the schemas in configs/schemas, loaded once at startup
// and treated as read-only lookup tables afterwards.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

type Catalogs struct {
	Terrain  TerrainCatalog
	Entities EntityCatalog
	Biomes   BiomeCatalog
	Items    ItemCatalog
}

type TerrainCatalog struct {
	Defs          map[string]TerrainDef
	Palette       []string
	Index         map[string]uint16
	DefsDigest    string
	PaletteDigest string
}

type TerrainDef struct {
	ID    string `json:"id"`
	Solid bool   `json:"solid"`
}

type EntityCatalog struct {
	Templates map[string]EntityTemplate
	Digest    string
}

// EntityTemplate is the declarative description of an entity: its render
// mode and the ordered component descriptor list instantiated at creation.
type EntityTemplate struct {
	Key        string          `json:"key"`
	RenderMode string          `json:"render_mode,omitempty"`
	Components []ComponentDesc `json:"components"`
}

type ComponentDesc struct {
	Type string          `json:"type"`
	Args json.RawMessage `json:"args,omitempty"`
}

type BiomeCatalog struct {
	Defs map[string]BiomeDef
	// Weighted holds the region-selectable biomes (weight > 0) in sorted key
	// order with cumulative weights, ready for a deterministic roll.
	Weighted    []WeightedBiome
	TotalWeight float64
	Digest      string
}

type BiomeDef struct {
	Key    string      `json:"key"`
	Weight float64     `json:"weight"`
	Tile   string      `json:"tile"`
	Spawns []SpawnRule `json:"spawns,omitempty"`
	Houses bool        `json:"houses,omitempty"`
}

// SpawnRule spawns Template on a tile when the named noise channel exceeds
// Threshold. Threshold values are part of the save-compatibility contract;
// changing them changes every world generated from an existing seed.
type SpawnRule struct {
	Template  string  `json:"template"`
	Channel   string  `json:"channel"`
	Threshold float64 `json:"threshold"`
}

type WeightedBiome struct {
	Key        string
	Cumulative float64
}

type ItemCatalog struct {
	Defs   map[string]ItemDef
	Digest string
}

type ItemDef struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// Fixed biome keys the generator special-cases. They must exist in
// biomes.json but carry zero region weight.
const (
	BiomeOcean       = "OCEAN"
	BiomeBeach       = "BEACH"
	BiomeUnderground = "UNDERGROUND"
)

// requiredTiles are tile keys the generator and query surface reference
// directly; loading fails fast if a config drops one.
var requiredTiles = []string{
	"WATER", "SAND", "GRASS", "STONE_GROUND", "DIRT",
	"WOOD_FLOOR", "CAVE_FLOOR", "ROCK_WALL",
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadTerrain(configDir, &c.Terrain); err != nil {
		return nil, err
	}
	if err := loadEntities(configDir, &c.Entities); err != nil {
		return nil, err
	}
	if err := loadBiomes(configDir, &c.Biomes, c.Terrain.Defs); err != nil {
		return nil, err
	}
	if err := loadItems(configDir, &c.Items); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// readValidated reads a JSON config file and, when a matching schema file
// exists under configs/schemas, validates the document against it before
// returning the raw bytes.
func readValidated(configDir, name string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(configDir, name))
	if err != nil {
		return nil, err
	}
	schemaPath := filepath.Join(configDir, "schemas", schemaFor(name))
	if _, err := os.Stat(schemaPath); err == nil {
		sch, err := jsonschema.Compile(schemaPath)
		if err != nil {
			return nil, fmt.Errorf("%s schema: %w", name, err)
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := sch.Validate(doc); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return raw, nil
}

func schemaFor(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)] + ".schema" + ext
}

func loadTerrain(configDir string, out *TerrainCatalog) error {
	raw, err := readValidated(configDir, "terrain.json")
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []TerrainDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("terrain.json: %w", err)
	}
	out.Defs = map[string]TerrainDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("terrain.json: empty id")
		}
		out.Defs[d.ID] = d
	}
	for _, id := range requiredTiles {
		if _, ok := out.Defs[id]; !ok {
			return fmt.Errorf("terrain.json: missing required tile %s", id)
		}
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadEntities(configDir string, out *EntityCatalog) error {
	raw, err := readValidated(configDir, "entities.json")
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []EntityTemplate
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("entities.json: %w", err)
	}
	out.Templates = map[string]EntityTemplate{}
	for _, d := range defs {
		if d.Key == "" {
			return fmt.Errorf("entities.json: empty key")
		}
		out.Templates[d.Key] = d
	}
	return nil
}

func loadBiomes(configDir string, out *BiomeCatalog, terrain map[string]TerrainDef) error {
	raw, err := readValidated(configDir, "biomes.json")
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []BiomeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("biomes.json: %w", err)
	}
	out.Defs = map[string]BiomeDef{}
	for _, d := range defs {
		if d.Key == "" {
			return fmt.Errorf("biomes.json: empty key")
		}
		if _, ok := terrain[d.Tile]; d.Tile != "" && !ok {
			return fmt.Errorf("biomes.json: biome %s references unknown tile %s", d.Key, d.Tile)
		}
		out.Defs[d.Key] = d
	}
	for _, k := range []string{BiomeOcean, BiomeBeach, BiomeUnderground} {
		if _, ok := out.Defs[k]; !ok {
			return fmt.Errorf("biomes.json: missing fixed biome %s", k)
		}
	}

	// Cumulative weight table over sorted keys; order matters for
	// deterministic region classification.
	keys := make([]string, 0, len(out.Defs))
	for k := range out.Defs {
		if out.Defs[k].Weight > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return fmt.Errorf("biomes.json: no region-weighted biomes")
	}
	var cum float64
	for _, k := range keys {
		cum += out.Defs[k].Weight
		out.Weighted = append(out.Weighted, WeightedBiome{Key: k, Cumulative: cum})
	}
	out.TotalWeight = cum
	return nil
}

// PickWeighted maps a roll in [0,1) to a region biome key.
func (b *BiomeCatalog) PickWeighted(roll float64) string {
	target := roll * b.TotalWeight
	for _, w := range b.Weighted {
		if target < w.Cumulative {
			return w.Key
		}
	}
	return b.Weighted[len(b.Weighted)-1].Key
}

func loadItems(configDir string, out *ItemCatalog) error {
	raw, err := readValidated(configDir, "items.json")
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		out.Defs[d.ID] = d
	}
	return nil
}
