package protocol

import "encoding/json"

type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WelcomeMsg carries everything a client needs to render before the first
// observation: world parameters and catalog digests, so a client with a
// stale cached catalog knows to refetch.
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	Seed       int64    `json:"seed"`
	TickRateHz int      `json:"tick_rate_hz"`
	ChunkTiles int      `json:"chunk_tiles"`
	TilePixels int      `json:"tile_pixels"`
	Palette    []string `json:"palette"`

	TerrainDigest  string `json:"terrain_digest"`
	EntitiesDigest string `json:"entities_digest"`
	BiomesDigest   string `json:"biomes_digest"`
}

// MoveMsg reports the player's pixel position; it drives chunk loading.
type MoveMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Z               int     `json:"z"`
}

// DeltaMsg submits one world mutation. Delta is the world package's tagged
// delta shape, passed through opaquely so protocol stays decoupled from sim
// types.
type DeltaMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Chunk           string          `json:"chunk"`
	Delta           json.RawMessage `json:"delta"`
}

// ObsMsg is the server-pushed view: terrain of loaded chunks (run-length
// encoded against the palette) plus the visible entities, depth-sorted.
type ObsMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Tick            int64       `json:"tick"`
	Player          PlayerObs   `json:"player"`
	Chunks          []ChunkObs  `json:"chunks"`
	Entities        []EntityObs `json:"entities"`
}

type PlayerObs struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z int     `json:"z"`
}

type ChunkObs struct {
	Key     string `json:"key"`
	Terrain string `json:"terrain"`
}

type EntityObs struct {
	UID    string  `json:"uid"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      int     `json:"z"`
	Key    string  `json:"key"`
	Facing string  `json:"facing,omitempty"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}
