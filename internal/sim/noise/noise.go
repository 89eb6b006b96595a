// Package noise provides the deterministic value source for all procedural
// decisions in the engine. Every function here is a pure function of its
// inputs plus the world seed; nothing reads clocks, RNG state, or globals.
package noise

import (
	"log/slog"
	"math"
)

// Hash maps a world coordinate and seed to a value in [0,1).
// It is a trigonometric scramble (sine of a weighted linear combination,
// fractional part extracted), not real randomness, but it is stable across
// runs and platforms for the same inputs, which is all worldgen needs.
func Hash(x, y, z float64, seed int64) float64 {
	s := float64(seed)
	v := math.Sin(x*127.1+y*311.7+z*74.7+s*0.6180339887) * 43758.5453123
	f := v - math.Floor(v)
	if f >= 1 {
		// Guard against float rounding pushing the fract to exactly 1.
		f = math.Nextafter(1, 0)
	}
	return f
}

// Smooth returns spatially coherent noise by trilinear interpolation of Hash
// across the 8 integer lattice points surrounding (x, y, z).
func Smooth(x, y, z float64, seed int64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	fx, fy, fz := x-x0, y-y0, z-z0

	c000 := Hash(x0, y0, z0, seed)
	c100 := Hash(x0+1, y0, z0, seed)
	c010 := Hash(x0, y0+1, z0, seed)
	c110 := Hash(x0+1, y0+1, z0, seed)
	c001 := Hash(x0, y0, z0+1, seed)
	c101 := Hash(x0+1, y0, z0+1, seed)
	c011 := Hash(x0, y0+1, z0+1, seed)
	c111 := Hash(x0+1, y0+1, z0+1, seed)

	i00 := lerp(c000, c100, fx)
	i10 := lerp(c010, c110, fx)
	i01 := lerp(c001, c101, fx)
	i11 := lerp(c011, c111, fx)

	return lerp(lerp(i00, i10, fy), lerp(i01, i11, fy), fz)
}

func lerp(a, b, t float64) float64 { return a + t*(b-a) }

// Channel names a semantic use of noise. Each channel has its own spatial
// frequency and sampling mode so biome rules can ask for noise by purpose
// without knowing scale constants.
type Channel string

const (
	ChannelTerrain    Channel = "terrain"
	ChannelVegetation Channel = "vegetation"
	ChannelMineral    Channel = "mineral"
	ChannelNPC        Channel = "npc"
	ChannelAnimal     Channel = "animal"
	ChannelEnemy      Channel = "enemy"
	ChannelSpecial    Channel = "special"
)

type channelSpec struct {
	scale  float64
	smooth bool
	salt   int64
}

var channelSpecs = map[Channel]channelSpec{
	ChannelTerrain:    {scale: 1.0 / 150, smooth: true, salt: 11},
	ChannelVegetation: {scale: 1, smooth: false, salt: 23},
	ChannelMineral:    {scale: 1.0 / 6, smooth: true, salt: 37},
	ChannelNPC:        {scale: 1.0 / 40, smooth: true, salt: 41},
	ChannelAnimal:     {scale: 1.0 / 25, smooth: true, salt: 53},
	ChannelEnemy:      {scale: 1.0 / 30, smooth: true, salt: 67},
	ChannelSpecial:    {scale: 1, smooth: false, salt: 79},
}

// At samples one channel at a world tile coordinate.
// An unrecognized channel falls back to vegetation so a bad biome definition
// degrades to harmless clutter instead of failing generation.
func At(ch Channel, x, y int, z int, seed int64) float64 {
	spec, ok := channelSpecs[ch]
	if !ok {
		slog.Warn("unknown noise channel, using vegetation", "channel", string(ch))
		spec = channelSpecs[ChannelVegetation]
	}
	fx := float64(x) * spec.scale
	fy := float64(y) * spec.scale
	fz := float64(z)
	if spec.smooth {
		return Smooth(fx, fy, fz, seed+spec.salt)
	}
	return Hash(fx, fy, fz, seed+spec.salt)
}

// Sampler caches per-channel values for a single tile. A tile's generation
// rule may consult several channels; each is computed at most once.
type Sampler struct {
	X, Y, Z int
	Seed    int64

	memo map[Channel]float64
}

func NewSampler(x, y, z int, seed int64) *Sampler {
	return &Sampler{X: x, Y: y, Z: z, Seed: seed}
}

func (s *Sampler) Get(ch Channel) float64 {
	if v, ok := s.memo[ch]; ok {
		return v
	}
	v := At(ch, s.X, s.Y, s.Z, s.Seed)
	if s.memo == nil {
		s.memo = make(map[Channel]float64, 4)
	}
	s.memo[ch] = v
	return v
}
