// Package ws serves the world over a websocket: handshake with HELLO/WELCOME,
// client-driven MOVE and DELTA messages inbound, periodic OBS pushes
// outbound. One writer goroutine per connection; the read loop never writes.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tilevale/internal/protocol"
	"tilevale/internal/sim/catalogs"
	"tilevale/internal/sim/encoding"
	"tilevale/internal/sim/tuning"
	"tilevale/internal/sim/world"
)

type Server struct {
	world    *world.World
	tuning   tuning.Tuning
	catalogs *catalogs.Catalogs
	log      *log.Logger

	obsInterval time.Duration
	upgrader    websocket.Upgrader
}

func NewServer(w *world.World, t tuning.Tuning, cats *catalogs.Catalogs, logger *log.Logger) *Server {
	return &Server{
		world:       w,
		tuning:      t,
		catalogs:    cats,
		log:         logger,
		obsInterval: 500 * time.Millisecond,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if !s.handshake(conn) {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, 16)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()
		go s.pushObs(ctx, out)

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			s.dispatch(msg)
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return false
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"),
			time.Now().Add(time.Second))
		return false
	}
	if base.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"),
			time.Now().Add(time.Second))
		return false
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		Seed:            s.world.Seed(),
		TickRateHz:      s.tuning.TickRateHz,
		ChunkTiles:      s.tuning.ChunkTiles,
		TilePixels:      s.tuning.TilePixels,
		Palette:         s.catalogs.Terrain.Palette,
		TerrainDigest:   s.catalogs.Terrain.DefsDigest,
		EntitiesDigest:  s.catalogs.Entities.Digest,
		BiomesDigest:    s.catalogs.Biomes.Digest,
	}
	b, err := json.Marshal(welcome)
	if err != nil {
		return false
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b) == nil
}

func (s *Server) dispatch(msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.ProtocolVersion != protocol.Version {
		return
	}
	switch base.Type {
	case protocol.TypeMove:
		var m protocol.MoveMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return
		}
		s.world.Moves() <- world.MoveCommand{X: m.X, Y: m.Y, Z: m.Z}

	case protocol.TypeDelta:
		var m protocol.DeltaMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return
		}
		key, err := world.ParseChunkKey(m.Chunk)
		if err != nil {
			s.log.Printf("delta with bad chunk key %q dropped", m.Chunk)
			return
		}
		var d world.Delta
		if err := json.Unmarshal(m.Delta, &d); err != nil {
			s.log.Printf("undecodable delta for %s dropped: %v", m.Chunk, err)
			return
		}
		s.world.Deltas() <- world.DeltaCommand{Key: key, Delta: d}
	}
}

// pushObs streams the world view at a fixed cadence until the connection
// dies. Terrain goes out run-length encoded against the palette.
func (s *Server) pushObs(ctx context.Context, out chan<- []byte) {
	ticker := time.NewTicker(s.obsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		resp := make(chan world.ObsView, 1)
		select {
		case s.world.Obs() <- world.ObsRequest{Resp: resp}:
		case <-ctx.Done():
			return
		}
		var view world.ObsView
		select {
		case view = <-resp:
		case <-ctx.Done():
			return
		}

		obs := protocol.ObsMsg{
			Type:            protocol.TypeObs,
			ProtocolVersion: protocol.Version,
			Tick:            view.Tick,
			Player:          protocol.PlayerObs{X: view.PlayerX, Y: view.PlayerY, Z: view.PlayerZ},
			Chunks:          make([]protocol.ChunkObs, 0, len(view.Chunks)),
			Entities:        make([]protocol.EntityObs, 0, len(view.Entities)),
		}
		for _, c := range view.Chunks {
			terrain, err := encoding.EncodeTerrain(c.Terrain, s.catalogs.Terrain.Index)
			if err != nil {
				s.log.Printf("obs encode %s: %v", c.Key, err)
				continue
			}
			obs.Chunks = append(obs.Chunks, protocol.ChunkObs{Key: c.Key.String(), Terrain: terrain})
		}
		for _, e := range view.Entities {
			obs.Entities = append(obs.Entities, protocol.EntityObs{
				UID: e.UID, X: e.X, Y: e.Y, Z: e.Z, Key: e.Key, Facing: e.Facing,
			})
		}

		b, err := json.Marshal(obs)
		if err != nil {
			continue
		}
		select {
		case out <- b:
		default:
			// Slow client: skip this frame rather than stall the pusher.
		}
	}
}
