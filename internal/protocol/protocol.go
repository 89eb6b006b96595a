// Package protocol defines the JSON wire messages between the world server
// and clients. Every message carries a type tag and the protocol version;
// schemas for the envelope shapes live under schemas/.
package protocol

import "encoding/json"

const Version = "1.0"

const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeMove    = "MOVE"
	TypeDelta   = "DELTA"
	TypeObs     = "OBS"
	TypeError   = "ERROR"
)

// BaseMessage is the minimal envelope decoded before dispatch.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
