// Package protocol defines the JSON frames exchanged with websocket clients
package protocol

import (
	"encoding/json"
)

// MessageType identifies a frame
type MessageType string

// Inbound message types
const (
	TypeJoinLobby     MessageType = "join_lobby"
	TypeToggleReady   MessageType = "toggle_ready"
	TypeStartMatch    MessageType = "start_match"
	TypeSetSoloMode   MessageType = "set_solo_mode"
	TypeAddAIPlayer   MessageType = "add_ai_player"
	TypeGameAction    MessageType = "game_action"
	TypeReconnect     MessageType = "reconnect"
	TypeLivenessProbe MessageType = "liveness_probe"
)

// Outbound message types not backed by a model event
const (
	TypeLivenessAck MessageType = "liveness_ack"
)

// Envelope is the outer shape of every frame
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode wraps payload in an envelope of the given type
func Encode(t MessageType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: t, Payload: raw})
}
