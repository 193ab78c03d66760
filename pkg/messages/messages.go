package messages

import (
	"encoding/json"
	"fmt"

	gametypes "github.com/gridgames/gridlock/pkg/game/types"
)

// Message types
const (
	MessageTypeServerState = "state"
	MessageTypeServerError = "error"
	MessageTypeClientMove  = "move"
	MessageTypeClientReset = "reset"
)

// Message is the tagged envelope exchanged over the real-time channel.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ClientMove is the payload of a client "move" message.
type ClientMove struct {
	Index    int    `json:"index"`
	PlayerID string `json:"playerId"`
}

// ServerError is the payload of a server "error" message. It answers only
// the connection that sent a rejected message.
type ServerError struct {
	Error string `json:"error"`
}

// NewServerState builds a state push envelope carrying the session snapshot.
func NewServerState(state *gametypes.SessionState) (*Message, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session state: %v", err)
	}
	return &Message{
		Type:    MessageTypeServerState,
		Payload: payload,
	}, nil
}

// NewServerError builds an error envelope.
func NewServerError(text string) (*Message, error) {
	payload, err := json.Marshal(ServerError{Error: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal error: %v", err)
	}
	return &Message{
		Type:    MessageTypeServerError,
		Payload: payload,
	}, nil
}

// NewClientMove builds a move envelope.
func NewClientMove(index int, playerID string) (*Message, error) {
	payload, err := json.Marshal(ClientMove{Index: index, PlayerID: playerID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal move: %v", err)
	}
	return &Message{
		Type:    MessageTypeClientMove,
		Payload: payload,
	}, nil
}
