package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Actions sent to clients.
const (
	ActionActivity   = "activity"
	ActionMembership = "membership_updated"
	ActionPong       = "pong"
	ActionError      = "error"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload,omitempty"`
}

// Encode marshals a message, logging and returning nil on failure.
func Encode(action string, payload interface{}) []byte {
	b, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket message")
		return nil
	}
	return b
}

// NewErrorMessage builds an error reply.
func NewErrorMessage(msg string) []byte {
	return Encode(ActionError, map[string]string{"message": msg})
}
