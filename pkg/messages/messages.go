package messages

import "errors"

// CommandType is the discriminant of an outbound command.
type CommandType string

// Command types
const (
	CommandTypeStartGame CommandType = "start_game"
	CommandTypeGetState  CommandType = "get_state"
)

// Command is a flat client to server command with no payload.
type Command struct {
	Type CommandType `json:"type"`
}

// ErrMalformedSnapshot is wrapped by every snapshot decoding error.
var ErrMalformedSnapshot = errors.New("malformed game state snapshot")
