// internal/protocol/envelope.go
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound message type discriminators. The server tags every frame with one
// of these in its "type" field.
const (
	TypeRoomWaitingState = "room_waiting_state"
	TypeRoomInGameState  = "room_in_game_state"
	TypePlayerJoined     = "player_joined"
	TypePlayerLeft       = "player_left"
	TypeGameEvent        = "game_event"
	TypeReady            = "ready"
	TypeSessionInfo      = "session_info"
	TypeError            = "error"
	TypePong             = "pong"
)

// ErrUnknownMessage is returned by Decode for a frame whose "type" field does
// not match any known discriminator. The caller logs and drops the frame.
var ErrUnknownMessage = errors.New("protocol: unknown message type")

// Envelope holds the fields common to every inbound frame. SeqNum is present
// only on state-bearing messages; control frames (pong, session_info, ready,
// error) omit it and are applied without ordering bookkeeping.
type Envelope struct {
	Type      string  `json:"type"`
	SeqNum    *uint64 `json:"seq_num,omitempty"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// Sequenced reports whether the frame carries a server-assigned sequence
// number that must be acknowledged.
func (e Envelope) Sequenced() bool {
	return e.SeqNum != nil
}

// Frame is a fully decoded inbound message: the shared envelope plus the
// typed body for the frame's discriminator.
type Frame struct {
	Envelope
	Body Message
}

// Message is implemented by every inbound message body. The union is closed;
// Decode returns ErrUnknownMessage rather than guessing a shape.
type Message interface {
	message()
}

// Decode parses a raw text frame into its envelope and typed body.
// A malformed frame or an unrecognized type yields an error; the single
// frame is dropped by the caller and processing continues.
func Decode(raw []byte) (*Frame, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("protocol: malformed frame: %w", err)
	}

	var body Message
	switch env.Type {
	case TypeRoomWaitingState:
		body = &RoomWaitingState{}
	case TypeRoomInGameState:
		body = &RoomInGameState{}
	case TypePlayerJoined:
		body = &PlayerJoined{}
	case TypePlayerLeft:
		body = &PlayerLeft{}
	case TypeGameEvent:
		body = &GameEvent{}
	case TypeReady:
		body = &Ready{}
	case TypeSessionInfo:
		body = &SessionInfo{}
	case TypeError:
		body = &ServerError{}
	case TypePong:
		body = &Pong{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}

	if err := json.Unmarshal(raw, body); err != nil {
		return nil, fmt.Errorf("protocol: malformed %s payload: %w", env.Type, err)
	}
	return &Frame{Envelope: env, Body: body}, nil
}
