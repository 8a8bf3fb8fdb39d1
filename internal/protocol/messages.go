// internal/protocol/messages.go
package protocol

// WirePlayer is a waiting-room participant as sent by the server.
type WirePlayer struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	IsHost   bool   `json:"isHost"`
}

// WireCard is a card as sent by the server. Rank and suit are the sentinel
// "UNKNOWN" for cards the viewer is not allowed to see; the server never
// sends a card that is only half known.
type WireCard struct {
	ID   string `json:"id"`
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// WireGamePlayer is an in-game participant: identity plus their ordered hand.
type WireGamePlayer struct {
	ID                string     `json:"id"`
	Nickname          string     `json:"nickname"`
	Cards             []WireCard `json:"cards"`
	HasCalledEndRound bool       `json:"has_called_end_round"`
}

// WireSpecialAction describes the pending card-rank ability the server is
// waiting on, and which player owns it.
type WireSpecialAction struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// WireRoom carries room identity and the waiting-room player list.
type WireRoom struct {
	ID      string       `json:"id"`
	Players []WirePlayer `json:"players"`
}

// WireGame is the in-game slice of a checkpoint snapshot.
type WireGame struct {
	CurrentPlayerID   string             `json:"current_player_id"`
	Phase             string             `json:"phase"`
	Players           []WireGamePlayer   `json:"players"`
	TopDiscardCard    *WireCard          `json:"top_discard_card"`
	PlayedCard        *WireCard          `json:"played_card"`
	SpecialAction     *WireSpecialAction `json:"special_action"`
	StackCaller       string             `json:"stack_caller"`
	CaboCalledBy      string             `json:"cabo_called_by"`
	FinalRoundStarted bool               `json:"final_round_started"`
}

// RoomWaitingState is the waiting-room checkpoint. It replaces the room slice
// of the state tree wholesale.
type RoomWaitingState struct {
	Room WireRoom `json:"room"`
}

// RoomInGameState is the in-progress-game checkpoint. It replaces both the
// room and game slices of the state tree wholesale.
type RoomInGameState struct {
	Room WireRoom `json:"room"`
	Game WireGame `json:"game"`
}

// PlayerJoined announces a new waiting-room participant.
type PlayerJoined struct {
	Player WirePlayer `json:"player"`
}

// PlayerLeft announces a departed participant, keyed by their session id.
type PlayerLeft struct {
	SessionID string `json:"session_id"`
}

// Ready carries the server's view of the current sequence number at the
// moment the client is considered fully synchronized.
type Ready struct {
	CurrentSeq uint64 `json:"current_seq"`
}

// SessionInfo re-identifies the caller after (re)connection.
type SessionInfo struct {
	SessionID string `json:"session_id"`
	Nickname  string `json:"nickname"`
	RoomID    string `json:"room_id"`
}

// ServerError is a diagnostic message from the server. It is surfaced in logs
// only; no inbound error is fatal to the client.
type ServerError struct {
	Message string `json:"message"`
}

// Pong answers a client ping. Unsequenced, ignored beyond liveness.
type Pong struct{}

func (*RoomWaitingState) message() {}
func (*RoomInGameState) message()  {}
func (*PlayerJoined) message()     {}
func (*PlayerLeft) message()       {}
func (*GameEvent) message()        {}
func (*Ready) message()            {}
func (*SessionInfo) message()      {}
func (*ServerError) message()      {}
func (*Pong) message()             {}
