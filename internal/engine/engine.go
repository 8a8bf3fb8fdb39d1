// internal/engine/engine.go
package engine

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cabo-arena/cabo-client/internal/protocol"
)

// Sender delivers outbound intents to the server. Sending is fire-and-forget;
// a send failure is reported, never fatal to message processing.
type Sender interface {
	Send(v any) error
}

// Errors returned by client-initiated operations. Illegal attempts never
// reach the wire; the server is only ever sent intents the client believes
// are legal.
var (
	ErrNotYourTurn           = errors.New("engine: not your turn")
	ErrWrongPhase            = errors.New("engine: operation not legal in current phase")
	ErrEndRoundAlreadyCalled = errors.New("engine: end-round has already been called")
	ErrStackActive           = errors.New("engine: a stack call is already active")
	ErrNotActionOwner        = errors.New("engine: you do not own the pending action")
)

// Engine is the client-side game core. It consumes decoded frames one at a
// time, in arrival order, and is the single writer of the shared state tree.
// All mutation flows through HandleFrame and the intent methods; presentation
// reads deep-copied snapshots via Snapshot.
type Engine struct {
	mu     sync.RWMutex
	log    *logrus.Logger
	sender Sender

	state         *State
	seq           sequenceTracker
	localPlayerID string
	selection     []Selection

	// awaitingCheckpoint gates deltas: after any (re)connect the first
	// state-bearing message the engine trusts is a checkpoint, never a delta.
	awaitingCheckpoint bool

	// onChange, when set, is invoked after every applied state mutation so a
	// presentation layer can re-render. Called with the lock held; the
	// callback must only take a Snapshot, never mutate.
	onChange func()

	// onSession, when set, receives every session_info response so the
	// session holder stays current. Called with the lock held.
	onSession func(*protocol.SessionInfo)
}

// New builds an engine in the pre-checkpoint state.
func New(sender Sender, log *logrus.Logger) *Engine {
	return &Engine{
		log:                log,
		sender:             sender,
		state:              newState(),
		awaitingCheckpoint: true,
	}
}

// OnChange registers a notification hook fired after each applied mutation.
func (e *Engine) OnChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

// OnSessionInfo registers a hook receiving each session_info response.
func (e *Engine) OnSessionInfo(fn func(*protocol.SessionInfo)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSession = fn
}

// SetLocalPlayerID seeds the local identity before the first session_info
// arrives (from the auth token's claims); the server's session_info remains
// authoritative and overwrites it.
func (e *Engine) SetLocalPlayerID(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.localPlayerID = id
}

// Snapshot returns a deep copy of the shared state tree for read-only use.
func (e *Engine) Snapshot() *State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.clone()
}

// LocalPlayerID returns the session id the server knows this client by.
func (e *Engine) LocalPlayerID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.localPlayerID
}

// CurrentSeq exposes the tracked sequence number for diagnostics.
func (e *Engine) CurrentSeq() (uint64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.seq.Current()
}

// ResetSync arms checkpoint gating. Called by the connection layer after
// every successful (re)connect: deltas received before the next checkpoint
// are discarded.
func (e *Engine) ResetSync() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.awaitingCheckpoint = true
}

// Teardown clears the state tree when the user leaves the game or the room
// context changes.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = newState()
	e.selection = nil
	e.awaitingCheckpoint = true
	e.notifyLocked()
}

// HandleFrame decodes and applies one inbound frame. A malformed frame, an
// unknown message type, or an event naming an actor the client cannot resolve
// is logged and dropped; one bad message degrades gracefully, it does not
// cascade.
func (e *Engine) HandleFrame(raw []byte) {
	frame, err := protocol.Decode(raw)
	if err != nil {
		e.log.Warnf("Dropping inbound frame: %v", err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Dropped deltas are still acknowledged; the ack is a liveness signal,
	// not an application receipt.
	if frame.Sequenced() {
		e.seq.observe(*frame.SeqNum)
		e.send(protocol.NewAckSeq(*frame.SeqNum))
	}

	switch body := frame.Body.(type) {
	case *protocol.RoomWaitingState:
		e.applyWaitingCheckpoint(body)
	case *protocol.RoomInGameState:
		e.applyGameCheckpoint(body)
	case *protocol.PlayerJoined:
		if e.dropIfUnsynced(frame.Type) {
			return
		}
		e.applyPlayerJoined(body)
	case *protocol.PlayerLeft:
		if e.dropIfUnsynced(frame.Type) {
			return
		}
		e.applyPlayerLeft(body)
	case *protocol.GameEvent:
		if e.dropIfUnsynced(body.EventType) {
			return
		}
		e.applyGameEvent(body)
	case *protocol.Ready:
		e.seq.adopt(body.CurrentSeq)
		e.log.Debugf("Synchronized at seq %d", body.CurrentSeq)
	case *protocol.SessionInfo:
		e.applySessionInfo(body)
	case *protocol.ServerError:
		e.log.Warnf("Server error: %s", body.Message)
	case *protocol.Pong:
		// Liveness only.
	default:
		e.log.Warnf("No handler for message type %q. Dropping.", frame.Type)
	}
}

// dropIfUnsynced enforces checkpoint-before-delta after (re)connect.
func (e *Engine) dropIfUnsynced(kind string) bool {
	if e.awaitingCheckpoint {
		e.log.Debugf("Discarding pre-checkpoint delta %q", kind)
		return true
	}
	return false
}

// applyWaitingCheckpoint replaces the room slice wholesale from a
// waiting-room snapshot.
func (e *Engine) applyWaitingCheckpoint(msg *protocol.RoomWaitingState) {
	st := newState()
	st.RoomID = msg.Room.ID
	st.Status = RoomWaiting
	for _, wp := range msg.Room.Players {
		st.Players = append(st.Players, &Player{
			ID:       wp.ID,
			Nickname: wp.Nickname,
			IsHost:   wp.IsHost,
		})
	}
	e.state = st
	e.selection = nil
	e.awaitingCheckpoint = false
	e.notifyLocked()
}

// applyGameCheckpoint replaces the room and game slices wholesale from an
// in-progress-game snapshot.
func (e *Engine) applyGameCheckpoint(msg *protocol.RoomInGameState) {
	st := newState()
	st.RoomID = msg.Room.ID
	st.Status = RoomInGame
	st.CurrentPlayerID = msg.Game.CurrentPlayerID
	st.Phase = parsePhase(msg.Game.Phase, e.log)
	st.CaboCalledBy = msg.Game.CaboCalledBy
	st.FinalRoundStarted = msg.Game.FinalRoundStarted

	for _, wp := range msg.Game.Players {
		p := &Player{
			ID:                wp.ID,
			Nickname:          wp.Nickname,
			HasCalledEndRound: wp.HasCalledEndRound,
		}
		for _, wc := range wp.Cards {
			p.Hand = append(p.Hand, cardFromWire(wc))
		}
		st.Players = append(st.Players, p)
	}

	if msg.Game.TopDiscardCard != nil {
		st.DiscardPile = append(st.DiscardPile, cardFromWire(*msg.Game.TopDiscardCard))
	}

	// The snapshot's played_card is the acting player's unresolved drawn
	// card; it is owned by exactly one player at a time.
	if msg.Game.PlayedCard != nil {
		if p := st.playerByID(st.CurrentPlayerID); p != nil {
			p.DrawnCard = cardFromWire(*msg.Game.PlayedCard)
		}
	}

	if sa := msg.Game.SpecialAction; sa != nil {
		st.Special = &SpecialAction{Type: ActionType(sa.Type), PlayerID: sa.PlayerID}
	}
	if msg.Game.StackCaller != "" {
		// A snapshot carries no pre-interrupt phase; resolution falls back to
		// the quiescent turn-transition window.
		st.Stack = &StackCall{CallerID: msg.Game.StackCaller, PriorPhase: PhaseTurnTransition}
		st.Phase = PhaseStackCalled
	}

	e.state = st
	e.selection = nil
	e.awaitingCheckpoint = false
	e.notifyLocked()
}

func (e *Engine) applyPlayerJoined(msg *protocol.PlayerJoined) {
	if e.state.playerByID(msg.Player.ID) != nil {
		e.log.Warnf("player_joined for already-known player %s. Dropping.", msg.Player.ID)
		return
	}
	e.state.Players = append(e.state.Players, &Player{
		ID:       msg.Player.ID,
		Nickname: msg.Player.Nickname,
		IsHost:   msg.Player.IsHost,
	})
	e.notifyLocked()
}

func (e *Engine) applyPlayerLeft(msg *protocol.PlayerLeft) {
	for i, p := range e.state.Players {
		if p.ID == msg.SessionID {
			e.state.Players = append(e.state.Players[:i], e.state.Players[i+1:]...)
			e.notifyLocked()
			return
		}
	}
	e.log.Warnf("player_left for unknown session %s. Dropping.", msg.SessionID)
}

func (e *Engine) applySessionInfo(msg *protocol.SessionInfo) {
	if e.localPlayerID != "" && e.localPlayerID != msg.SessionID {
		e.log.Warnf("Session id changed from %s to %s after resync", e.localPlayerID, msg.SessionID)
	}
	e.localPlayerID = msg.SessionID
	e.log.Infof("Identified as %s (%s) in room %s", msg.Nickname, msg.SessionID, msg.RoomID)
	if e.onSession != nil {
		e.onSession(msg)
	}
	e.notifyLocked()
}

// send writes one intent, logging failures. Callers must not assume delivery.
func (e *Engine) send(intent protocol.Intent) {
	if err := e.sender.Send(intent); err != nil {
		e.log.Warnf("Failed to send intent: %v", err)
	}
}

// notifyLocked fires the change hook. Assumes lock is held.
func (e *Engine) notifyLocked() {
	if e.onChange != nil {
		e.onChange()
	}
}

// parsePhase maps a wire phase to the client enumeration, defaulting to the
// draw phase for values outside the known set.
func parsePhase(raw string, log *logrus.Logger) Phase {
	switch p := Phase(raw); p {
	case PhaseSetup, PhaseDraw, PhaseCardDrawn, PhaseWaitingSpecial,
		PhaseKingView, PhaseKingSwap, PhaseStackCalled, PhaseStackGiveCard,
		PhaseTurnTransition, PhaseEnded:
		return p
	default:
		log.Warnf("Unknown phase %q in checkpoint; assuming %s", raw, PhaseDraw)
		return PhaseDraw
	}
}
