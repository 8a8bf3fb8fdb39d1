// internal/engine/state.go
package engine

import (
	"github.com/cabo-arena/cabo-client/internal/protocol"
)

// UnknownValue is the sentinel for a rank or suit the local viewer is not
// allowed to see. Rank and suit sentinels are always paired: a card is either
// fully known or fully unknown, never half of each.
const UnknownValue = "UNKNOWN"

// Phase enumerates the turn/special-action state machine. The wire carries
// these exact values in checkpoint snapshots.
type Phase string

const (
	PhaseSetup          Phase = "SETUP"
	PhaseDraw           Phase = "DRAW_PHASE"
	PhaseCardDrawn      Phase = "CARD_DRAWN"
	PhaseWaitingSpecial Phase = "WAITING_FOR_SPECIAL_ACTION"
	PhaseKingView       Phase = "KING_VIEW_PHASE"
	PhaseKingSwap       Phase = "KING_SWAP_PHASE"
	PhaseStackCalled    Phase = "STACK_CALLED"
	PhaseStackGiveCard  Phase = "STACK_GIVE_CARD"
	PhaseTurnTransition Phase = "TURN_TRANSITION"
	PhaseEnded          Phase = "ENDED"
)

// ActionType enumerates pending special actions the server may announce in a
// checkpoint's special_action field.
type ActionType string

const (
	ActionViewOwnCard      ActionType = "VIEW_OWN_CARD"
	ActionViewOpponentCard ActionType = "VIEW_OPPONENT_CARD"
	ActionSwapCards        ActionType = "SWAP_CARDS"
	ActionKingViewCard     ActionType = "KING_VIEW_CARD"
	ActionKingSwapCards    ActionType = "KING_SWAP_CARDS"
)

// RoomStatus distinguishes the waiting room from an in-progress game.
type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting"
	RoomInGame  RoomStatus = "in_game"
)

// Card is one card instance tracked across position changes by its stable id.
// TemporarilyViewed marks a card the local viewer may currently see face-up
// (memory window from a view action); it never survives a checkpoint.
type Card struct {
	ID                string
	Rank              string
	Suit              string
	TemporarilyViewed bool
}

// Known reports whether the local viewer knows the card's face.
func (c *Card) Known() bool {
	return c.Rank != UnknownValue
}

// cardFromWire converts a wire card, normalizing the paired unknown
// sentinels. A wildcard rank legitimately carries an empty suit.
func cardFromWire(wc protocol.WireCard) *Card {
	c := &Card{ID: wc.ID, Rank: wc.Rank, Suit: wc.Suit}
	if c.Rank == "" || c.Rank == UnknownValue {
		c.Rank = UnknownValue
		c.Suit = UnknownValue
	}
	return c
}

// Player holds one participant's identity and, in game context, their ordered
// hand. DrawnCard is non-nil only while this player has drawn and not yet
// resolved the card; at most one player holds a drawn card at any time.
type Player struct {
	ID                string
	Nickname          string
	IsHost            bool
	Hand              []*Card
	HasCalledEndRound bool
	DrawnCard         *Card
}

// SpecialAction is the currently pending card-rank ability and its owner.
type SpecialAction struct {
	Type     ActionType
	PlayerID string
}

// StackCall is the active interrupt record. PriorPhase remembers the flow the
// game returns to when the stack fails or times out.
type StackCall struct {
	CallerID   string
	PriorPhase Phase
}

// GivePending records the post-stack "give a card" window: the stack winner
// may hand one of their own cards to the player whose card they matched.
type GivePending struct {
	FromPlayerID string
	ToPlayerID   string

	// priorPhase is the flow to resume once the window closes.
	priorPhase Phase
}

// State is the shared state tree. It is exclusively owned by the Engine;
// presentation reads deep-copied snapshots only.
type State struct {
	RoomID  string
	Status  RoomStatus
	Players []*Player

	CurrentPlayerID   string
	Phase             Phase
	DiscardPile       []*Card
	Special           *SpecialAction
	Stack             *StackCall
	Give              *GivePending
	CaboCalledBy      string
	FinalRoundStarted bool
	WinnerID          string
	Scores            map[string]int
}

func newState() *State {
	return &State{Status: RoomWaiting, Phase: PhaseSetup}
}

// playerByID returns the tracked player or nil.
func (s *State) playerByID(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// topDiscard returns the top of the discard pile or nil.
func (s *State) topDiscard() *Card {
	if len(s.DiscardPile) == 0 {
		return nil
	}
	return s.DiscardPile[len(s.DiscardPile)-1]
}

// clearDrawnCards removes every drawn-card reference. Called on turn
// handover: a drawn-but-unused card is implicitly discarded by the server and
// must never be re-shown.
func (s *State) clearDrawnCards() {
	for _, p := range s.Players {
		p.DrawnCard = nil
	}
}

// clearTemporaryViews drops every temporary reveal. The memory window closes
// when the turn moves on.
func (s *State) clearTemporaryViews() {
	for _, p := range s.Players {
		for _, c := range p.Hand {
			c.TemporarilyViewed = false
		}
	}
}

// clone deep-copies the tree for presentation snapshots.
func (s *State) clone() *State {
	cp := *s
	cp.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		pc := *p
		pc.Hand = cloneCards(p.Hand)
		if p.DrawnCard != nil {
			dc := *p.DrawnCard
			pc.DrawnCard = &dc
		}
		cp.Players[i] = &pc
	}
	cp.DiscardPile = cloneCards(s.DiscardPile)
	if s.Special != nil {
		sa := *s.Special
		cp.Special = &sa
	}
	if s.Stack != nil {
		sc := *s.Stack
		cp.Stack = &sc
	}
	if s.Give != nil {
		gp := *s.Give
		cp.Give = &gp
	}
	if s.Scores != nil {
		cp.Scores = make(map[string]int, len(s.Scores))
		for k, v := range s.Scores {
			cp.Scores[k] = v
		}
	}
	return &cp
}

func cloneCards(cards []*Card) []*Card {
	out := make([]*Card, len(cards))
	for i, c := range cards {
		cc := *c
		out[i] = &cc
	}
	return out
}
