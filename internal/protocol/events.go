// internal/protocol/events.go
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Game event sub-type discriminators, carried in game_event.event_type.
const (
	EventTurnChanged          = "turn_changed"
	EventCardDrawn            = "card_drawn"
	EventCardPlayed           = "card_played"
	EventCardViewed           = "card_viewed"
	EventCardsSwapped         = "cards_swapped"
	EventStackCalled          = "stack_called"
	EventStackSuccess         = "stack_success"
	EventStackFailed          = "stack_failed"
	EventStackTimeout         = "stack_timeout"
	EventStackCardGiven       = "stack_card_given"
	EventCaboCalled           = "cabo_called"
	EventKingCardViewed       = "king_card_viewed"
	EventKingCardsSwapped     = "king_cards_swapped"
	EventKingSwapSkipped      = "king_swap_skipped"
	EventSpecialActionTimeout = "special_action_timeout"
	EventGameEnded            = "game_ended"
)

// ErrUnknownEvent is returned by DecodeData for an event_type outside the
// known union. The event is logged and dropped, never guessed at.
var ErrUnknownEvent = errors.New("protocol: unknown game event type")

// GameEvent is an incremental state-mutating message. Its payload shape is
// keyed by EventType; call DecodeData to get the typed payload.
type GameEvent struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

// EventData is implemented by every decoded game_event payload.
type EventData interface {
	eventData()
}

// TurnChanged hands the turn to a new current player.
type TurnChanged struct {
	CurrentPlayer string `json:"current_player"`
}

// CardDrawn reports the acting player drew from the stockpile. Card is
// populated only on the drawer's own connection; everyone else sees the bare
// identity.
type CardDrawn struct {
	PlayerID string    `json:"player_id"`
	Card     *WireCard `json:"card,omitempty"`
}

// CardPlayed reports a card landing on the discard pile. HandIndex is set
// when the play replaced a hand card (replace-and-play); nil means the drawn
// card itself was played.
type CardPlayed struct {
	PlayerID  string   `json:"player_id"`
	Card      WireCard `json:"card"`
	HandIndex *int     `json:"hand_index,omitempty"`
}

// CardViewed resolves a view-own or view-opponent special action. Card is
// populated only on the viewer's own connection.
type CardViewed struct {
	PlayerID       string    `json:"player_id"`
	TargetPlayerID string    `json:"target_player_id"`
	CardIndex      int       `json:"card_index"`
	Card           *WireCard `json:"card,omitempty"`
}

// CardsSwapped resolves a blind swap special action.
type CardsSwapped struct {
	PlayerID       string `json:"player_id"`
	OwnIndex       int    `json:"own_index"`
	TargetPlayerID string `json:"target_player_id"`
	TargetIndex    int    `json:"target_index"`
}

// StackCalled announces the single winner of the race to interrupt the turn.
type StackCalled struct {
	PlayerID string `json:"player_id"`
}

// StackSuccess reports a matching stack execution. TargetPlayerID is empty
// when the caller matched one of their own cards.
type StackSuccess struct {
	PlayerID       string   `json:"player_id"`
	CardIndex      int      `json:"card_index"`
	TargetPlayerID string   `json:"target_player_id,omitempty"`
	Card           WireCard `json:"card"`
}

// StackFailed reports a mismatched stack execution; the caller takes a
// penalty card.
type StackFailed struct {
	PlayerID string `json:"player_id"`
}

// StackTimeout reports the stack window expiring with no execution.
type StackTimeout struct {
	PlayerID string `json:"player_id"`
}

// StackCardGiven reports the stack winner handing one of their cards to the
// player whose card they matched.
type StackCardGiven struct {
	PlayerID       string `json:"player_id"`
	TargetPlayerID string `json:"target_player_id"`
	CardIndex      int    `json:"card_index"`
}

// CaboCalled records the one-time end-round declaration.
type CaboCalled struct {
	PlayerID string `json:"player_id"`
}

// KingCardViewed resolves the first (view) step of a king play. Card is
// populated only on the viewer's own connection.
type KingCardViewed struct {
	PlayerID       string    `json:"player_id"`
	TargetPlayerID string    `json:"target_player_id"`
	CardIndex      int       `json:"card_index"`
	Card           *WireCard `json:"card,omitempty"`
}

// KingCardsSwapped resolves the second (swap) step of a king play.
type KingCardsSwapped struct {
	PlayerID       string `json:"player_id"`
	OwnIndex       int    `json:"own_index"`
	TargetPlayerID string `json:"target_player_id"`
	TargetIndex    int    `json:"target_index"`
}

// KingSwapSkipped reports the king's optional swap step being declined.
type KingSwapSkipped struct {
	PlayerID string `json:"player_id"`
}

// SpecialActionTimeout reports a pending special action expiring unused.
type SpecialActionTimeout struct {
	PlayerID string `json:"player_id"`
}

// GameEnded carries final scores and the full disclosure of every hand.
type GameEnded struct {
	WinnerID string           `json:"winner_id"`
	Scores   map[string]int   `json:"scores"`
	Players  []WireGamePlayer `json:"players,omitempty"`
}

func (*TurnChanged) eventData()          {}
func (*CardDrawn) eventData()            {}
func (*CardPlayed) eventData()           {}
func (*CardViewed) eventData()           {}
func (*CardsSwapped) eventData()         {}
func (*StackCalled) eventData()          {}
func (*StackSuccess) eventData()         {}
func (*StackFailed) eventData()          {}
func (*StackTimeout) eventData()         {}
func (*StackCardGiven) eventData()       {}
func (*CaboCalled) eventData()           {}
func (*KingCardViewed) eventData()       {}
func (*KingCardsSwapped) eventData()     {}
func (*KingSwapSkipped) eventData()      {}
func (*SpecialActionTimeout) eventData() {}
func (*GameEnded) eventData()            {}

// DecodeData unmarshals the event payload for the event's type tag.
func (e *GameEvent) DecodeData() (EventData, error) {
	var data EventData
	switch e.EventType {
	case EventTurnChanged:
		data = &TurnChanged{}
	case EventCardDrawn:
		data = &CardDrawn{}
	case EventCardPlayed:
		data = &CardPlayed{}
	case EventCardViewed:
		data = &CardViewed{}
	case EventCardsSwapped:
		data = &CardsSwapped{}
	case EventStackCalled:
		data = &StackCalled{}
	case EventStackSuccess:
		data = &StackSuccess{}
	case EventStackFailed:
		data = &StackFailed{}
	case EventStackTimeout:
		data = &StackTimeout{}
	case EventStackCardGiven:
		data = &StackCardGiven{}
	case EventCaboCalled:
		data = &CaboCalled{}
	case EventKingCardViewed:
		data = &KingCardViewed{}
	case EventKingCardsSwapped:
		data = &KingCardsSwapped{}
	case EventKingSwapSkipped:
		data = &KingSwapSkipped{}
	case EventSpecialActionTimeout:
		data = &SpecialActionTimeout{}
	case EventGameEnded:
		data = &GameEnded{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, e.EventType)
	}
	if len(e.Data) > 0 {
		if err := json.Unmarshal(e.Data, data); err != nil {
			return nil, fmt.Errorf("protocol: malformed %s payload: %w", e.EventType, err)
		}
	}
	return data, nil
}
