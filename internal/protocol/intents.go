// internal/protocol/intents.go
package protocol

// Outbound intent type tags.
const (
	IntentAckSeq           = "ack_seq"
	IntentPing             = "ping"
	IntentGetSessionInfo   = "get_session_info"
	IntentDrawCard         = "draw_card"
	IntentPlayDrawnCard    = "play_drawn_card"
	IntentReplaceAndPlay   = "replace_and_play"
	IntentViewOwnCard      = "view_own_card"
	IntentViewOpponentCard = "view_opponent_card"
	IntentSwapCards        = "swap_cards"
	IntentKingViewCard     = "king_view_card"
	IntentKingSwapCards    = "king_swap_cards"
	IntentKingSkipSwap     = "king_skip_swap"
	IntentCallStack        = "call_stack"
	IntentExecuteStack     = "execute_stack"
	IntentGiveStackCard    = "give_stack_card"
	IntentSkipGiveCard     = "skip_give_stack_card"
	IntentCallCabo         = "call_cabo"
)

// Intent is an outbound message to the server. Every intent marshals to a
// flat JSON object whose "type" field is one of the Intent* tags.
type Intent interface {
	intent()
}

type intentBase struct {
	Type string `json:"type"`
}

func (intentBase) intent() {}

// AckIntent acknowledges a sequenced inbound frame.
type AckIntent struct {
	intentBase
	SeqNum uint64 `json:"seq_num"`
}

// IndexIntent covers intents whose only argument is an index into the local
// player's own hand (replace_and_play, view_own_card, give_stack_card).
type IndexIntent struct {
	intentBase
	HandIndex *int `json:"hand_index,omitempty"`
	CardIndex *int `json:"card_index,omitempty"`
}

// TargetCardIntent covers intents naming one card in another player's hand
// (view_opponent_card, king_view_card).
type TargetCardIntent struct {
	intentBase
	TargetPlayerID string `json:"target_player_id"`
	CardIndex      int    `json:"card_index"`
}

// SwapIntent covers two-card swaps (swap_cards, king_swap_cards).
// OwnPlayerID is set only when the first card does not belong to the acting
// player (a swap between two opponents' cards).
type SwapIntent struct {
	intentBase
	OwnIndex       int    `json:"own_index"`
	OwnPlayerID    string `json:"own_player_id,omitempty"`
	TargetPlayerID string `json:"target_player_id"`
	TargetIndex    int    `json:"target_index"`
}

// ExecuteStackIntent names the card the stack caller is matching against the
// discard top. TargetPlayerID is empty for the caller's own card.
type ExecuteStackIntent struct {
	intentBase
	CardIndex      int    `json:"card_index"`
	TargetPlayerID string `json:"target_player_id,omitempty"`
}

// BareIntent is an intent with no arguments.
type BareIntent struct {
	intentBase
}

func NewAckSeq(seq uint64) AckIntent {
	return AckIntent{intentBase: intentBase{Type: IntentAckSeq}, SeqNum: seq}
}

func NewPing() BareIntent           { return BareIntent{intentBase{Type: IntentPing}} }
func NewGetSessionInfo() BareIntent { return BareIntent{intentBase{Type: IntentGetSessionInfo}} }
func NewDrawCard() BareIntent       { return BareIntent{intentBase{Type: IntentDrawCard}} }
func NewPlayDrawnCard() BareIntent  { return BareIntent{intentBase{Type: IntentPlayDrawnCard}} }
func NewKingSkipSwap() BareIntent   { return BareIntent{intentBase{Type: IntentKingSkipSwap}} }
func NewCallStack() BareIntent      { return BareIntent{intentBase{Type: IntentCallStack}} }
func NewSkipGiveCard() BareIntent   { return BareIntent{intentBase{Type: IntentSkipGiveCard}} }
func NewCallCabo() BareIntent       { return BareIntent{intentBase{Type: IntentCallCabo}} }

func NewReplaceAndPlay(handIndex int) IndexIntent {
	return IndexIntent{intentBase: intentBase{Type: IntentReplaceAndPlay}, HandIndex: &handIndex}
}

func NewViewOwnCard(cardIndex int) IndexIntent {
	return IndexIntent{intentBase: intentBase{Type: IntentViewOwnCard}, CardIndex: &cardIndex}
}

func NewGiveStackCard(cardIndex int) IndexIntent {
	return IndexIntent{intentBase: intentBase{Type: IntentGiveStackCard}, CardIndex: &cardIndex}
}

func NewViewOpponentCard(targetPlayerID string, cardIndex int) TargetCardIntent {
	return TargetCardIntent{
		intentBase:     intentBase{Type: IntentViewOpponentCard},
		TargetPlayerID: targetPlayerID,
		CardIndex:      cardIndex,
	}
}

func NewKingViewCard(targetPlayerID string, cardIndex int) TargetCardIntent {
	return TargetCardIntent{
		intentBase:     intentBase{Type: IntentKingViewCard},
		TargetPlayerID: targetPlayerID,
		CardIndex:      cardIndex,
	}
}

func NewSwapCards(ownIndex int, targetPlayerID string, targetIndex int) SwapIntent {
	return SwapIntent{
		intentBase:     intentBase{Type: IntentSwapCards},
		OwnIndex:       ownIndex,
		TargetPlayerID: targetPlayerID,
		TargetIndex:    targetIndex,
	}
}

func NewKingSwapCards(ownIndex int, targetPlayerID string, targetIndex int) SwapIntent {
	return SwapIntent{
		intentBase:     intentBase{Type: IntentKingSwapCards},
		OwnIndex:       ownIndex,
		TargetPlayerID: targetPlayerID,
		TargetIndex:    targetIndex,
	}
}

func NewExecuteStack(cardIndex int, targetPlayerID string) ExecuteStackIntent {
	return ExecuteStackIntent{
		intentBase:     intentBase{Type: IntentExecuteStack},
		CardIndex:      cardIndex,
		TargetPlayerID: targetPlayerID,
	}
}
