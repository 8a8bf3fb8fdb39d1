// internal/engine/special.go
package engine

import (
	"github.com/cabo-arena/cabo-client/internal/protocol"
)

// Selection is one card pick: whose hand and which slot.
type Selection struct {
	PlayerID  string
	CardIndex int
}

// requiredPicks returns how many selections the action needs.
func requiredPicks(t ActionType) int {
	switch t {
	case ActionSwapCards, ActionKingSwapCards:
		return 2
	default:
		return 1
	}
}

// Selection returns a copy of the current selection set.
func (e *Engine) Selection() []Selection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Selection, len(e.selection))
	copy(out, e.selection)
	return out
}

// ToggleSelect records or removes a card pick, then attempts resolution.
// Selection is inert during TURN_TRANSITION (nothing is selectable there, by
// the phase machine's quiescence rule) and after the game ends. Picks by
// players other than the pending action's owner stay local highlight state
// and never produce an emission.
func (e *Engine) ToggleSelect(playerID string, cardIndex int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase == PhaseTurnTransition || e.state.Phase == PhaseEnded {
		return
	}
	p := e.state.playerByID(playerID)
	if p == nil || cardIndex < 0 || cardIndex >= len(p.Hand) {
		return
	}

	for i, sel := range e.selection {
		if sel.PlayerID == playerID && sel.CardIndex == cardIndex {
			e.selection = append(e.selection[:i], e.selection[i+1:]...)
			e.notifyLocked()
			return
		}
	}
	e.selection = append(e.selection, Selection{PlayerID: playerID, CardIndex: cardIndex})

	// Bound the set by the active requirement: picking past the bound
	// forgets the oldest pick.
	bound := 2
	if e.state.Special != nil {
		bound = requiredPicks(e.state.Special.Type)
	} else if e.state.Phase == PhaseStackCalled || e.state.Phase == PhaseStackGiveCard {
		bound = 1
	}
	for len(e.selection) > bound {
		e.selection = e.selection[1:]
	}

	if intent, ok := tryResolve(e.state, e.localPlayerID, e.selection); ok {
		e.send(intent)
		e.selection = nil
	}
	e.notifyLocked()
}

// tryResolve maps the current selection set onto the one outbound intent it
// satisfies, if any. Pure over its inputs: no hidden reactivity, called
// synchronously after each selection change. Only the player who owns the
// active action resolves; everyone else's picks are highlighting.
func tryResolve(st *State, localID string, sel []Selection) (protocol.Intent, bool) {
	if localID == "" || len(sel) == 0 {
		return nil, false
	}

	switch st.Phase {
	case PhaseStackCalled:
		if st.Stack == nil || st.Stack.CallerID != localID || len(sel) != 1 {
			return nil, false
		}
		target := ""
		if sel[0].PlayerID != localID {
			target = sel[0].PlayerID
		}
		return protocol.NewExecuteStack(sel[0].CardIndex, target), true

	case PhaseStackGiveCard:
		if st.Give == nil || st.Give.FromPlayerID != localID {
			return nil, false
		}
		if len(sel) != 1 || sel[0].PlayerID != localID {
			return nil, false
		}
		return protocol.NewGiveStackCard(sel[0].CardIndex), true

	case PhaseWaitingSpecial, PhaseKingView, PhaseKingSwap:
		if st.Special == nil || st.Special.PlayerID != localID {
			return nil, false
		}
		return resolveSpecial(st.Special.Type, localID, sel)
	}
	return nil, false
}

// resolveSpecial checks the selection shape for the pending action type.
func resolveSpecial(t ActionType, localID string, sel []Selection) (protocol.Intent, bool) {
	switch t {
	case ActionViewOwnCard:
		if len(sel) != 1 || sel[0].PlayerID != localID {
			return nil, false
		}
		return protocol.NewViewOwnCard(sel[0].CardIndex), true

	case ActionViewOpponentCard:
		if len(sel) != 1 || sel[0].PlayerID == localID {
			return nil, false
		}
		return protocol.NewViewOpponentCard(sel[0].PlayerID, sel[0].CardIndex), true

	case ActionKingViewCard:
		if len(sel) != 1 {
			return nil, false
		}
		return protocol.NewKingViewCard(sel[0].PlayerID, sel[0].CardIndex), true

	case ActionSwapCards, ActionKingSwapCards:
		if len(sel) != 2 {
			return nil, false
		}
		// Put the owner's pick on the own side when there is one; the wire
		// shape names one own index and one targeted card.
		own, other := sel[0], sel[1]
		if other.PlayerID == localID && own.PlayerID != localID {
			own, other = other, own
		}
		if own.PlayerID != localID {
			// Two foreign cards: legal for swaps, expressed by naming the
			// first card's holder explicitly.
			if t == ActionKingSwapCards {
				intent := protocol.NewKingSwapCards(own.CardIndex, other.PlayerID, other.CardIndex)
				intent.OwnPlayerID = own.PlayerID
				return intent, true
			}
			intent := protocol.NewSwapCards(own.CardIndex, other.PlayerID, other.CardIndex)
			intent.OwnPlayerID = own.PlayerID
			return intent, true
		}
		if t == ActionKingSwapCards {
			return protocol.NewKingSwapCards(own.CardIndex, other.PlayerID, other.CardIndex), true
		}
		return protocol.NewSwapCards(own.CardIndex, other.PlayerID, other.CardIndex), true
	}
	return nil, false
}

// SkipKingSwap declines the optional second step of a king play.
func (e *Engine) SkipKingSwap() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != PhaseKingSwap {
		return ErrWrongPhase
	}
	if e.state.Special == nil || e.state.Special.PlayerID != e.localPlayerID {
		return ErrNotActionOwner
	}
	e.send(protocol.NewKingSkipSwap())
	return nil
}

// DrawCard requests the top of the stockpile. Legal only for the current
// player at the top of their turn.
func (e *Engine) DrawCard() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.CurrentPlayerID != e.localPlayerID {
		return ErrNotYourTurn
	}
	if e.state.Phase != PhaseDraw {
		return ErrWrongPhase
	}
	e.send(protocol.NewDrawCard())
	return nil
}

// PlayDrawnCard discards the drawn card directly.
func (e *Engine) PlayDrawnCard() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.CurrentPlayerID != e.localPlayerID {
		return ErrNotYourTurn
	}
	if e.state.Phase != PhaseCardDrawn {
		return ErrWrongPhase
	}
	e.send(protocol.NewPlayDrawnCard())
	return nil
}

// ReplaceAndPlay swaps the drawn card into the given hand slot and plays the
// previous occupant.
func (e *Engine) ReplaceAndPlay(handIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.CurrentPlayerID != e.localPlayerID {
		return ErrNotYourTurn
	}
	if e.state.Phase != PhaseCardDrawn {
		return ErrWrongPhase
	}
	p := e.state.playerByID(e.localPlayerID)
	if p == nil || handIndex < 0 || handIndex >= len(p.Hand) {
		return ErrWrongPhase
	}
	e.send(protocol.NewReplaceAndPlay(handIndex))
	return nil
}

// CallCabo declares the final round. The declaration is one-time for the
// whole game: once any caller is set, later attempts are refused locally.
func (e *Engine) CallCabo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.CaboCalledBy != "" {
		return ErrEndRoundAlreadyCalled
	}
	if e.state.CurrentPlayerID != e.localPlayerID {
		return ErrNotYourTurn
	}
	if e.state.Phase != PhaseDraw {
		return ErrWrongPhase
	}
	e.send(protocol.NewCallCabo())
	return nil
}
