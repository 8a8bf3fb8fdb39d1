// internal/engine/phases.go
package engine

import (
	"github.com/cabo-arena/cabo-client/internal/protocol"
)

// specialForRank maps a played rank to the special action it triggers, or ""
// for plain number cards.
func specialForRank(rank string) ActionType {
	switch rank {
	case "7", "8":
		return ActionViewOwnCard
	case "9", "10", "T":
		return ActionViewOpponentCard
	case "J", "Q":
		return ActionSwapCards
	case "K":
		return ActionKingViewCard
	default:
		return ""
	}
}

// applyGameEvent decodes the event payload and routes it to the matching
// transition handler. Assumes lock is held.
func (e *Engine) applyGameEvent(ev *protocol.GameEvent) {
	// ENDED is terminal: no event leaves it. Only a fresh checkpoint (a new
	// game) replaces the tree.
	if e.state.Phase == PhaseEnded {
		e.log.Warnf("Dropping %s after game end", ev.EventType)
		return
	}

	data, err := ev.DecodeData()
	if err != nil {
		e.log.Warnf("Dropping game event: %v", err)
		return
	}

	switch d := data.(type) {
	case *protocol.TurnChanged:
		e.handleTurnChanged(d)
	case *protocol.CardDrawn:
		e.handleCardDrawn(d)
	case *protocol.CardPlayed:
		e.handleCardPlayed(d)
	case *protocol.CardViewed:
		e.handleCardViewed(d.PlayerID, d.TargetPlayerID, d.CardIndex, d.Card, PhaseTurnTransition)
	case *protocol.CardsSwapped:
		e.handleCardsSwapped(d.PlayerID, d.OwnIndex, d.TargetPlayerID, d.TargetIndex)
	case *protocol.StackCalled:
		e.handleStackCalled(d)
	case *protocol.StackSuccess:
		e.handleStackSuccess(d)
	case *protocol.StackFailed:
		e.handleStackResolved(d.PlayerID, "failed")
	case *protocol.StackTimeout:
		e.handleStackResolved(d.PlayerID, "timeout")
	case *protocol.StackCardGiven:
		e.handleStackCardGiven(d)
	case *protocol.CaboCalled:
		e.handleCaboCalled(d)
	case *protocol.KingCardViewed:
		e.handleKingCardViewed(d)
	case *protocol.KingCardsSwapped:
		e.handleCardsSwapped(d.PlayerID, d.OwnIndex, d.TargetPlayerID, d.TargetIndex)
	case *protocol.KingSwapSkipped:
		e.handleSpecialResolved(d.PlayerID)
	case *protocol.SpecialActionTimeout:
		e.handleSpecialResolved(d.PlayerID)
	case *protocol.GameEnded:
		e.handleGameEnded(d)
	}
}

// enterPhase transitions the phase machine and clears the selection set; no
// selection survives a phase change.
func (e *Engine) enterPhase(p Phase) {
	e.state.Phase = p
	e.selection = nil
}

// handleTurnChanged hands the turn over. The drawn card must never persist
// across a turn boundary: a drawn-but-unused card was implicitly discarded by
// the server and must not be re-shown.
func (e *Engine) handleTurnChanged(d *protocol.TurnChanged) {
	if e.state.playerByID(d.CurrentPlayer) == nil {
		e.log.Warnf("turn_changed to unknown player %s. Dropping.", d.CurrentPlayer)
		return
	}
	e.state.CurrentPlayerID = d.CurrentPlayer
	e.state.clearDrawnCards()
	e.state.clearTemporaryViews()
	e.state.Special = nil
	e.enterPhase(PhaseDraw)
	e.notifyLocked()
}

func (e *Engine) handleCardDrawn(d *protocol.CardDrawn) {
	p := e.state.playerByID(d.PlayerID)
	if p == nil {
		e.log.Warnf("card_drawn for unknown player %s. Dropping.", d.PlayerID)
		return
	}
	if d.PlayerID != e.state.CurrentPlayerID {
		e.log.Warnf("card_drawn for %s out of turn (current: %s). Dropping.", d.PlayerID, e.state.CurrentPlayerID)
		return
	}
	// The card face arrives only on the drawer's own connection; everyone
	// else tracks an unknown card.
	if d.Card != nil {
		p.DrawnCard = cardFromWire(*d.Card)
	} else {
		p.DrawnCard = &Card{Rank: UnknownValue, Suit: UnknownValue}
	}
	e.enterPhase(PhaseCardDrawn)
	e.notifyLocked()
}

// handleCardPlayed appends the played card to the discard pile and forks the
// phase machine: a special-ranked direct play opens its selection window, a
// king opens the two-step view/swap sequence, anything else quiesces in
// TURN_TRANSITION until the server hands the turn over.
func (e *Engine) handleCardPlayed(d *protocol.CardPlayed) {
	p := e.state.playerByID(d.PlayerID)
	if p == nil {
		e.log.Warnf("card_played for unknown player %s. Dropping.", d.PlayerID)
		return
	}

	if d.HandIndex != nil {
		// Replace-and-play: the drawn card takes the hand slot and the
		// previous occupant is the card that hit the pile.
		idx := *d.HandIndex
		if idx < 0 || idx >= len(p.Hand) {
			e.log.Warnf("card_played with out-of-range hand index %d for %s. Dropping.", idx, d.PlayerID)
			return
		}
		incoming := p.DrawnCard
		if incoming == nil {
			incoming = &Card{Rank: UnknownValue, Suit: UnknownValue}
		}
		p.Hand[idx] = incoming
	}
	p.DrawnCard = nil
	e.state.DiscardPile = append(e.state.DiscardPile, cardFromWire(d.Card))

	// Abilities trigger only on a direct play of the drawn card.
	special := ActionType("")
	if d.HandIndex == nil {
		special = specialForRank(d.Card.Rank)
	}
	switch {
	case special == ActionKingViewCard:
		e.state.Special = &SpecialAction{Type: special, PlayerID: d.PlayerID}
		e.enterPhase(PhaseKingView)
	case special != "":
		e.state.Special = &SpecialAction{Type: special, PlayerID: d.PlayerID}
		e.enterPhase(PhaseWaitingSpecial)
	default:
		e.enterPhase(PhaseTurnTransition)
	}
	e.notifyLocked()
}

// handleCardViewed applies a resolved view step: the revealed face (present
// only on the viewer's connection) is written onto the target card and the
// card is flagged temporarily viewed.
func (e *Engine) handleCardViewed(actorID, targetID string, idx int, face *protocol.WireCard, next Phase) {
	target := e.state.playerByID(targetID)
	if target == nil || e.state.playerByID(actorID) == nil {
		e.log.Warnf("card view event names unknown player (%s -> %s). Dropping.", actorID, targetID)
		return
	}
	if idx < 0 || idx >= len(target.Hand) {
		e.log.Warnf("card view event index %d out of range for %s. Dropping.", idx, targetID)
		return
	}
	if face != nil {
		revealed := cardFromWire(*face)
		revealed.TemporarilyViewed = true
		target.Hand[idx] = revealed
	}
	if next == PhaseTurnTransition {
		e.state.Special = nil
	}
	e.enterPhase(next)
	e.notifyLocked()
}

// handleCardsSwapped exchanges two cards between hands. Card identity moves
// with the card; temporary reveals do not survive the move.
func (e *Engine) handleCardsSwapped(actorID string, ownIdx int, targetID string, targetIdx int) {
	actor := e.state.playerByID(actorID)
	target := e.state.playerByID(targetID)
	if actor == nil || target == nil {
		e.log.Warnf("swap event names unknown player (%s / %s). Dropping.", actorID, targetID)
		return
	}
	if ownIdx < 0 || ownIdx >= len(actor.Hand) || targetIdx < 0 || targetIdx >= len(target.Hand) {
		e.log.Warnf("swap event indices (%d, %d) out of range. Dropping.", ownIdx, targetIdx)
		return
	}
	actor.Hand[ownIdx], target.Hand[targetIdx] = target.Hand[targetIdx], actor.Hand[ownIdx]
	actor.Hand[ownIdx].TemporarilyViewed = false
	target.Hand[targetIdx].TemporarilyViewed = false
	e.state.Special = nil
	e.enterPhase(PhaseTurnTransition)
	e.notifyLocked()
}

// handleKingCardViewed completes the unconditional view step of a king play
// and opens the optional swap step.
func (e *Engine) handleKingCardViewed(d *protocol.KingCardViewed) {
	e.handleCardViewed(d.PlayerID, d.TargetPlayerID, d.CardIndex, d.Card, PhaseKingSwap)
	if e.state.Phase == PhaseKingSwap && e.state.Special != nil {
		e.state.Special.Type = ActionKingSwapCards
	}
}

// handleSpecialResolved clears a pending special action (skip or timeout) and
// quiesces until turn handover.
func (e *Engine) handleSpecialResolved(actorID string) {
	if e.state.Special == nil {
		e.log.Warnf("special resolution for %s with no pending action. Dropping.", actorID)
		return
	}
	e.state.Special = nil
	e.enterPhase(PhaseTurnTransition)
	e.notifyLocked()
}

// handleCaboCalled records the one-time end-round declaration. Only one
// caller may ever be set; later attempts by other players are ignored.
func (e *Engine) handleCaboCalled(d *protocol.CaboCalled) {
	p := e.state.playerByID(d.PlayerID)
	if p == nil {
		e.log.Warnf("cabo_called by unknown player %s. Dropping.", d.PlayerID)
		return
	}
	if e.state.CaboCalledBy != "" {
		e.log.Warnf("cabo_called by %s but %s already called. Dropping.", d.PlayerID, e.state.CaboCalledBy)
		return
	}
	e.state.CaboCalledBy = d.PlayerID
	e.state.FinalRoundStarted = true
	p.HasCalledEndRound = true
	e.notifyLocked()
}

// handleGameEnded is terminal: full disclosure, scores recorded; further
// events are refused at the dispatch guard.
func (e *Engine) handleGameEnded(d *protocol.GameEnded) {
	e.state.WinnerID = d.WinnerID
	e.state.Scores = d.Scores
	for _, wp := range d.Players {
		p := e.state.playerByID(wp.ID)
		if p == nil {
			continue
		}
		p.Hand = p.Hand[:0]
		for _, wc := range wp.Cards {
			p.Hand = append(p.Hand, cardFromWire(wc))
		}
	}
	e.state.Special = nil
	e.state.Stack = nil
	e.state.Give = nil
	e.state.clearDrawnCards()
	e.enterPhase(PhaseEnded)
	e.notifyLocked()
}
