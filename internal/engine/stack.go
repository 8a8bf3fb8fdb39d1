// internal/engine/stack.go
package engine

import (
	"github.com/cabo-arena/cabo-client/internal/protocol"
)

// stackWindowOpen reports whether a stack call may be attempted in the given
// phase. The window covers turn transition, a pending special action, and
// both king steps; it is never open while an interrupt is already active.
func stackWindowOpen(p Phase) bool {
	switch p {
	case PhaseTurnTransition, PhaseWaitingSpecial, PhaseKingView, PhaseKingSwap:
		return true
	default:
		return false
	}
}

// CallStack attempts to interrupt the current turn. The server arbitrates the
// race between simultaneous callers; this only validates the local window and
// fires the intent.
func (e *Engine) CallStack() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Stack != nil {
		return ErrStackActive
	}
	if !stackWindowOpen(e.state.Phase) {
		return ErrWrongPhase
	}
	e.send(protocol.NewCallStack())
	return nil
}

// handleStackCalled reflects the server's announcement of the single winner
// of the interrupt race. The pre-interrupt flow is saved so failure or
// timeout can restore it.
func (e *Engine) handleStackCalled(d *protocol.StackCalled) {
	if e.state.playerByID(d.PlayerID) == nil {
		e.log.Warnf("stack_called by unknown player %s. Dropping.", d.PlayerID)
		return
	}
	if e.state.Stack != nil {
		e.log.Warnf("stack_called by %s while a stack is already active. Dropping.", d.PlayerID)
		return
	}
	e.state.Stack = &StackCall{CallerID: d.PlayerID, PriorPhase: e.state.Phase}
	e.enterPhase(PhaseStackCalled)
	e.notifyLocked()
}

// handleStackSuccess removes the matched card to the discard pile. A match
// against an opponent's card opens the optional give-card sub-phase;
// otherwise the pre-interrupt flow resumes.
func (e *Engine) handleStackSuccess(d *protocol.StackSuccess) {
	if e.state.Stack == nil {
		e.log.Warnf("stack_success with no active stack. Dropping.")
		return
	}
	ownerID := d.PlayerID
	if d.TargetPlayerID != "" {
		ownerID = d.TargetPlayerID
	}
	owner := e.state.playerByID(ownerID)
	if owner == nil {
		e.log.Warnf("stack_success names unknown player %s. Dropping.", ownerID)
		return
	}
	if d.CardIndex < 0 || d.CardIndex >= len(owner.Hand) {
		e.log.Warnf("stack_success index %d out of range for %s. Dropping.", d.CardIndex, ownerID)
		return
	}
	owner.Hand = append(owner.Hand[:d.CardIndex], owner.Hand[d.CardIndex+1:]...)
	e.state.DiscardPile = append(e.state.DiscardPile, cardFromWire(d.Card))

	prior := e.state.Stack.PriorPhase
	e.state.Stack = nil
	if d.TargetPlayerID != "" && d.TargetPlayerID != d.PlayerID {
		// Winner may voluntarily hand a card to the matched player; a skip is
		// always valid here. Prior flow resumes once the window closes.
		e.state.Give = &GivePending{FromPlayerID: d.PlayerID, ToPlayerID: d.TargetPlayerID, priorPhase: prior}
		e.enterPhase(PhaseStackGiveCard)
	} else {
		e.enterPhase(prior)
	}
	e.notifyLocked()
}

// handleStackResolved restores the pre-interrupt flow on failure or timeout.
// Any penalty card the server dealt arrives via the next checkpoint; hand
// membership is never guessed from an unpayloaded event.
func (e *Engine) handleStackResolved(callerID, outcome string) {
	if e.state.Stack == nil {
		e.log.Warnf("stack_%s with no active stack. Dropping.", outcome)
		return
	}
	prior := e.state.Stack.PriorPhase
	e.state.Stack = nil
	e.enterPhase(prior)
	e.log.Debugf("Stack by %s resolved: %s", callerID, outcome)
	e.notifyLocked()
}

// handleStackCardGiven moves the gifted card from the winner's hand to the
// matched player's hand and closes the give window.
func (e *Engine) handleStackCardGiven(d *protocol.StackCardGiven) {
	if e.state.Give == nil {
		e.log.Warnf("stack_card_given with no pending give. Dropping.")
		return
	}
	giver := e.state.playerByID(d.PlayerID)
	receiver := e.state.playerByID(d.TargetPlayerID)
	if giver == nil || receiver == nil {
		e.log.Warnf("stack_card_given names unknown player (%s -> %s). Dropping.", d.PlayerID, d.TargetPlayerID)
		return
	}
	if d.CardIndex < 0 || d.CardIndex >= len(giver.Hand) {
		e.log.Warnf("stack_card_given index %d out of range for %s. Dropping.", d.CardIndex, d.PlayerID)
		return
	}
	card := giver.Hand[d.CardIndex]
	giver.Hand = append(giver.Hand[:d.CardIndex], giver.Hand[d.CardIndex+1:]...)
	card.TemporarilyViewed = false
	receiver.Hand = append(receiver.Hand, card)

	prior := e.state.Give.priorPhase
	e.state.Give = nil
	e.enterPhase(prior)
	e.notifyLocked()
}

// SkipGiveCard declines the give-card window. Always valid for the winner
// while the window is open.
func (e *Engine) SkipGiveCard() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != PhaseStackGiveCard || e.state.Give == nil {
		return ErrWrongPhase
	}
	if e.state.Give.FromPlayerID != e.localPlayerID {
		return ErrNotActionOwner
	}
	e.send(protocol.NewSkipGiveCard())
	return nil
}
