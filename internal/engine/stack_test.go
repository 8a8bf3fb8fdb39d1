// internal/engine/stack_test.go
package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabo-arena/cabo-client/internal/protocol"
)

// quiesce plays a plain card so the engine sits in TURN_TRANSITION, the usual
// stack window.
func quiesce(t *testing.T) (*Engine, *mockSender) {
	t.Helper()
	e, ms := inGameEngine(t)
	e.HandleFrame(eventFrame(t, 2, "card_played", map[string]any{
		"player_id": "p1",
		"card":      map[string]any{"id": "d1", "rank": "4", "suit": "hearts"},
	}))
	ms.clear()
	return e, ms
}

func TestCallStackWindow(t *testing.T) {
	e, ms := inGameEngine(t)

	// Draw phase is outside the window.
	assert.ErrorIs(t, e.CallStack(), ErrWrongPhase)
	assert.Empty(t, ms.all())

	e.HandleFrame(eventFrame(t, 2, "card_played", map[string]any{
		"player_id": "p1",
		"card":      map[string]any{"id": "d1", "rank": "4", "suit": "hearts"},
	}))
	ms.clear()
	require.NoError(t, e.CallStack())
	require.Len(t, ms.all(), 1)
	assert.IsType(t, protocol.BareIntent{}, ms.all()[0])
}

func TestCallStackRefusedWhileActive(t *testing.T) {
	e, _ := quiesce(t)
	e.HandleFrame(eventFrame(t, 3, "stack_called", map[string]any{"player_id": "p2"}))
	assert.ErrorIs(t, e.CallStack(), ErrStackActive)
}

// TestStackFreezesAndRestores: the interrupt freezes the flow, a failure
// restores the pre-interrupt phase with hands untouched.
func TestStackFreezesAndRestores(t *testing.T) {
	e, _ := quiesce(t)

	e.HandleFrame(eventFrame(t, 3, "stack_called", map[string]any{"player_id": "p2"}))
	st := e.Snapshot()
	assert.Equal(t, PhaseStackCalled, st.Phase)
	require.NotNil(t, st.Stack)
	assert.Equal(t, "p2", st.Stack.CallerID)
	assert.Equal(t, PhaseTurnTransition, st.Stack.PriorPhase)

	before := len(st.playerByID("p2").Hand)
	e.HandleFrame(eventFrame(t, 4, "stack_failed", map[string]any{"player_id": "p2"}))
	st = e.Snapshot()
	assert.Equal(t, PhaseTurnTransition, st.Phase)
	assert.Nil(t, st.Stack)
	// Penalty cards arrive via the next checkpoint, never guessed locally.
	assert.Len(t, st.playerByID("p2").Hand, before)
}

// TestStackDuringSpecialRestoresSpecial: an interrupt over a pending special
// action resumes that action when the stack times out.
func TestStackDuringSpecialRestoresSpecial(t *testing.T) {
	e, _ := inGameEngine(t)
	e.HandleFrame(eventFrame(t, 2, "card_played", map[string]any{
		"player_id": "p1",
		"card":      map[string]any{"id": "d1", "rank": "7", "suit": "clubs"},
	}))
	e.HandleFrame(eventFrame(t, 3, "stack_called", map[string]any{"player_id": "p2"}))
	e.HandleFrame(eventFrame(t, 4, "stack_timeout", map[string]any{"player_id": "p2"}))

	st := e.Snapshot()
	assert.Equal(t, PhaseWaitingSpecial, st.Phase)
	require.NotNil(t, st.Special)
	assert.Equal(t, ActionViewOwnCard, st.Special.Type)
}

func TestStackSuccessOwnCard(t *testing.T) {
	e, _ := quiesce(t)
	e.HandleFrame(eventFrame(t, 3, "stack_called", map[string]any{"player_id": "p2"}))

	e.HandleFrame(eventFrame(t, 4, "stack_success", map[string]any{
		"player_id":  "p2",
		"card_index": 1,
		"card":       map[string]any{"id": "c2b", "rank": "4", "suit": "clubs"},
	}))

	st := e.Snapshot()
	assert.Equal(t, PhaseTurnTransition, st.Phase, "own-card match resumes the prior flow")
	assert.Nil(t, st.Stack)
	assert.Nil(t, st.Give)
	assert.Len(t, st.playerByID("p2").Hand, 3)
	assert.Equal(t, "c2b", st.topDiscard().ID)
}

// TestStackSuccessOpponentCardOpensGive walks the full give-card sub-phase:
// match, give window, card handed over, prior flow resumed.
func TestStackSuccessOpponentCardOpensGive(t *testing.T) {
	e, ms := quiesce(t)
	e.HandleFrame(eventFrame(t, 3, "stack_called", map[string]any{"player_id": "p2"}))

	e.HandleFrame(eventFrame(t, 4, "stack_success", map[string]any{
		"player_id":        "p2",
		"card_index":       0,
		"target_player_id": "p1",
		"card":             map[string]any{"id": "c1a", "rank": "4", "suit": "spades"},
	}))

	st := e.Snapshot()
	assert.Equal(t, PhaseStackGiveCard, st.Phase)
	require.NotNil(t, st.Give)
	assert.Equal(t, "p2", st.Give.FromPlayerID)
	assert.Equal(t, "p1", st.Give.ToPlayerID)
	assert.Len(t, st.playerByID("p1").Hand, 3)
	ms.clear()

	e.HandleFrame(eventFrame(t, 5, "stack_card_given", map[string]any{
		"player_id":        "p2",
		"target_player_id": "p1",
		"card_index":       2,
	}))
	st = e.Snapshot()
	assert.Equal(t, PhaseTurnTransition, st.Phase)
	assert.Nil(t, st.Give)
	assert.Len(t, st.playerByID("p2").Hand, 3)
	assert.Len(t, st.playerByID("p1").Hand, 4)
}

// TestGiveCardSelection: the winner picks one of their own cards and the
// give intent fires.
func TestGiveCardSelection(t *testing.T) {
	e, ms := inGameEngine(t)
	// Local p1 wins a stack against p2's card.
	e.HandleFrame(eventFrame(t, 2, "card_played", map[string]any{
		"player_id": "p1",
		"card":      map[string]any{"id": "d1", "rank": "4", "suit": "hearts"},
	}))
	e.HandleFrame(eventFrame(t, 3, "stack_called", map[string]any{"player_id": "p1"}))
	e.HandleFrame(eventFrame(t, 4, "stack_success", map[string]any{
		"player_id":        "p1",
		"card_index":       0,
		"target_player_id": "p2",
		"card":             map[string]any{"id": "c2a", "rank": "4", "suit": "spades"},
	}))
	ms.clear()

	// An opponent's card is not giveable.
	e.ToggleSelect("p2", 0)
	assert.Empty(t, ms.all())
	ms.clear()

	e.ToggleSelect("p1", 1)
	sent := ms.all()
	require.Len(t, sent, 1)
	intent, ok := sent[0].(protocol.IndexIntent)
	require.True(t, ok)
	require.NotNil(t, intent.CardIndex)
	assert.Equal(t, 1, *intent.CardIndex)
}

func TestSkipGiveCard(t *testing.T) {
	e, ms := inGameEngine(t)
	e.HandleFrame(eventFrame(t, 2, "card_played", map[string]any{
		"player_id": "p1",
		"card":      map[string]any{"id": "d1", "rank": "4", "suit": "hearts"},
	}))

	// Outside the window the skip is refused.
	assert.ErrorIs(t, e.SkipGiveCard(), ErrWrongPhase)

	e.HandleFrame(eventFrame(t, 3, "stack_called", map[string]any{"player_id": "p1"}))
	e.HandleFrame(eventFrame(t, 4, "stack_success", map[string]any{
		"player_id":        "p1",
		"card_index":       0,
		"target_player_id": "p2",
		"card":             map[string]any{"id": "c2a", "rank": "4", "suit": "spades"},
	}))
	ms.clear()

	require.NoError(t, e.SkipGiveCard())
	require.Len(t, ms.all(), 1)
}

func TestStackExecuteSelection(t *testing.T) {
	e, ms := quiesce(t)
	e.HandleFrame(eventFrame(t, 3, "stack_called", map[string]any{"player_id": "p1"}))
	ms.clear()

	e.ToggleSelect("p2", 2)
	sent := ms.all()
	require.Len(t, sent, 1)
	intent, ok := sent[0].(protocol.ExecuteStackIntent)
	require.True(t, ok)
	assert.Equal(t, 2, intent.CardIndex)
	assert.Equal(t, "p2", intent.TargetPlayerID)
}

func TestStackExecuteOwnCardOmitsTarget(t *testing.T) {
	e, ms := quiesce(t)
	e.HandleFrame(eventFrame(t, 3, "stack_called", map[string]any{"player_id": "p1"}))
	ms.clear()

	e.ToggleSelect("p1", 0)
	sent := ms.all()
	require.Len(t, sent, 1)
	intent := sent[0].(protocol.ExecuteStackIntent)
	assert.Equal(t, 0, intent.CardIndex)
	assert.Empty(t, intent.TargetPlayerID)
}

func TestSpuriousStackEventsDropped(t *testing.T) {
	e, _ := quiesce(t)
	before := e.Snapshot()

	e.HandleFrame(eventFrame(t, 3, "stack_failed", map[string]any{"player_id": "p2"}))
	e.HandleFrame(eventFrame(t, 4, "stack_success", map[string]any{
		"player_id":  "p2",
		"card_index": 0,
		"card":       map[string]any{"id": "c2a", "rank": "4", "suit": "clubs"},
	}))
	e.HandleFrame(eventFrame(t, 5, "stack_card_given", map[string]any{
		"player_id":        "p2",
		"target_player_id": "p1",
		"card_index":       0,
	}))

	after := e.Snapshot()
	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, before.Players, after.Players)
}
