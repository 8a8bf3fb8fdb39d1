// internal/engine/engine_test.go
package engine

import (
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabo-arena/cabo-client/internal/protocol"
)

// mockSender collects outbound intents instead of writing them to a socket.
type mockSender struct {
	mu   sync.Mutex
	sent []any
	err  error
}

func (m *mockSender) Send(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, v)
	return nil
}

func (m *mockSender) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

func (m *mockSender) all() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *mockSender) last() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	return m.sent[len(m.sent)-1]
}

func newTestEngine(t *testing.T) (*Engine, *mockSender) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ms := &mockSender{}
	return New(ms, logger), ms
}

func frame(t *testing.T, v map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func eventFrame(t *testing.T, seq uint64, eventType string, data map[string]any) []byte {
	t.Helper()
	return frame(t, map[string]any{
		"type":       "game_event",
		"seq_num":    seq,
		"event_type": eventType,
		"data":       data,
	})
}

// unknownHand builds n face-down wire cards.
func unknownHand(prefix string, n int) []map[string]any {
	cards := make([]map[string]any, n)
	for i := range cards {
		cards[i] = map[string]any{
			"id":   prefix + string(rune('a'+i)),
			"rank": "UNKNOWN",
			"suit": "UNKNOWN",
		}
	}
	return cards
}

func gameCheckpoint(seq uint64) map[string]any {
	return map[string]any{
		"type":    "room_in_game_state",
		"seq_num": seq,
		"room":    map[string]any{"id": "room-1"},
		"game": map[string]any{
			"current_player_id": "p1",
			"phase":             "DRAW_PHASE",
			"players": []map[string]any{
				{"id": "p1", "nickname": "Ann", "cards": unknownHand("c1", 4)},
				{"id": "p2", "nickname": "Ben", "cards": unknownHand("c2", 4)},
			},
		},
	}
}

// inGameEngine returns an engine identified as p1 with a fresh two-player
// game applied.
func inGameEngine(t *testing.T) (*Engine, *mockSender) {
	t.Helper()
	e, ms := newTestEngine(t)
	e.HandleFrame(frame(t, map[string]any{
		"type":       "session_info",
		"session_id": "p1",
		"nickname":   "Ann",
		"room_id":    "room-1",
	}))
	e.HandleFrame(frame(t, gameCheckpoint(1)))
	ms.clear()
	return e, ms
}

// TestSessionInfoFiresHooks: identification reaches the session hook and the
// change notification, and a token-seeded identity works until the server's
// session_info overwrites it.
func TestSessionInfoFiresHooks(t *testing.T) {
	e, _ := newTestEngine(t)

	var gotSession []*protocol.SessionInfo
	e.OnSessionInfo(func(info *protocol.SessionInfo) {
		gotSession = append(gotSession, info)
	})
	changes := 0
	e.OnChange(func() { changes++ })

	e.SetLocalPlayerID("tok-1")
	assert.Equal(t, "tok-1", e.LocalPlayerID())

	e.HandleFrame(frame(t, map[string]any{
		"type":       "session_info",
		"session_id": "p1",
		"nickname":   "Ann",
		"room_id":    "room-1",
	}))
	require.Len(t, gotSession, 1)
	assert.Equal(t, "p1", gotSession[0].SessionID)
	assert.Equal(t, "room-1", gotSession[0].RoomID)
	assert.Equal(t, "p1", e.LocalPlayerID(), "the server's identity is authoritative")
	assert.Equal(t, 1, changes)
}

// TestWaitingRoomCheckpoint covers the first frame after joining: the room
// slice is replaced and the sequenced frame is acknowledged.
func TestWaitingRoomCheckpoint(t *testing.T) {
	e, ms := newTestEngine(t)

	e.HandleFrame(frame(t, map[string]any{
		"type":    "room_waiting_state",
		"seq_num": 1,
		"room": map[string]any{
			"id": "room-1",
			"players": []map[string]any{
				{"id": "p1", "nickname": "Ann", "isHost": true},
			},
		},
	}))

	st := e.Snapshot()
	assert.Equal(t, RoomWaiting, st.Status)
	require.Len(t, st.Players, 1)
	assert.Equal(t, "Ann", st.Players[0].Nickname)
	assert.True(t, st.Players[0].IsHost)

	sent := ms.all()
	require.Len(t, sent, 1)
	ack, ok := sent[0].(protocol.AckIntent)
	require.True(t, ok, "expected an ack for the sequenced frame")
	assert.Equal(t, uint64(1), ack.SeqNum)

	seq, seen := e.CurrentSeq()
	assert.True(t, seen)
	assert.Equal(t, uint64(1), seq)
}

// TestDeltasDiscardedUntilCheckpoint verifies checkpoint-before-delta: after
// a resync, deltas are acknowledged but not applied until a checkpoint lands.
func TestDeltasDiscardedUntilCheckpoint(t *testing.T) {
	e, ms := newTestEngine(t)

	e.HandleFrame(frame(t, map[string]any{
		"type":    "player_joined",
		"seq_num": 1,
		"player":  map[string]any{"id": "p9", "nickname": "Zoe"},
	}))
	assert.Empty(t, e.Snapshot().Players, "pre-checkpoint delta must not be applied")

	// The dropped delta is still acknowledged.
	sent := ms.all()
	require.Len(t, sent, 1)
	assert.IsType(t, protocol.AckIntent{}, sent[0])

	e.HandleFrame(frame(t, gameCheckpoint(2)))
	require.Len(t, e.Snapshot().Players, 2)

	// After a simulated reconnect, deltas are discarded again.
	e.ResetSync()
	e.HandleFrame(eventFrame(t, 3, "turn_changed", map[string]any{"current_player": "p2"}))
	assert.Equal(t, "p1", e.Snapshot().CurrentPlayerID, "post-reconnect delta must be discarded")

	e.HandleFrame(frame(t, gameCheckpoint(4)))
	e.HandleFrame(eventFrame(t, 5, "turn_changed", map[string]any{"current_player": "p2"}))
	assert.Equal(t, "p2", e.Snapshot().CurrentPlayerID)
}

// TestCheckpointIdempotent applies the same checkpoint twice and expects an
// identical tree.
func TestCheckpointIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)

	cp := gameCheckpoint(1)
	e.HandleFrame(frame(t, cp))
	first := e.Snapshot()

	cp["seq_num"] = 2
	e.HandleFrame(frame(t, cp))
	second := e.Snapshot()

	assert.Equal(t, first, second)
}

func TestReadyAdoptsServerSeq(t *testing.T) {
	e, ms := newTestEngine(t)

	e.HandleFrame(frame(t, map[string]any{"type": "ready", "current_seq": 42}))
	seq, seen := e.CurrentSeq()
	assert.True(t, seen)
	assert.Equal(t, uint64(42), seq)
	assert.Empty(t, ms.all(), "ready is a control message, not acknowledged")
}

func TestMalformedFrameDropped(t *testing.T) {
	e, _ := newTestEngine(t)
	e.HandleFrame(frame(t, gameCheckpoint(1)))
	before := e.Snapshot()

	e.HandleFrame([]byte(`{not json`))
	e.HandleFrame(frame(t, map[string]any{"type": "no_such_message"}))
	e.HandleFrame(eventFrame(t, 2, "no_such_event", nil))

	assert.Equal(t, before.Players, e.Snapshot().Players, "bad frames must leave the tree unchanged")
}

func TestPlayerJoinedAndLeft(t *testing.T) {
	e, _ := newTestEngine(t)
	e.HandleFrame(frame(t, map[string]any{
		"type":    "room_waiting_state",
		"seq_num": 1,
		"room": map[string]any{
			"id": "room-1",
			"players": []map[string]any{
				{"id": "p1", "nickname": "Ann", "isHost": true},
			},
		},
	}))

	e.HandleFrame(frame(t, map[string]any{
		"type":    "player_joined",
		"seq_num": 2,
		"player":  map[string]any{"id": "p2", "nickname": "Ben"},
	}))
	require.Len(t, e.Snapshot().Players, 2)

	// Unknown departure is dropped without effect.
	e.HandleFrame(frame(t, map[string]any{"type": "player_left", "seq_num": 3, "session_id": "p9"}))
	require.Len(t, e.Snapshot().Players, 2)

	e.HandleFrame(frame(t, map[string]any{"type": "player_left", "seq_num": 4, "session_id": "p2"}))
	players := e.Snapshot().Players
	require.Len(t, players, 1)
	assert.Equal(t, "p1", players[0].ID)
}

func TestTeardownClearsTree(t *testing.T) {
	e, _ := inGameEngine(t)
	e.Teardown()

	st := e.Snapshot()
	assert.Empty(t, st.Players)
	assert.Equal(t, PhaseSetup, st.Phase)

	// And gating is re-armed: the next delta is discarded.
	e.HandleFrame(eventFrame(t, 9, "turn_changed", map[string]any{"current_player": "p2"}))
	assert.Empty(t, e.Snapshot().CurrentPlayerID)
}
