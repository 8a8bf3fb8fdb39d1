// internal/engine/visibility.go
package engine

// FaceUp reports whether a card renders face-up to the local viewer: only
// after the game ends (full disclosure) or while the card carries a temporary
// reveal. Ownership grants nothing by itself; a player's own unrevealed cards
// stay hidden from them, that is the memory game.
func FaceUp(st *State, c *Card) bool {
	if c == nil {
		return false
	}
	if st.Phase == PhaseEnded {
		return true
	}
	return c.TemporarilyViewed
}

// FaceUp is the snapshot-side convenience for presentation code.
func (s *State) FaceUp(c *Card) bool {
	return FaceUp(s, c)
}
