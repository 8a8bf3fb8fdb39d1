// internal/session/session.go
package session

import (
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cabo-arena/cabo-client/internal/protocol"
)

// Session holds the identity the server knows this client by. The token
// itself is acquired out of band (nickname registration sets an auth cookie);
// this client only carries it and reads its claims for display.
type Session struct {
	mu        sync.RWMutex
	SessionID string
	Nickname  string
	RoomID    string
}

// FromToken builds a session from the externally issued auth token. The
// signature is not verified here; the server is the verifier. Only the "sub"
// claim (session id) is required, nickname is best-effort.
func FromToken(tokenString string) (*Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("session: cannot parse token: %w", err)
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("session: token missing sub claim")
	}
	s := &Session{SessionID: sub}
	if nick, ok := claims["nickname"].(string); ok {
		s.Nickname = nick
	}
	return s, nil
}

// Apply overwrites the session with the server's authoritative session_info
// response and reports whether the session id changed.
func (s *Session) Apply(info *protocol.SessionInfo) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.SessionID != "" && s.SessionID != info.SessionID
	s.SessionID = info.SessionID
	s.Nickname = info.Nickname
	s.RoomID = info.RoomID
	return changed
}

// ID returns the current session id.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SessionID
}
