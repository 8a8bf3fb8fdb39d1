// internal/ws/conn.go
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cabo-arena/cabo-client/internal/protocol"
)

// Status is the transport-driven connection lifecycle.
type Status int32

const (
	StatusClosed Status = iota
	StatusConnecting
	StatusOpen
	StatusClosing
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "CONNECTING"
	case StatusOpen:
		return "OPEN"
	case StatusClosing:
		return "CLOSING"
	default:
		return "CLOSED"
	}
}

// StatusAuthRejected is the server's close code for an authentication
// rejection. Like a normal closure, it must not trigger reconnection.
const StatusAuthRejected websocket.StatusCode = 4001

// ErrNotOpen is returned by Send when the connection is not OPEN. The send is
// a reported no-op; the caller must not assume delivery.
var ErrNotOpen = errors.New("ws: connection is not open")

const writeTimeout = 3 * time.Second

type dialFunc func(ctx context.Context, addr string) (*websocket.Conn, error)

// Manager owns the lifecycle of a single duplex connection to the game
// server: dialing, the read pump, reconnection, and outbound writes. Inbound
// text frames are delivered on Frames for a single consumer.
type Manager struct {
	log  *logrus.Logger
	addr string

	mu   sync.Mutex
	conn *websocket.Conn

	status     atomic.Int32
	userClosed atomic.Bool
	frames     chan []byte

	// OnOpen runs after every successful (re)connect, after the session
	// re-identification request has been queued.
	OnOpen func()

	// OnStatus surfaces status transitions (the only user-visible failure
	// channel this client has).
	OnStatus func(Status)

	dial       dialFunc
	maxRetries int
	retryDelay time.Duration
}

// New builds a manager for the given websocket address.
func New(addr string, log *logrus.Logger) *Manager {
	m := &Manager{
		log:        log,
		addr:       addr,
		frames:     make(chan []byte, 64),
		maxRetries: 5,
		retryDelay: 3 * time.Second,
	}
	m.dial = func(ctx context.Context, addr string) (*websocket.Conn, error) {
		c, _, err := websocket.Dial(ctx, addr, &websocket.DialOptions{
			Subprotocols: []string{"game"},
		})
		return c, err
	}
	return m
}

// Status returns the current lifecycle state.
func (m *Manager) Status() Status {
	return Status(m.status.Load())
}

// Frames returns the inbound frame channel. It is closed when the connection
// ends for good (deliberate close, auth rejection, or retries exhausted).
func (m *Manager) Frames() <-chan []byte {
	return m.frames
}

// Connect dials the server and starts the read pump. The context governs the
// connection's whole life, including reconnect attempts: canceling it tears
// everything down.
func (m *Manager) Connect(ctx context.Context) error {
	m.setStatus(StatusConnecting)
	conn, err := m.dial(ctx, m.addr)
	if err != nil {
		m.setStatus(StatusClosed)
		return err
	}
	m.setConn(conn)
	m.opened()
	go m.readLoop(ctx)
	return nil
}

// Send marshals and writes one outbound message. Fire-and-forget: a write
// error is logged, and sending while not OPEN is a reported no-op.
func (m *Manager) Send(v any) error {
	if m.Status() != StatusOpen {
		m.log.Warnf("Dropping outbound message: connection is %s", m.Status())
		return ErrNotOpen
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return ErrNotOpen
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		m.log.Warnf("Failed to write outbound message: %v", err)
		return err
	}
	return nil
}

// Disconnect closes the connection deliberately; no reconnection follows.
func (m *Manager) Disconnect() {
	m.userClosed.Store(true)
	m.setStatus(StatusClosing)
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "client disconnect")
	}
}

func (m *Manager) setConn(conn *websocket.Conn) {
	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()
}

func (m *Manager) setStatus(s Status) {
	old := Status(m.status.Swap(int32(s)))
	if old != s && m.OnStatus != nil {
		m.OnStatus(s)
	}
}

// opened marks the connection OPEN and performs the per-connection side
// effects: session re-identification so the server can re-identify the
// caller after network loss, then the OnOpen hook (the engine arms checkpoint
// gating there).
func (m *Manager) opened() {
	connID := uuid.New()
	m.setStatus(StatusOpen)
	m.log.Infof("Connection %s established to %s", connID, m.addr)
	if err := m.Send(protocol.NewGetSessionInfo()); err != nil {
		m.log.Warnf("Failed to request session info on connection %s: %v", connID, err)
	}
	if m.OnOpen != nil {
		m.OnOpen()
	}
}

// readLoop pumps inbound frames until the connection ends. On unexpected
// closure it hands off to the reconnect policy and resumes with the new
// connection.
func (m *Manager) readLoop(ctx context.Context) {
	for {
		m.mu.Lock()
		conn := m.conn
		m.mu.Unlock()
		if conn == nil {
			m.finish()
			return
		}

		typ, data, err := conn.Read(ctx)
		if err != nil {
			if m.userClosed.Load() || ctx.Err() != nil {
				m.log.Infof("Connection closed: %v", err)
				m.finish()
				return
			}
			code := websocket.CloseStatus(err)
			if !ShouldReconnect(code) {
				m.log.Infof("Connection closed with code %d, not reconnecting", code)
				m.finish()
				return
			}
			m.log.Warnf("Connection lost (code %d): %v. Reconnecting.", code, err)
			if !m.reconnect(ctx) {
				m.finish()
				return
			}
			continue
		}

		if typ != websocket.MessageText {
			m.log.Warnf("Ignoring non-text frame of type %d", typ)
			continue
		}

		select {
		case m.frames <- data:
		case <-ctx.Done():
			m.finish()
			return
		}
	}
}

// reconnect retries the dial a bounded number of times with a fixed delay,
// canceled by the connect context (user navigating away).
func (m *Manager) reconnect(ctx context.Context) bool {
	m.setStatus(StatusConnecting)
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(m.retryDelay):
		}
		conn, err := m.dial(ctx, m.addr)
		if err != nil {
			m.log.Warnf("Reconnect attempt %d/%d failed: %v", attempt, m.maxRetries, err)
			continue
		}
		m.setConn(conn)
		m.opened()
		return true
	}
	m.log.Warnf("Giving up after %d reconnect attempts", m.maxRetries)
	return false
}

// finish transitions to CLOSED and releases the frame consumer.
func (m *Manager) finish() {
	m.setStatus(StatusClosed)
	close(m.frames)
}

// ShouldReconnect classifies a close code: a deliberate close or an
// authentication rejection ends the session; everything else (abnormal
// closure included) is worth retrying.
func ShouldReconnect(code websocket.StatusCode) bool {
	switch code {
	case websocket.StatusNormalClosure, StatusAuthRejected:
		return false
	default:
		return true
	}
}
