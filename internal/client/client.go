// internal/client/client.go
package client

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cabo-arena/cabo-client/internal/config"
	"github.com/cabo-arena/cabo-client/internal/engine"
	"github.com/cabo-arena/cabo-client/internal/protocol"
	"github.com/cabo-arena/cabo-client/internal/session"
	"github.com/cabo-arena/cabo-client/internal/ws"
)

const pingInterval = 30 * time.Second

// RoomService is the narrow interface to the out-of-scope HTTP layer that
// creates and joins rooms. The engine only assumes the resulting room id; an
// implementation lives with the presentation layer.
type RoomService interface {
	CreateRoom(ctx context.Context, nickname string) (roomID string, err error)
	JoinRoom(ctx context.Context, roomID, nickname string) error
}

// Client wires the connection manager, the game engine, and the session
// holder, and owns the single event-processing goroutine: all inbound frames
// are handled one at a time, in arrival order, with no parallel mutation of
// the state tree.
type Client struct {
	log     *logrus.Logger
	conn    *ws.Manager
	engine  *engine.Engine
	session *session.Session
}

// New builds a client for the configured server.
func New(cfg config.Config, log *logrus.Logger) *Client {
	conn := ws.New(cfg.ServerAddr, log)
	eng := engine.New(conn, log)

	c := &Client{
		log:     log,
		conn:    conn,
		engine:  eng,
		session: &session.Session{},
	}

	if cfg.SessionToken != "" {
		if s, err := session.FromToken(cfg.SessionToken); err != nil {
			log.Warnf("Ignoring unusable session token: %v", err)
		} else {
			c.session = s
		}
	}

	// The token's claims identify the player until the server's first
	// session_info, which stays authoritative and keeps the holder current.
	if id := c.session.ID(); id != "" {
		eng.SetLocalPlayerID(id)
	}
	eng.OnSessionInfo(func(info *protocol.SessionInfo) {
		c.session.Apply(info)
	})

	// After every successful (re)connect the first state-bearing message the
	// engine trusts must be a checkpoint, never a delta.
	conn.OnOpen = eng.ResetSync
	conn.OnStatus = func(s ws.Status) {
		log.Infof("Connection status: %s", s)
	}
	return c
}

// Engine exposes the game core for intent methods and snapshots.
func (c *Client) Engine() *engine.Engine {
	return c.engine
}

// Session exposes the identity holder.
func (c *Client) Session() *session.Session {
	return c.session
}

// Status reports the transport status for surfacing to the user.
func (c *Client) Status() ws.Status {
	return c.conn.Status()
}

// Run connects and processes inbound frames until the context is canceled or
// the connection ends for good. The ping ticker is the only other writer.
func (c *Client) Run(ctx context.Context) error {
	if err := c.conn.Connect(ctx); err != nil {
		return err
	}
	defer c.engine.Teardown()

	pings := time.NewTicker(pingInterval)
	defer pings.Stop()

	for {
		select {
		case <-ctx.Done():
			c.conn.Disconnect()
			return ctx.Err()
		case <-pings.C:
			if err := c.conn.Send(protocol.NewPing()); err != nil {
				c.log.Debugf("Ping not sent: %v", err)
			}
		case raw, ok := <-c.conn.Frames():
			if !ok {
				c.log.Infof("Connection ended, stopping client loop")
				return nil
			}
			c.engine.HandleFrame(raw)
		}
	}
}

// Leave tears down the game state and closes the connection deliberately.
func (c *Client) Leave() {
	c.engine.Teardown()
	c.conn.Disconnect()
}
