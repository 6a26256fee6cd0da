/*
Package relay contains the core presence-tracking and event-relay logic.

This file defines the Session struct, representing one live WebSocket
connection. It manages the connection lifecycle and the read/write pumps that
move envelopes between the socket and the Hub.
*/
package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"relaychat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound envelope. Generous
	// because avatar refs may be embedded data URLs.
	maxMessageSize = 1 << 20

	sendChannelBuffer = 256
)

// Session represents one live transport session and its connection id.
type Session struct {
	// ID is the opaque connection identifier, unique per live session and
	// never reused.
	ID string

	hub  *Hub
	conn *websocket.Conn

	// send queues marshaled envelopes waiting to be written to the client.
	send chan []byte

	// closeOnce guards send against double close when the hub and the read
	// pump race on teardown.
	closeOnce sync.Once

	logger zerolog.Logger
}

// NewSession constructs a Session for an upgraded WebSocket connection.
func NewSession(hub *Hub, conn *websocket.Conn, connID string) *Session {
	sessionLogger := logx.Logger().With().
		Str("conn_id", connID).
		Logger()

	return &Session{
		ID:     connID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendChannelBuffer),
		logger: sessionLogger,
	}
}

// ReadPump reads envelopes from the WebSocket connection and forwards them to
// the hub event loop. It handles heartbeats (Pong) and performs cleanup when
// the connection closes.
func (s *Session) ReadPump() {
	defer s.cleanupOnDisconnect()

	s.conn.SetReadLimit(maxMessageSize)

	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		s.processInbound(messageBytes)
	}
}

// cleanupOnDisconnect unregisters the session and closes the connection when
// ReadPump terminates.
func (s *Session) cleanupOnDisconnect() {
	s.logger.Info().Msg("Session cleanup starting.")

	s.hub.UnregisterSession(s)

	if err := s.conn.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Session connection close error")
	}
}

// processInbound parses one raw envelope and hands it to the hub loop.
// A full inbound queue drops the event; the relay offers no delivery
// guarantee in either direction.
func (s *Session) processInbound(messageBytes []byte) {
	var env Envelope
	if err := json.Unmarshal(messageBytes, &env); err != nil {
		s.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		return
	}

	select {
	case s.hub.inbound <- inboundEvent{session: s, envelope: env}:
	default:
		s.logger.Warn().Str("kind", string(env.Kind)).Msg("Hub inbound queue full, dropping event.")
	}
}

// WritePump writes queued envelopes from the send channel to the WebSocket
// connection and keeps the heartbeat alive.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Session connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-s.send:
			if !s.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !s.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one message to the socket. Returns false when the
// WritePump loop should terminate.
func (s *Session) writeQueuedMessage(message []byte, ok bool) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			s.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		s.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic Ping to maintain the heartbeat.
func (s *Session) writePingMessage() bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		s.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// enqueue places a marshaled envelope on the send channel without blocking.
func (s *Session) enqueue(message []byte) bool {
	select {
	case s.send <- message:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once, which ends WritePump.
func (s *Session) closeSend() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}
