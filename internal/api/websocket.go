package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/rakansens/gardenwars-colyseus/internal/game"
	"github.com/rakansens/gardenwars-colyseus/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// The game is authoritative, so any origin may connect; the browser CORS
// story is equally permissive on the HTTP surface.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// envelope is the outbound {event, data} frame.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// inboundMessage is a client command frame.
type inboundMessage struct {
	Type   string `json:"type"`
	UnitID string `json:"unitId,omitempty"`
}

// wsSession is one connected client. It implements game.Client: Send
// queues into a buffered channel drained by the write pump, so the room
// loop never blocks on a slow socket.
type wsSession struct {
	id   string
	conn *websocket.Conn
	room *game.Room
	log  zerolog.Logger

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newWSSession(conn *websocket.Conn, log zerolog.Logger) *wsSession {
	id := "sess_" + randomHex(8)
	return &wsSession{
		id:     id,
		conn:   conn,
		log:    log.With().Str("session", id).Logger(),
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

func (s *wsSession) SessionID() string { return s.id }

// Send marshals the envelope and queues it. Frames are dropped when the
// buffer is full; the per-tick snapshots make the client whole again.
func (s *wsSession) Send(event string, data any) {
	payload, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		s.log.Error().Err(err).Str("event", event).Msg("Failed to marshal frame")
		return
	}
	select {
	case s.send <- payload:
	case <-s.closed:
	default:
		s.log.Warn().Str("event", event).Msg("Dropping frame, send buffer full")
	}
}

// Close tears the connection down. Safe from any goroutine.
func (s *wsSession) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}

func (s *wsSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case payload := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.Close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.closed:
			return
		}
	}
}

// readPump parses inbound command frames and forwards them to the room.
// Returning signals disconnect; the caller adjudicates the leave.
func (s *wsSession) readPump() {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.Debug().Msg("Ignoring malformed frame")
			continue
		}
		switch msg.Type {
		case "ready":
			s.room.Ready(s.id)
		case "summon":
			s.room.Summon(s.id, msg.UnitID)
		case "upgrade_cost":
			s.room.UpgradeCostLevel(s.id)
		default:
			s.log.Debug().Str("type", msg.Type).Msg("Ignoring unknown command")
		}
	}
}

// handleWS upgrades the connection and joins the session to its room.
// Join options ride on the query string: room, name, playerId, deck.
func (h *handlers) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	session := newWSSession(conn, h.log)
	opts := joinOptionsFromQuery(r)
	room := h.manager.GetOrCreate(r.URL.Query().Get("room"))
	session.room = room

	go session.writePump()

	if err := room.Join(session, opts); err != nil {
		metrics.ConnectionsRejected.WithLabelValues("room_full").Inc()
		session.Send(game.EventError, game.ErrorPayload{
			Code:    "JOIN_REJECTED",
			Message: err.Error(),
		})
		// Give the write pump a moment to flush the rejection.
		time.Sleep(100 * time.Millisecond)
		session.Close()
		return
	}

	metrics.SessionsConnected.Inc()
	session.log.Info().Str("room", room.ID).Msg("Session joined")

	session.readPump()

	metrics.SessionsConnected.Dec()
	room.Leave(session.id)
	session.Close()
}

func joinOptionsFromQuery(r *http.Request) game.JoinOptions {
	q := r.URL.Query()
	var deck []string
	if raw := q.Get("deck"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				deck = append(deck, id)
			}
		}
	}
	return game.JoinOptions{
		ExternalPlayerID: q.Get("playerId"),
		DisplayName:      q.Get("name"),
		Deck:             deck,
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}
