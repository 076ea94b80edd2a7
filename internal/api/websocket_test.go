package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rakansens/gardenwars-colyseus/internal/game"
)

// readUntil collects event names until the wanted event arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) []string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var seen []string
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read (waiting for %q, seen %v): %v", want, seen, err)
		}
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("bad frame %q: %v", raw, err)
		}
		seen = append(seen, env.Event)
		if env.Event == want {
			return seen
		}
	}
}

func contains(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

func TestWebSocketJoinFlow(t *testing.T) {
	router, manager := newTestRouter(t)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	wsBase := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	dial := func(query string) *websocket.Conn {
		t.Helper()
		conn, _, err := websocket.DefaultDialer.Dial(wsBase+"?"+query, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		return conn
	}

	c1 := dial("room=duel1&name=Alice&playerId=p1&deck=sprout_soldier,acorn_slinger")
	defer c1.Close()
	seen := readUntil(t, c1, game.EventRoomState)
	if !contains(seen, game.EventPlayerJoined) {
		t.Errorf("first join frames = %v, missing player_joined", seen)
	}

	c2 := dial("room=duel1&name=Bob&playerId=p2&deck=thorn_guard")
	defer c2.Close()
	readUntil(t, c2, game.EventRoomState)

	// The host hears about the opponent.
	readUntil(t, c1, game.EventPlayerJoined)

	// A third connection bounces off the full room.
	c3 := dial("room=duel1&name=Carol")
	defer c3.Close()
	c3.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, raw, err := c3.ReadMessage()
	if err != nil {
		t.Fatalf("read rejection: %v", err)
	}
	var env struct {
		Event string            `json:"event"`
		Data  game.ErrorPayload `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("bad rejection frame %q: %v", raw, err)
	}
	if env.Event != game.EventError || env.Data.Code != "JOIN_REJECTED" {
		t.Errorf("rejection frame = %+v", env)
	}

	// Last disconnect disposes the room.
	c1.Close()
	c2.Close()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if manager.RoomCount() == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("room not disposed after all clients left; count = %d", manager.RoomCount())
}

func TestJoinOptionsFromQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws?room=r1&name=Alice&playerId=ext9&deck=a,%20b,,c", nil)
	opts := joinOptionsFromQuery(req)

	if opts.DisplayName != "Alice" {
		t.Errorf("name = %q", opts.DisplayName)
	}
	if opts.ExternalPlayerID != "ext9" {
		t.Errorf("playerId = %q", opts.ExternalPlayerID)
	}
	want := []string{"a", "b", "c"}
	if len(opts.Deck) != len(want) {
		t.Fatalf("deck = %v, want %v", opts.Deck, want)
	}
	for i := range want {
		if opts.Deck[i] != want[i] {
			t.Errorf("deck[%d] = %q, want %q", i, opts.Deck[i], want[i])
		}
	}
}
