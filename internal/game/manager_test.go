package game

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestManager(t *testing.T, idleTTL time.Duration) *Manager {
	t.Helper()
	m := NewManager(ManagerConfig{
		Room:        DefaultRoomConfig(),
		IdleRoomTTL: idleTTL,
	}, testCatalog(t), &captureSink{}, zerolog.Nop())
	t.Cleanup(m.Shutdown)
	return m
}

func TestGetOrCreateReusesRoom(t *testing.T) {
	m := newTestManager(t, 0)

	r1 := m.GetOrCreate("alpha")
	r2 := m.GetOrCreate("alpha")
	if r1 != r2 {
		t.Errorf("same id produced different rooms")
	}
	if m.Get("alpha") != r1 {
		t.Errorf("Get did not return the created room")
	}
	if m.RoomCount() != 1 {
		t.Errorf("room count = %d, want 1", m.RoomCount())
	}
	if m.Get("missing") != nil {
		t.Errorf("Get for unknown id should be nil")
	}
}

func TestGetOrCreateGeneratesIDs(t *testing.T) {
	m := newTestManager(t, 0)

	r1 := m.GetOrCreate("")
	r2 := m.GetOrCreate("")
	if r1.ID == r2.ID {
		t.Errorf("generated ids collide: %q", r1.ID)
	}
	if !strings.HasPrefix(r1.ID, "room_") {
		t.Errorf("generated id = %q, want room_ prefix", r1.ID)
	}
	if m.RoomCount() != 2 {
		t.Errorf("room count = %d, want 2", m.RoomCount())
	}
}

func TestListJoinableFiltersRooms(t *testing.T) {
	m := newTestManager(t, 0)

	// Empty room: nobody to play against, not listed.
	m.GetOrCreate("empty")

	// One seated host: joinable.
	open := m.GetOrCreate("open")
	if err := open.Join(&fakeClient{id: "host"}, JoinOptions{DisplayName: "Hosty", Deck: testDeck}); err != nil {
		t.Fatalf("join open: %v", err)
	}

	// Two players: locked, not listed.
	full := m.GetOrCreate("full")
	if err := full.Join(&fakeClient{id: "f1"}, JoinOptions{}); err != nil {
		t.Fatalf("join full 1: %v", err)
	}
	if err := full.Join(&fakeClient{id: "f2"}, JoinOptions{}); err != nil {
		t.Fatalf("join full 2: %v", err)
	}

	infos := m.ListJoinable()
	if len(infos) != 1 {
		t.Fatalf("joinable rooms = %d, want 1", len(infos))
	}
	if infos[0].RoomID != "open" {
		t.Errorf("listed room = %q, want open", infos[0].RoomID)
	}
	if infos[0].HostName != "Hosty" {
		t.Errorf("listed host = %q, want Hosty", infos[0].HostName)
	}
}

func TestRoomDisposalRemovesFromManager(t *testing.T) {
	m := newTestManager(t, 0)

	r := m.GetOrCreate("gone")
	r.Close()

	waitFor(t, func() bool { return m.RoomCount() == 0 })
}

func TestShutdownClosesClients(t *testing.T) {
	m := newTestManager(t, 0)

	r := m.GetOrCreate("alpha")
	c := &fakeClient{id: "c1"}
	if err := r.Join(c, JoinOptions{}); err != nil {
		t.Fatalf("join: %v", err)
	}

	m.Shutdown()

	waitFor(t, func() bool { return m.RoomCount() == 0 })
	waitFor(t, c.isClosed)
}

func TestIdleRoomSwept(t *testing.T) {
	m := newTestManager(t, 30*time.Millisecond)

	m.GetOrCreate("stale")
	waitFor(t, func() bool { return m.RoomCount() == 0 })
}
