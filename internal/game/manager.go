package game

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rakansens/gardenwars-colyseus/internal/catalog"
	"github.com/rakansens/gardenwars-colyseus/internal/metrics"
	"github.com/rakansens/gardenwars-colyseus/internal/sink"
)

// Manager owns every live room and the registry metadata the discovery
// layer queries. Rooms run their own loops; the manager only tracks them.
type Manager struct {
	cfg     RoomConfig
	log     zerolog.Logger
	catalog *catalog.Catalog
	sink    sink.ResultSink

	mu    sync.RWMutex
	rooms map[string]*Room

	idleTTL   time.Duration
	sweepStop chan struct{}
	sweepOnce sync.Once
}

// ManagerConfig tunes the manager.
type ManagerConfig struct {
	Room RoomConfig
	// IdleRoomTTL disposes waiting rooms that have had no clients for
	// this long. Zero disables the sweep.
	IdleRoomTTL time.Duration
}

// NewManager creates a room manager. Call Shutdown before process exit.
func NewManager(cfg ManagerConfig, cat *catalog.Catalog, resultSink sink.ResultSink, log zerolog.Logger) *Manager {
	m := &Manager{
		cfg:       cfg.Room,
		log:       log,
		catalog:   cat,
		sink:      resultSink,
		rooms:     make(map[string]*Room),
		idleTTL:   cfg.IdleRoomTTL,
		sweepStop: make(chan struct{}),
	}
	if m.idleTTL > 0 {
		go m.sweepLoop()
	}
	return m
}

// GetOrCreate returns the room with the given id, creating it when absent.
// An empty id creates a fresh room under a generated id.
func (m *Manager) GetOrCreate(id string) *Room {
	if id == "" {
		id = newRoomID()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		return r
	}
	r := NewRoom(id, m.cfg, m.catalog, m.sink, m.log, m.removeRoom)
	m.rooms[id] = r
	metrics.RoomsActive.Inc()
	m.log.Info().Str("room", id).Msg("Room created")
	return r
}

// Get returns a room by id, or nil.
func (m *Manager) Get(id string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[id]
}

// RoomCount returns the number of live rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// ListJoinable returns metadata for rooms a new player could enter:
// waiting with exactly one client, newest last.
func (m *Manager) ListJoinable() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(m.rooms))
	for _, r := range m.rooms {
		info := r.Info()
		if info.Status == string(PhaseWaiting) && info.ClientCount == 1 {
			infos = append(infos, info)
		}
	}
	return infos
}

// removeRoom is each room's dispose callback.
func (m *Manager) removeRoom(id string) {
	m.mu.Lock()
	if _, ok := m.rooms[id]; ok {
		delete(m.rooms, id)
		metrics.RoomsActive.Dec()
	}
	m.mu.Unlock()
}

// sweepLoop disposes waiting rooms nobody ever joined.
func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(m.idleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweepIdle()
		case <-m.sweepStop:
			return
		}
	}
}

func (m *Manager) sweepIdle() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.RLock()
	var stale []*Room
	for _, r := range m.rooms {
		info := r.Info()
		if info.Status == string(PhaseWaiting) && info.ClientCount == 0 && r.CreatedAt().Before(cutoff) {
			stale = append(stale, r)
		}
	}
	m.mu.RUnlock()

	for _, r := range stale {
		m.log.Info().Str("room", r.ID).Msg("Disposing idle room")
		r.Close()
	}
}

// Shutdown disposes every room. Used during graceful process exit after
// the listener has stopped accepting.
func (m *Manager) Shutdown() {
	m.sweepOnce.Do(func() { close(m.sweepStop) })

	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	for _, r := range rooms {
		r.Close()
	}
}

func newRoomID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "room_fallback"
	}
	return "room_" + hex.EncodeToString(b)
}
