package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rakansens/gardenwars-colyseus/internal/game"
)

// handlers binds the discovery endpoints to the room manager.
type handlers struct {
	manager *game.Manager
	log     zerolog.Logger
}

// roomListing is the /rooms wire shape.
type roomListing struct {
	RoomID          string    `json:"roomId"`
	HostName        string    `json:"hostName"`
	HostDeckPreview []string  `json:"hostDeckPreview"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	})
}

// handleRooms lists rooms a new player could join: waiting with exactly
// one client.
func (h *handlers) handleRooms(w http.ResponseWriter, r *http.Request) {
	infos := h.manager.ListJoinable()
	listings := make([]roomListing, 0, len(infos))
	for _, info := range infos {
		listings = append(listings, roomListing{
			RoomID:          info.RoomID,
			HostName:        info.HostName,
			HostDeckPreview: info.HostDeckPreview,
			CreatedAt:       info.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": listings})
}

func (h *handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
