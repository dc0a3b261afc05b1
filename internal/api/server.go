// Package api serves the read-only projection of current train
// positions. It is a thin view over the store's snapshot; nothing here
// mutates state.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/railwatch/railwatch/internal/store"
)

// HeartbeatSource exposes per-area feed liveness for the health endpoint.
// Implemented by tracker.Tracker.
type HeartbeatSource interface {
	Heartbeats() map[string]int64
}

// trainJSON is the wire shape of one projected train.
type trainJSON struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timestamp   int64   `json:"timestamp"`
}

type healthJSON struct {
	Status string           `json:"status"`
	Areas  map[string]int64 `json:"areas"` // area -> last heartbeat, epoch seconds
}

// NewHandler builds the projection mux. heartbeats may be nil, in which
// case /health reports no areas.
func NewHandler(st *store.Store, heartbeats HeartbeatSource) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /get_trains", func(w http.ResponseWriter, r *http.Request) {
		handleGetTrains(st, w, r)
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		handleHealth(heartbeats, w)
	})
	return mux
}

func handleGetTrains(st *store.Store, w http.ResponseWriter, r *http.Request) {
	positions, err := st.ActivePositions(r.Context())
	if err != nil {
		slog.Error("projection query failed", "error", err)
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}

	trains := make([]trainJSON, 0, len(positions))
	for _, p := range positions {
		trains = append(trains, trainJSON{
			ID:          p.ID,
			Description: p.Code,
			Lat:         p.Latitude,
			Lon:         p.Longitude,
			Timestamp:   p.LastSeen / 1000,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(trains); err != nil {
		slog.Debug("projection write failed", "error", err)
	}
}

func handleHealth(heartbeats HeartbeatSource, w http.ResponseWriter) {
	h := healthJSON{Status: "ok", Areas: map[string]int64{}}
	if heartbeats != nil {
		for area, at := range heartbeats.Heartbeats() {
			h.Areas[area] = at / 1000
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h); err != nil {
		slog.Debug("health write failed", "error", err)
	}
}

// Server wraps http.Server with sensible timeouts for the projection.
func Server(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
