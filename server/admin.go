package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// HandleMetrics 输出运行指标
// GET /metrics             进程级指标 + 所有房间
// GET /metrics?room=r1     指定房间
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if roomID := r.URL.Query().Get("room"); roomID != "" {
		room, ok := s.registry.Room(roomID)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"room": roomID, "metrics": room.Metrics().Snapshot()})
		return
	}
	rooms := make(map[string]any)
	for _, room := range s.registry.Rooms() {
		rooms[room.ID] = room.Metrics().Snapshot()
	}
	writeJSON(w, map[string]any{"server": s.metrics.Snapshot(), "rooms": rooms})
}

// HandleRooms 输出房间状态快照
// GET /admin/rooms          所有活跃房间
// GET /admin/rooms?room=r1  指定房间
func (s *Server) HandleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	rooms := s.registry.Rooms()
	if roomID := r.URL.Query().Get("room"); roomID != "" {
		room, ok := s.registry.Room(roomID)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		rooms = []*Room{room}
	}
	out := make([]Snapshot, 0, len(rooms))
	for _, room := range rooms {
		snap, err := room.Snapshot(ctx)
		if errors.Is(err, ErrRoomClosed) {
			continue
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		out = append(out, snap)
	}
	writeJSON(w, map[string]any{"rooms": out})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Log.Warnw("write json response failed", "err", err)
	}
}
