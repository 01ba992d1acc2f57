package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func getJSON(t *testing.T, h http.Handler, target string, v any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code == http.StatusOK && v != nil {
		if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
			t.Fatalf("decode %s: %v", target, err)
		}
	}
	return rr.Code
}

func TestAdminRoomsAndMetrics(t *testing.T) {
	srv := NewServer(testConfig())
	room, p, err := srv.Registry().Join("r1", "alice", &recorder{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := room.Submit(PlayerID(p.ID), MoveIntent{To: Vec3{X: 100}}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	h := srv.Handler()

	var rooms struct {
		Rooms []Snapshot `json:"rooms"`
	}
	if code := getJSON(t, h, "/admin/rooms", &rooms); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(rooms.Rooms) != 1 || rooms.Rooms[0].Room != "r1" || len(rooms.Rooms[0].Players) != 1 {
		t.Fatalf("unexpected rooms %+v", rooms)
	}

	var metrics struct {
		Room    string         `json:"room"`
		Metrics map[string]any `json:"metrics"`
	}
	if code := getJSON(t, h, "/metrics?room=r1", &metrics); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	// 快照请求排在 move 之后，此时拒绝已计入
	if metrics.Metrics["commands_rejected"] != float64(1) || metrics.Metrics["joins"] != float64(1) {
		t.Fatalf("unexpected metrics %+v", metrics.Metrics)
	}

	if code := getJSON(t, h, "/metrics?room=nope", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown room, got %d", code)
	}
	var all map[string]any
	if code := getJSON(t, h, "/metrics", &all); code != http.StatusOK || all["server"] == nil {
		t.Fatalf("unexpected server metrics %d %+v", code, all)
	}
}

func TestSchemaEndpoint(t *testing.T) {
	h := NewServer(testConfig()).Handler()
	req := httptest.NewRequest(http.MethodGet, "/schema", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var schemas map[string]json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &schemas); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, typ := range []string{MsgJoin, MsgMove, MsgPlaceBlock, MsgBedBreak, MsgPurchase, MsgCollect, MsgLeave} {
		if _, ok := schemas[typ]; !ok {
			t.Fatalf("missing schema for %s", typ)
		}
	}
	if !strings.Contains(string(schemas[MsgPurchase]), "itemId") {
		t.Fatalf("purchase schema lacks itemId: %s", schemas[MsgPurchase])
	}
}
