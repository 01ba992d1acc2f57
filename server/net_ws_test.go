package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, cfg Config) (*Server, string) {
	t.Helper()
	srv := NewServer(cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := conn.WriteJSON(Envelope{Type: typ, Payload: raw}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// waitFor 读取消息直到出现指定类型；其余消息被跳过
func waitFor(t *testing.T, conn *websocket.Conn, typ string) Envelope {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if env.Type == typ {
			return env
		}
	}
}

func joinOverWS(t *testing.T, url, room, name string) (*websocket.Conn, PlayerView) {
	t.Helper()
	conn := dial(t, url)
	writeEnvelope(t, conn, MsgJoin, map[string]string{"room": room, "name": name})
	var init InitPayload
	decodePayload(t, waitFor(t, conn, EvInit), &init)
	return conn, init.You
}

func TestWebSocketBedwarsScenario(t *testing.T) {
	_, url := newTestServer(t, testConfig())
	connA, a := joinOverWS(t, url, "r1", "A")
	connB, b := joinOverWS(t, url, "r1", "B")
	if a.Team != TeamRed || b.Team != TeamBlue {
		t.Fatalf("expected red and blue, got %s and %s", a.Team, b.Team)
	}

	writeEnvelope(t, connA, MsgPlaceBlock, map[string]any{"team": "red", "position": Vec3{X: 1, Y: 0, Z: 1}})
	for _, conn := range []*websocket.Conn{connA, connB} {
		var ev UpdateBlockEvent
		decodePayload(t, waitFor(t, conn, EvUpdateBlock), &ev)
		if ev.Team != TeamRed || ev.Position != (Vec3{X: 1, Y: 0, Z: 1}) {
			t.Fatalf("unexpected update-block %+v", ev)
		}
	}
	var inv InventoryEvent
	decodePayload(t, waitFor(t, connA, EvInventory), &inv)
	if inv.Inventory[ItemWool] != 15 {
		t.Fatalf("expected 15 wool, got %d", inv.Inventory[ItemWool])
	}

	writeEnvelope(t, connB, MsgBedBreak, map[string]string{"team": "red"})
	for _, conn := range []*websocket.Conn{connA, connB} {
		var ev BedStatusEvent
		decodePayload(t, waitFor(t, conn, EvBedStatus), &ev)
		if ev.Team != TeamRed || !ev.Broken {
			t.Fatalf("unexpected bed-status %+v", ev)
		}
	}

	writeEnvelope(t, connA, MsgBedBreak, map[string]string{"team": "red"})
	var rej RejectPayload
	decodePayload(t, waitFor(t, connA, EvReject), &rej)
	if rej.Reason != ReasonTargetAlreadyDestroyed {
		t.Fatalf("expected TargetAlreadyDestroyed, got %+v", rej)
	}

	// B 的下一条消息应当是自己的移动，而不是 A 的拒绝
	writeEnvelope(t, connB, MsgMove, Vec3{X: 0, Y: 1, Z: 0})
	_ = connB.SetReadDeadline(time.Now().Add(2 * time.Second))
	var next Envelope
	if err := connB.ReadJSON(&next); err != nil {
		t.Fatalf("read: %v", err)
	}
	if next.Type != EvPlayerMove {
		t.Fatalf("expected player-move, got %s", next.Type)
	}
}

func TestIntentBeforeJoinIsUnauthenticated(t *testing.T) {
	_, url := newTestServer(t, testConfig())
	conn := dial(t, url)

	writeEnvelope(t, conn, MsgMove, Vec3{X: 1})
	var rej RejectPayload
	decodePayload(t, waitFor(t, conn, EvReject), &rej)
	if rej.Reason != ReasonUnauthenticated || rej.Intent != MsgMove {
		t.Fatalf("unexpected reject %+v", rej)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("garbage")); err != nil {
		t.Fatalf("write: %v", err)
	}
	decodePayload(t, waitFor(t, conn, EvReject), &rej)
	if rej.Reason != ReasonUnauthenticated {
		t.Fatalf("malformed message should be rejected as Unauthenticated, got %+v", rej)
	}

	// 仍然可以正常加入
	writeEnvelope(t, conn, MsgJoin, map[string]string{"room": "r1", "name": "late"})
	waitFor(t, conn, EvInit)
}

func TestRoomFullOverWebSocket(t *testing.T) {
	cfg := testConfig()
	cfg.Capacity = 1
	srv, url := newTestServer(t, cfg)
	joinOverWS(t, url, "r1", "first")

	conn := dial(t, url)
	writeEnvelope(t, conn, MsgJoin, map[string]string{"room": "r1", "name": "second"})
	var full FullPayload
	decodePayload(t, waitFor(t, conn, EvFull), &full)
	if full.Room != "r1" || full.Capacity != 1 {
		t.Fatalf("unexpected full payload %+v", full)
	}
	if got := srv.metrics.Snapshot()["joins_full"]; got != int64(1) {
		t.Fatalf("expected joins_full=1, got %v", got)
	}
}

func TestJoinGracePeriodDropsConnection(t *testing.T) {
	cfg := testConfig()
	cfg.JoinTimeout = 100 * time.Millisecond
	_, url := newTestServer(t, cfg)
	conn := dial(t, url)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
				t.Fatalf("server did not drop idle connection: %v", err)
			}
			return
		}
	}
}

func TestDisconnectBroadcastsLeave(t *testing.T) {
	srv, url := newTestServer(t, testConfig())
	connA, a := joinOverWS(t, url, "r1", "A")
	connB, _ := joinOverWS(t, url, "r1", "B")

	writeEnvelope(t, connA, MsgPlaceBlock, map[string]any{"team": "red", "position": Vec3{X: 2, Y: 0, Z: 2}})
	waitFor(t, connB, EvUpdateBlock)
	connA.Close()

	var leave PlayerLeaveEvent
	decodePayload(t, waitFor(t, connB, EvPlayerLeave), &leave)
	if leave.ID != a.ID {
		t.Fatalf("expected leave for %s, got %s", a.ID, leave.ID)
	}
	var roster PlayerListPayload
	decodePayload(t, waitFor(t, connB, EvPlayerList), &roster)
	if len(roster.Players) != 1 || roster.Players[0].Name != "B" {
		t.Fatalf("unexpected roster %+v", roster)
	}

	room, ok := srv.Registry().Room("r1")
	if !ok {
		t.Fatalf("room should survive while B is connected")
	}
	if blocks := mustSnapshot(t, room).Blocks; len(blocks) != 1 {
		t.Fatalf("expected A's block to remain, got %+v", blocks)
	}
}

func TestGracefulLeaveIntent(t *testing.T) {
	srv, url := newTestServer(t, testConfig())
	conn, _ := joinOverWS(t, url, "solo", "A")
	room, ok := srv.Registry().Room("solo")
	if !ok {
		t.Fatalf("expected room to exist")
	}

	writeEnvelope(t, conn, MsgLeave, struct{}{})
	select {
	case <-room.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("room was not destroyed after its only member left")
	}
}
