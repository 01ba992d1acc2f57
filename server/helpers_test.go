package server

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// recorder 记录房间发往某个连接的全部消息
type recorder struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (r *recorder) Enqueue(b []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, b)
	return true
}

func (r *recorder) envelopes(t *testing.T) []Envelope {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Envelope, 0, len(r.msgs))
	for _, b := range r.msgs {
		var env Envelope
		if err := json.Unmarshal(b, &env); err != nil {
			t.Fatalf("recorded message is not an envelope: %v", err)
		}
		out = append(out, env)
	}
	return out
}

func (r *recorder) ofType(t *testing.T, typ string) []Envelope {
	t.Helper()
	var out []Envelope
	for _, env := range r.envelopes(t) {
		if env.Type == typ {
			out = append(out, env)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.msgs = nil
	r.mu.Unlock()
}

func decodePayload(t *testing.T, env Envelope, v any) {
	t.Helper()
	if err := json.Unmarshal(env.Payload, v); err != nil {
		t.Fatalf("decode %s payload: %v", env.Type, err)
	}
}

// testConfig 关闭资源点自动 Tick，测试里手动推进
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TickInterval = time.Hour
	cfg.StaticDir = ""
	return cfg
}

// joinDirect 在不启动房间协程的情况下加入玩家
func joinDirect(r *Room, name string) (PlayerView, *recorder) {
	rec := &recorder{}
	return r.handleJoin(name, rec), rec
}

func mustSnapshot(t *testing.T, r *Room) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := r.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot %s: %v", r.ID, err)
	}
	return snap
}
