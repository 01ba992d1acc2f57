package server

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Registry 管理多个房间的生命周期：首次加入时创建，人数归零时销毁
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	cfg     Config
	metrics *ServerMetrics
}

func NewRegistry(cfg Config, metrics *ServerMetrics) *Registry {
	if metrics == nil {
		metrics = &ServerMetrics{}
	}
	return &Registry{rooms: make(map[string]*Room), cfg: cfg, metrics: metrics}
}

// Join 加入房间（不存在则创建）。名额在锁内预留，并发加入不会超过上限。
// 房间已满时返回 ErrRoomFull，名单不变。
func (m *Registry) Join(roomID, name string, conn Sender) (*Room, PlayerView, error) {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	if !ok {
		r = NewRoom(roomID, m.cfg)
		m.rooms[roomID] = r
		go r.run()
		atomic.AddInt64(&m.metrics.RoomsCreated, 1)
		Log.Infow("room created", "room", roomID)
	}
	if r.members >= m.cfg.Capacity {
		m.mu.Unlock()
		atomic.AddInt64(&m.metrics.JoinsFull, 1)
		return nil, PlayerView{}, fmt.Errorf("room %s: %w", roomID, ErrRoomFull)
	}
	r.members++
	m.mu.Unlock()

	reply := make(chan PlayerView, 1)
	if err := r.submit(joinCmd{name: name, conn: conn, reply: reply}); err != nil {
		return nil, PlayerView{}, err
	}
	select {
	case p := <-reply:
		return r, p, nil
	case <-r.done:
		return nil, PlayerView{}, ErrRoomClosed
	}
}

// Leave 移除玩家；人数归零时房间从注册表删除，房间协程处理完这次离开后退出
func (m *Registry) Leave(roomID string, id PlayerID) error {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("leave %s: %w", roomID, ErrRoomClosed)
	}
	r.members--
	last := r.members == 0
	if last {
		delete(m.rooms, roomID)
		atomic.AddInt64(&m.metrics.RoomsDestroyed, 1)
	}
	m.mu.Unlock()

	if err := r.submit(leaveCmd{id: id, last: last}); err != nil {
		return fmt.Errorf("leave %s: %w", roomID, err)
	}
	if last {
		Log.Infow("room destroyed", "room", roomID)
	}
	return nil
}

// Room 查询活跃房间
func (m *Registry) Room(roomID string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	return r, ok
}

// Rooms 所有活跃房间，按 ID 排序
func (m *Registry) Rooms() []*Room {
	m.mu.Lock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
