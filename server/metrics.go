package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount        int64 // 统计的 Tick 次数
	CommandsAccepted int64 // 被接受的意图数
	CommandsRejected int64 // 被拒绝的意图数
	Broadcasts       int64 // 广播事件数
	Unicasts         int64 // 单播事件数
	SendDropped      int64 // 因发送队列满被丢弃的消息数
	Joins            int64
	Leaves           int64
	TotalTickNs      int64 // Tick 累计耗时（纳秒）

	rejected map[RejectReason]*int64 // 创建后只读，值原子更新
}

func NewRoomMetrics() *RoomMetrics {
	m := &RoomMetrics{rejected: make(map[RejectReason]*int64)}
	for _, r := range []RejectReason{
		ReasonOutOfRange, ReasonInsufficientResources, ReasonTargetAlreadyDestroyed,
		ReasonNotYourTeam, ReasonUnauthenticated,
	} {
		m.rejected[r] = new(int64)
	}
	return m
}

func (m *RoomMetrics) IncAccepted()    { atomic.AddInt64(&m.CommandsAccepted, 1) }
func (m *RoomMetrics) IncBroadcast()   { atomic.AddInt64(&m.Broadcasts, 1) }
func (m *RoomMetrics) IncUnicast()     { atomic.AddInt64(&m.Unicasts, 1) }
func (m *RoomMetrics) IncSendDropped() { atomic.AddInt64(&m.SendDropped, 1) }
func (m *RoomMetrics) IncJoin()        { atomic.AddInt64(&m.Joins, 1) }
func (m *RoomMetrics) IncLeave()       { atomic.AddInt64(&m.Leaves, 1) }
func (m *RoomMetrics) IncRejected(r RejectReason) {
	atomic.AddInt64(&m.CommandsRejected, 1)
	if c, ok := m.rejected[r]; ok {
		atomic.AddInt64(c, 1)
	}
}
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	byReason := make(map[string]int64, len(m.rejected))
	for r, c := range m.rejected {
		byReason[string(r)] = atomic.LoadInt64(c)
	}
	return map[string]any{
		"tick_count":        tick,
		"commands_accepted": atomic.LoadInt64(&m.CommandsAccepted),
		"commands_rejected": atomic.LoadInt64(&m.CommandsRejected),
		"rejected_by":       byReason,
		"broadcasts":        atomic.LoadInt64(&m.Broadcasts),
		"unicasts":          atomic.LoadInt64(&m.Unicasts),
		"send_dropped":      atomic.LoadInt64(&m.SendDropped),
		"joins":             atomic.LoadInt64(&m.Joins),
		"leaves":            atomic.LoadInt64(&m.Leaves),
		"avg_tick_ms":       avgMs,
	}
}

// ServerMetrics 进程级指标
type ServerMetrics struct {
	RoomsCreated   int64
	RoomsDestroyed int64
	JoinsFull      int64 // 因房间已满被拒绝的 join
	Connections    int64 // 当前连接数
	JoinTimeouts   int64
}

func (m *ServerMetrics) Snapshot() map[string]any {
	return map[string]any{
		"rooms_created":   atomic.LoadInt64(&m.RoomsCreated),
		"rooms_destroyed": atomic.LoadInt64(&m.RoomsDestroyed),
		"joins_full":      atomic.LoadInt64(&m.JoinsFull),
		"connections":     atomic.LoadInt64(&m.Connections),
		"join_timeouts":   atomic.LoadInt64(&m.JoinTimeouts),
	}
}
