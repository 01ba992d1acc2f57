package server

import (
	"context"
	"time"
)

// 房间协程处理的命令；加入、离开、意图与快照共用一个通道，保证到达顺序
type roomCmd interface{}

type joinCmd struct {
	name  string
	conn  Sender
	reply chan PlayerView
}

type leaveCmd struct {
	id   PlayerID
	last bool // 最后一名成员离开，处理后房间协程退出
}

type intentCmd struct {
	id     PlayerID
	intent Intent
}

type snapshotCmd struct {
	reply chan Snapshot
}

// Room 房间世界：权威状态维护在内存，由单个协程按到达顺序处理所有命令
type Room struct {
	ID string

	store      *Store
	validator  *Validator
	dispatcher *Dispatcher
	metrics    *RoomMetrics

	inbox        chan roomCmd
	done         chan struct{}
	tickInterval time.Duration

	members int // 已预留的成员数，由 Registry 在其锁内维护
}

// NewRoom 创建房间，初始化数据结构（不启动协程）
func NewRoom(id string, cfg Config) *Room {
	metrics := NewRoomMetrics()
	return &Room{
		ID:           id,
		store:        NewStore(id, cfg),
		validator:    NewValidator(cfg),
		dispatcher:   NewDispatcher(id, metrics),
		metrics:      metrics,
		inbox:        make(chan roomCmd, 256),
		done:         make(chan struct{}),
		tickInterval: cfg.TickInterval,
	}
}

// Metrics 房间指标
func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// Done 房间协程退出后关闭
func (r *Room) Done() <-chan struct{} { return r.done }

// submit 投递命令；房间已销毁时返回 ErrRoomClosed
func (r *Room) submit(cmd roomCmd) error {
	select {
	case r.inbox <- cmd:
		return nil
	case <-r.done:
		return ErrRoomClosed
	}
}

// Submit 投递一条游戏意图，结果（广播或拒绝）异步发到连接上
func (r *Room) Submit(id PlayerID, in Intent) error {
	return r.submit(intentCmd{id: id, intent: in})
}

// Snapshot 通过房间协程读取一致的状态快照
func (r *Room) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := r.submit(snapshotCmd{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-r.done:
		return Snapshot{}, ErrRoomClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// handle 处理一条命令；返回 true 表示房间应当停止
func (r *Room) handle(cmd roomCmd) bool {
	switch c := cmd.(type) {
	case joinCmd:
		c.reply <- r.handleJoin(c.name, c.conn)
	case leaveCmd:
		r.handleLeave(c.id)
		return c.last
	case intentCmd:
		r.handleIntent(c.id, c.intent)
	case snapshotCmd:
		c.reply <- r.store.Snapshot()
	default:
		Log.Warnf("room %s: unknown command %T", r.ID, cmd)
	}
	return false
}

// handleJoin 分配玩家，单播 init，然后广播 player-join 与最新名单
func (r *Room) handleJoin(name string, conn Sender) PlayerView {
	p := r.store.addPlayer(name)
	r.dispatcher.add(p.ID, conn)
	r.metrics.IncJoin()
	you := p.view(true)
	r.dispatcher.Emit(
		Event{Type: EvInit, Payload: InitPayload{You: you, State: r.store.Snapshot()}, To: p.ID},
		Event{Type: EvPlayerJoin, Payload: p.view(false)},
		Event{Type: EvPlayerList, Payload: r.store.Roster()},
	)
	Log.Infow("player joined", "room", r.ID, "player", p.ID, "name", name, "team", p.Team)
	return you
}

// handleLeave 移除玩家与连接；方块保留在世界中
func (r *Room) handleLeave(id PlayerID) {
	ev, ok := r.store.removePlayer(id)
	r.dispatcher.remove(id)
	if !ok {
		return
	}
	r.metrics.IncLeave()
	r.dispatcher.Emit(
		Event{Type: EvPlayerLeave, Payload: ev},
		Event{Type: EvPlayerList, Payload: r.store.Roster()},
	)
	Log.Infow("player left", "room", r.ID, "player", id)
}

// handleIntent 校验 → 应用 → 广播；拒绝只回给发起者
func (r *Room) handleIntent(id PlayerID, in Intent) {
	delta, err := r.validator.Validate(r.store, id, in)
	if err != nil {
		r.dispatcher.Reject(id, in.Name(), err)
		Log.Debugw("intent rejected", "room", r.ID, "player", id, "intent", in.Name(), "err", err)
		return
	}
	if err := r.dispatcher.Dispatch(r.store, delta); err != nil {
		// 校验通过后写入仍失败，说明规则与 Store 不一致
		r.dispatcher.Reject(id, in.Name(), err)
		Log.Errorw("delta apply failed after validation", "room", r.ID, "player", id, "intent", in.Name(), "err", err)
		return
	}
	r.metrics.IncAccepted()
}
