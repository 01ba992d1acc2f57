package server

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Generator 资源点的运行时状态
type Generator struct {
	GeneratorSpec
	Stock int
	ticks int
}

// GeneratorView 资源点只读视图
type GeneratorView struct {
	Kind     string `json:"kind"`
	Position Vec3   `json:"position"`
	Stock    int    `json:"stock"`
}

// Snapshot 房间完整状态快照（加入时下发）
type Snapshot struct {
	Room       string          `json:"room"`
	Players    []PlayerView    `json:"players"`
	Teams      []TeamView      `json:"teams"`
	Blocks     []Block         `json:"blocks"`
	Generators []GeneratorView `json:"generators"`
}

// Store 单个房间的权威状态。
// 只由房间协程访问，因此内部不加锁；写入只经由 Delta.apply。
type Store struct {
	roomID     string
	players    map[PlayerID]*Player
	order      []PlayerID // 加入顺序
	teams      map[Team]*TeamState
	blocks     []Block
	generators map[string]*Generator
	startInv   Inventory
	newID      func() PlayerID
}

// NewStore 按配置创建房间状态：四支队伍、床完好、资源点库存为零
func NewStore(roomID string, cfg Config) *Store {
	s := &Store{
		roomID:     roomID,
		players:    make(map[PlayerID]*Player),
		teams:      make(map[Team]*TeamState, len(Teams)),
		generators: make(map[string]*Generator, len(cfg.Generators)),
		startInv:   cfg.StartingInventory.clone(),
		newID:      func() PlayerID { return PlayerID(uuid.NewString()) },
	}
	for _, t := range Teams {
		s.teams[t] = &TeamState{
			Name:      t,
			BedPos:    bedPositions[t],
			Resources: make(map[string]int),
			Members:   make(map[PlayerID]struct{}),
		}
	}
	for _, g := range cfg.Generators {
		s.generators[g.Kind] = &Generator{GeneratorSpec: g}
	}
	return s
}

// Player 按 ID 查询玩家（只读使用）
func (s *Store) Player(id PlayerID) (*Player, bool) {
	p, ok := s.players[id]
	return p, ok
}

// Team 按名称查询队伍（只读使用）
func (s *Store) Team(t Team) (*TeamState, bool) {
	ts, ok := s.teams[t]
	return ts, ok
}

// Generator 按资源种类查询资源点（只读使用）
func (s *Store) Generator(kind string) (*Generator, bool) {
	g, ok := s.generators[kind]
	return g, ok
}

// Len 当前玩家数
func (s *Store) Len() int { return len(s.players) }

// Blocks 已放置方块的副本
func (s *Store) Blocks() []Block {
	out := make([]Block, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// Snapshot 完整状态快照，与内部状态不共享内存
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Room:       s.roomID,
		Players:    make([]PlayerView, 0, len(s.order)),
		Teams:      make([]TeamView, 0, len(Teams)),
		Blocks:     s.Blocks(),
		Generators: make([]GeneratorView, 0, len(s.generators)),
	}
	for _, id := range s.order {
		snap.Players = append(snap.Players, s.players[id].view(false))
	}
	for _, t := range Teams {
		snap.Teams = append(snap.Teams, s.teams[t].view())
	}
	for _, g := range s.generators {
		snap.Generators = append(snap.Generators, GeneratorView{Kind: g.Kind, Position: g.Position, Stock: g.Stock})
	}
	sort.Slice(snap.Generators, func(i, j int) bool { return snap.Generators[i].Kind < snap.Generators[j].Kind })
	return snap
}

// Roster 房间名单（按加入顺序）
func (s *Store) Roster() PlayerListPayload {
	out := PlayerListPayload{Room: s.roomID, Players: make([]RosterEntry, 0, len(s.order))}
	for _, id := range s.order {
		p := s.players[id]
		out.Players = append(out.Players, RosterEntry{ID: string(p.ID), Name: p.Name, Team: p.Team})
	}
	return out
}

// nextTeam 人数最少的队伍；人数相同按 Teams 顺序
func (s *Store) nextTeam() Team {
	best := Teams[0]
	for _, t := range Teams[1:] {
		if len(s.teams[t].Members) < len(s.teams[best].Members) {
			best = t
		}
	}
	return best
}

// addPlayer 分配身份与队伍，出生在本队床边
func (s *Store) addPlayer(name string) *Player {
	team := s.nextTeam()
	ts := s.teams[team]
	p := &Player{
		ID:        s.newID(),
		Name:      name,
		Team:      team,
		Pos:       ts.BedPos,
		Alive:     true,
		Inventory: s.startInv.clone(),
		HasBed:    !ts.BedDestroyed,
	}
	s.players[p.ID] = p
	s.order = append(s.order, p.ID)
	ts.Members[p.ID] = struct{}{}
	return p
}

// removePlayer 移除玩家实体与队伍名单项；其放置的方块保留
func (s *Store) removePlayer(id PlayerID) (PlayerLeaveEvent, bool) {
	p, ok := s.players[id]
	if !ok {
		return PlayerLeaveEvent{}, false
	}
	delete(s.teams[p.Team].Members, id)
	delete(s.players, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return PlayerLeaveEvent{ID: string(id)}, true
}

func (s *Store) mustPlayer(id PlayerID) (*Player, error) {
	p, ok := s.players[id]
	if !ok {
		return nil, reject(ReasonUnauthenticated, "player %s not in room %s", id, s.roomID)
	}
	return p, nil
}

// setPosition 更新玩家位置
func (s *Store) setPosition(id PlayerID, pos Vec3) (PlayerMoveEvent, error) {
	p, err := s.mustPlayer(id)
	if err != nil {
		return PlayerMoveEvent{}, err
	}
	p.Pos = pos
	return PlayerMoveEvent{ID: string(id), Position: pos}, nil
}

// placeBlock 扣一块羊毛并追加方块，两步同时生效
func (s *Store) placeBlock(id PlayerID, pos Vec3) (UpdateBlockEvent, error) {
	p, err := s.mustPlayer(id)
	if err != nil {
		return UpdateBlockEvent{}, err
	}
	if _, err := s.adjustInventory(id, ItemWool, -1); err != nil {
		return UpdateBlockEvent{}, err
	}
	b := Block{Position: pos, Team: p.Team, PlacedBy: id}
	s.blocks = append(s.blocks, b)
	return UpdateBlockEvent{Block: b}, nil
}

// destroyBed 床被破坏后不可恢复；重复破坏返回 TargetAlreadyDestroyed 且不改变状态
func (s *Store) destroyBed(team Team, by PlayerID) (BedStatusEvent, error) {
	ts, ok := s.teams[team]
	if !ok {
		return BedStatusEvent{}, reject(ReasonOutOfRange, "unknown team %q", team)
	}
	if ts.BedDestroyed {
		return BedStatusEvent{}, reject(ReasonTargetAlreadyDestroyed, "%s bed", team)
	}
	ts.BedDestroyed = true
	for id := range ts.Members {
		s.players[id].HasBed = false
	}
	return BedStatusEvent{Team: team, Broken: true, By: string(by)}, nil
}

// adjustInventory 调整单项库存；结果为负时拒绝，不裁剪
func (s *Store) adjustInventory(id PlayerID, kind string, delta int) (InventoryEvent, error) {
	p, err := s.mustPlayer(id)
	if err != nil {
		return InventoryEvent{}, err
	}
	if p.Inventory[kind]+delta < 0 {
		return InventoryEvent{}, reject(ReasonInsufficientResources, "%s: have %d, need %d", kind, p.Inventory[kind], -delta)
	}
	p.Inventory[kind] += delta
	return InventoryEvent{Inventory: p.Inventory.clone()}, nil
}

// purchase 扣款与发货在同一次调用内完成，不存在只扣款的中间状态
func (s *Store) purchase(id PlayerID, item ShopItem) (InventoryEvent, error) {
	p, err := s.mustPlayer(id)
	if err != nil {
		return InventoryEvent{}, err
	}
	if p.Inventory[item.Currency] < item.Price {
		return InventoryEvent{}, reject(ReasonInsufficientResources, "%s costs %d %s, have %d",
			item.ID, item.Price, item.Currency, p.Inventory[item.Currency])
	}
	p.Inventory[item.Currency] -= item.Price
	p.Inventory[item.Grants] += item.Amount
	return InventoryEvent{Inventory: p.Inventory.clone()}, nil
}

// collect 资源点库存全部转入玩家背包，并计入队伍累计
func (s *Store) collect(id PlayerID, kind string) (InventoryEvent, error) {
	p, err := s.mustPlayer(id)
	if err != nil {
		return InventoryEvent{}, err
	}
	g, ok := s.generators[kind]
	if !ok {
		return InventoryEvent{}, reject(ReasonOutOfRange, "unknown generator %q", kind)
	}
	if g.Stock == 0 {
		return InventoryEvent{}, reject(ReasonInsufficientResources, "%s generator is empty", kind)
	}
	n := g.Stock
	g.Stock = 0
	p.Inventory[kind] += n
	s.teams[p.Team].Resources[kind] += n
	return InventoryEvent{Inventory: p.Inventory.clone()}, nil
}

// tickGenerators 推进资源点产出；库存变化不广播，只能通过 collect 观察到
func (s *Store) tickGenerators() {
	for _, g := range s.generators {
		g.ticks++
		if g.ticks%g.Every != 0 {
			continue
		}
		g.Stock += g.Amount
		if g.Stock > g.Cap {
			g.Stock = g.Cap
		}
	}
}

func (s *Store) String() string {
	return fmt.Sprintf("store(room=%s players=%d blocks=%d)", s.roomID, len(s.players), len(s.blocks))
}
