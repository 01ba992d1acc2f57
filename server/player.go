package server

import (
	"math"
	"sort"
)

// PlayerID 表示玩家唯一标识（每个连接一个）
type PlayerID string

// Team 队伍名称，取值固定为四种颜色
type Team string

const (
	TeamRed    Team = "red"
	TeamBlue   Team = "blue"
	TeamGreen  Team = "green"
	TeamYellow Team = "yellow"
)

// Teams 固定的队伍顺序：分配队伍时人数相同按此顺序取第一个
var Teams = []Team{TeamRed, TeamBlue, TeamGreen, TeamYellow}

// ParseTeam 将客户端字符串解析为队伍
func ParseTeam(s string) (Team, bool) {
	for _, t := range Teams {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Vec3 三维坐标
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) finite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Dist 两点间欧氏距离
func (v Vec3) Dist(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Inventory 物品种类 → 数量（永不为负）
type Inventory map[string]int

func (inv Inventory) clone() Inventory {
	out := make(Inventory, len(inv))
	for k, v := range inv {
		out[k] = v
	}
	return out
}

// Player 房间内的玩家实体（服务端权威状态）
type Player struct {
	ID        PlayerID
	Name      string
	Team      Team
	Pos       Vec3
	Alive     bool
	Inventory Inventory
	HasBed    bool // 所在队伍的床是否完好
}

// PlayerView 广播给客户端的玩家状态
type PlayerView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Team      Team      `json:"team"`
	Position  Vec3      `json:"position"`
	Alive     bool      `json:"alive"`
	HasBed    bool      `json:"hasBed"`
	Inventory Inventory `json:"inventory,omitempty"`
}

func (p *Player) view(withInventory bool) PlayerView {
	v := PlayerView{
		ID:       string(p.ID),
		Name:     p.Name,
		Team:     p.Team,
		Position: p.Pos,
		Alive:    p.Alive,
		HasBed:   p.HasBed,
	}
	if withInventory {
		v.Inventory = p.Inventory.clone()
	}
	return v
}

// RosterEntry 房间名单中的一项
type RosterEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Team Team   `json:"team"`
}

// TeamState 队伍状态；Members 仅用于查找，不拥有玩家
type TeamState struct {
	Name         Team
	BedPos       Vec3
	BedDestroyed bool
	Resources    map[string]int // 队伍累计收集的资源
	Members      map[PlayerID]struct{}
}

// TeamView 队伍的只读视图
type TeamView struct {
	Name        Team           `json:"name"`
	BedPosition Vec3           `json:"bedPosition"`
	BedBroken   bool           `json:"bedBroken"`
	Resources   map[string]int `json:"resources"`
	Members     []string       `json:"members"`
}

func (t *TeamState) view() TeamView {
	res := make(map[string]int, len(t.Resources))
	for k, v := range t.Resources {
		res[k] = v
	}
	members := make([]string, 0, len(t.Members))
	for id := range t.Members {
		members = append(members, string(id))
	}
	sort.Strings(members)
	return TeamView{
		Name:        t.Name,
		BedPosition: t.BedPos,
		BedBroken:   t.BedDestroyed,
		Resources:   res,
		Members:     members,
	}
}

// Block 已放置的方块；PlacedBy 只记录来源，放置者离开后方块保留
type Block struct {
	Position Vec3     `json:"position"`
	Team     Team     `json:"team"`
	PlacedBy PlayerID `json:"placedBy"`
}
