package server

// Intent 客户端提交的意图（封闭的标签联合类型）
type Intent interface {
	// Name 返回对应的消息类型名
	Name() string
}

type JoinIntent struct {
	Room       string
	PlayerName string
}

// MoveIntent 移动到目标坐标，越界直接拒绝而不是裁剪
type MoveIntent struct {
	To Vec3
}

type PlaceBlockIntent struct {
	Team     string
	Position Vec3
}

type BreakBedIntent struct {
	Team string
}

type PurchaseIntent struct {
	ItemID string
}

// CollectIntent 从附近资源点拾取全部库存
type CollectIntent struct {
	Generator string
}

// LeaveIntent 主动离开房间
type LeaveIntent struct{}

func (JoinIntent) Name() string       { return MsgJoin }
func (MoveIntent) Name() string       { return MsgMove }
func (PlaceBlockIntent) Name() string { return MsgPlaceBlock }
func (BreakBedIntent) Name() string   { return MsgBedBreak }
func (PurchaseIntent) Name() string   { return MsgPurchase }
func (CollectIntent) Name() string    { return MsgCollect }
func (LeaveIntent) Name() string      { return MsgLeave }
