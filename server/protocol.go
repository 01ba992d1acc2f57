package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// 客户端 → 服务端
const (
	MsgJoin       = "join"
	MsgMove       = "move"
	MsgPlaceBlock = "place-block"
	MsgBedBreak   = "bed-break"
	MsgPurchase   = "purchase"
	MsgCollect    = "collect"
	MsgLeave      = "leave"
)

// 服务端 → 客户端
const (
	EvInit        = "init"
	EvPlayerList  = "player-list"
	EvPlayerJoin  = "player-join"
	EvPlayerMove  = "player-move"
	EvUpdateBlock = "update-block"
	EvBedStatus   = "bed-status"
	EvPlayerLeave = "player-leave"
	EvFull        = "full"
	EvInventory   = "inventory"
	EvReject      = "reject"
)

// Envelope 所有 WebSocket 文本消息的外层结构
// 示例：{"type":"move","payload":{"x":1,"y":0,"z":2}}
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// 入站载荷：指针字段用于区分缺失与零值
type JoinPayload struct {
	Room *string `json:"room" jsonschema:"required,minLength=1,maxLength=64"`
	Name *string `json:"name" jsonschema:"required,minLength=1,maxLength=32"`
}

type MovePayload struct {
	X *float64 `json:"x" jsonschema:"required"`
	Y *float64 `json:"y" jsonschema:"required"`
	Z *float64 `json:"z" jsonschema:"required"`
}

type PlaceBlockPayload struct {
	Team     *string      `json:"team" jsonschema:"required,enum=red,enum=blue,enum=green,enum=yellow"`
	Position *MovePayload `json:"position" jsonschema:"required"`
}

type BedBreakPayload struct {
	Team *string `json:"team" jsonschema:"required,enum=red,enum=blue,enum=green,enum=yellow"`
}

type PurchasePayload struct {
	ItemID *string `json:"itemId" jsonschema:"required,minLength=1"`
}

type CollectPayload struct {
	Generator *string `json:"generator" jsonschema:"required,enum=iron,enum=gold,enum=diamond"`
}

type LeavePayload struct{}

const (
	maxRoomIDLen = 64
	maxNameLen   = 32
)

// DecodeIntent 严格解析一条入站消息：未知类型、未知字段、缺失字段都视为格式错误
func DecodeIntent(data []byte) (Intent, error) {
	var env Envelope
	if err := decodeStrict(data, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case MsgJoin:
		var p JoinPayload
		if err := decodeStrict(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.Room == nil || p.Name == nil {
			return nil, fmt.Errorf("%w: join requires room and name", ErrMalformed)
		}
		room, name := strings.TrimSpace(*p.Room), strings.TrimSpace(*p.Name)
		if room == "" || name == "" || len(room) > maxRoomIDLen || len(name) > maxNameLen {
			return nil, fmt.Errorf("%w: join room/name length", ErrMalformed)
		}
		return JoinIntent{Room: room, PlayerName: name}, nil
	case MsgMove:
		var p MovePayload
		if err := decodeStrict(env.Payload, &p); err != nil {
			return nil, err
		}
		v, err := p.vec()
		if err != nil {
			return nil, err
		}
		return MoveIntent{To: v}, nil
	case MsgPlaceBlock:
		var p PlaceBlockPayload
		if err := decodeStrict(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.Team == nil || p.Position == nil {
			return nil, fmt.Errorf("%w: place-block requires team and position", ErrMalformed)
		}
		v, err := p.Position.vec()
		if err != nil {
			return nil, err
		}
		return PlaceBlockIntent{Team: *p.Team, Position: v}, nil
	case MsgBedBreak:
		var p BedBreakPayload
		if err := decodeStrict(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.Team == nil {
			return nil, fmt.Errorf("%w: bed-break requires team", ErrMalformed)
		}
		return BreakBedIntent{Team: *p.Team}, nil
	case MsgPurchase:
		var p PurchasePayload
		if err := decodeStrict(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.ItemID == nil || *p.ItemID == "" {
			return nil, fmt.Errorf("%w: purchase requires itemId", ErrMalformed)
		}
		return PurchaseIntent{ItemID: *p.ItemID}, nil
	case MsgCollect:
		var p CollectPayload
		if err := decodeStrict(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.Generator == nil {
			return nil, fmt.Errorf("%w: collect requires generator", ErrMalformed)
		}
		return CollectIntent{Generator: *p.Generator}, nil
	case MsgLeave:
		var p LeavePayload
		if err := decodeStrict(env.Payload, &p); err != nil {
			return nil, err
		}
		return LeaveIntent{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, env.Type)
	}
}

func (p *MovePayload) vec() (Vec3, error) {
	if p.X == nil || p.Y == nil || p.Z == nil {
		return Vec3{}, fmt.Errorf("%w: position requires x, y and z", ErrMalformed)
	}
	return Vec3{X: *p.X, Y: *p.Y, Z: *p.Z}, nil
}

// decodeStrict 拒绝未知字段与尾随数据；空载荷按 {} 处理
func decodeStrict(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data", ErrMalformed)
	}
	return nil
}

// 出站载荷

type InitPayload struct {
	You   PlayerView `json:"you"`
	State Snapshot   `json:"state"`
}

type PlayerListPayload struct {
	Room    string        `json:"room"`
	Players []RosterEntry `json:"players"`
}

type PlayerMoveEvent struct {
	ID       string `json:"id"`
	Position Vec3   `json:"position"`
}

type UpdateBlockEvent struct {
	Block
}

type BedStatusEvent struct {
	Team   Team   `json:"team"`
	Broken bool   `json:"broken"`
	By     string `json:"by,omitempty"`
}

type PlayerLeaveEvent struct {
	ID string `json:"id"`
}

type FullPayload struct {
	Room     string `json:"room"`
	Capacity int    `json:"capacity"`
}

type InventoryEvent struct {
	Inventory Inventory `json:"inventory"`
}

type RejectPayload struct {
	Intent string       `json:"intent"`
	Reason RejectReason `json:"reason"`
	Detail string       `json:"detail,omitempty"`
}

// EncodeEvent 编码出站消息
func EncodeEvent(typ string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return json.Marshal(Envelope{Type: typ, Payload: raw})
}
