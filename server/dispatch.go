package server

import "errors"

// Sender 房间向连接写消息的出口；实现必须非阻塞
type Sender interface {
	Enqueue(b []byte) bool
}

type member struct {
	id   PlayerID
	conn Sender
}

// Dispatcher 将已接受的 Delta 写入 Store，并把事件发给房间内所有连接（包括发起者）
type Dispatcher struct {
	roomID  string
	members []member // 加入顺序
	metrics *RoomMetrics
}

func NewDispatcher(roomID string, metrics *RoomMetrics) *Dispatcher {
	return &Dispatcher{roomID: roomID, metrics: metrics}
}

func (d *Dispatcher) add(id PlayerID, conn Sender) {
	d.members = append(d.members, member{id: id, conn: conn})
}

func (d *Dispatcher) remove(id PlayerID) {
	for i, m := range d.members {
		if m.id == id {
			d.members = append(d.members[:i], d.members[i+1:]...)
			return
		}
	}
}

// Dispatch 应用 Delta 并发送产生的事件；写入失败时不发送任何事件
func (d *Dispatcher) Dispatch(s *Store, delta Delta) error {
	events, err := delta.apply(s)
	if err != nil {
		return err
	}
	d.Emit(events...)
	return nil
}

// Emit 按事件的目标广播或单播
func (d *Dispatcher) Emit(events ...Event) {
	for _, ev := range events {
		b, err := EncodeEvent(ev.Type, ev.Payload)
		if err != nil {
			Log.Errorw("encode event failed", "room", d.roomID, "type", ev.Type, "err", err)
			continue
		}
		if ev.To == "" {
			d.metrics.IncBroadcast()
			for _, m := range d.members {
				d.send(m, b)
			}
			continue
		}
		d.metrics.IncUnicast()
		for _, m := range d.members {
			if m.id == ev.To {
				d.send(m, b)
				break
			}
		}
	}
}

// Reject 拒绝只发给发起者，不改变状态
func (d *Dispatcher) Reject(to PlayerID, intent string, err error) {
	payload := RejectPayload{Intent: intent, Reason: reasonOf(err)}
	var re *RejectError
	if errors.As(err, &re) {
		payload.Detail = re.Detail
	}
	d.metrics.IncRejected(payload.Reason)
	d.Emit(Event{Type: EvReject, Payload: payload, To: to})
}

func (d *Dispatcher) send(m member, b []byte) {
	if !m.conn.Enqueue(b) {
		d.metrics.IncSendDropped()
		Log.Warnw("send queue full, message dropped", "room", d.roomID, "player", m.id)
	}
}
