package server

import (
	"errors"
	"net"
	"sync/atomic"
	"time"
)

// session 连接生命周期：未 join 前不接受游戏意图；断开等同于 leave
type session struct {
	srv    *Server
	conn   *ClientConn
	remote string

	room   *Room
	player PlayerID
}

// readPump 读取客户端消息；退出时离开房间并关闭连接
func (s *session) readPump() {
	ws := s.conn.ws
	defer s.close()
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(s.srv.cfg.JoinTimeout))

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			var ne net.Error
			if s.room == nil && errors.As(err, &ne) && ne.Timeout() {
				atomic.AddInt64(&s.srv.metrics.JoinTimeouts, 1)
				Log.Infow("join grace period expired", "remote", s.remote)
			}
			return
		}
		in, err := DecodeIntent(payload)
		if s.room == nil {
			s.handshake(in, err)
			continue
		}

		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		if err != nil {
			Log.Warnw("malformed message ignored", "room", s.room.ID, "player", s.player, "err", err)
			continue
		}
		switch in.(type) {
		case JoinIntent:
			Log.Warnw("duplicate join ignored", "room", s.room.ID, "player", s.player)
		case LeaveIntent:
			return
		default:
			if err := s.room.Submit(s.player, in); err != nil {
				Log.Warnw("submit failed", "room", s.room.ID, "player", s.player, "err", err)
				return
			}
		}
	}
}

// handshake 处理 join 之前收到的消息
func (s *session) handshake(in Intent, decodeErr error) {
	if decodeErr != nil {
		Log.Warnw("malformed message before join", "remote", s.remote, "err", decodeErr)
		s.unicast(EvReject, RejectPayload{Intent: "unknown", Reason: ReasonUnauthenticated, Detail: decodeErr.Error()})
		return
	}
	join, ok := in.(JoinIntent)
	if !ok {
		s.unicast(EvReject, RejectPayload{Intent: in.Name(), Reason: ReasonUnauthenticated, Detail: "join first"})
		return
	}

	room, you, err := s.srv.registry.Join(join.Room, join.PlayerName, s.conn)
	if errors.Is(err, ErrRoomFull) {
		Log.Infow("join rejected, room full", "room", join.Room, "name", join.PlayerName)
		s.unicast(EvFull, FullPayload{Room: join.Room, Capacity: s.srv.cfg.Capacity})
		return
	}
	if err != nil {
		Log.Errorw("join failed", "room", join.Room, "err", err)
		s.unicast(EvReject, RejectPayload{Intent: MsgJoin, Reason: ReasonUnauthenticated, Detail: err.Error()})
		return
	}
	s.room = room
	s.player = PlayerID(you.ID)

	ws := s.conn.ws
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(pongWait)) })
}

func (s *session) unicast(typ string, payload any) {
	b, err := EncodeEvent(typ, payload)
	if err != nil {
		Log.Errorw("encode event failed", "type", typ, "err", err)
		return
	}
	s.conn.Enqueue(b)
}

func (s *session) close() {
	if s.room != nil {
		if err := s.srv.registry.Leave(s.room.ID, s.player); err != nil {
			Log.Warnw("leave failed", "room", s.room.ID, "player", s.player, "err", err)
		}
		s.room = nil
	}
	s.conn.Close()
	atomic.AddInt64(&s.srv.metrics.Connections, -1)
}
