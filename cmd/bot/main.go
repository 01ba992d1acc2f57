package main

import (
	"encoding/json"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"bedwars/server"
)

// bot 无头客户端：与普通玩家走同一套协议与校验，没有任何特权
type bot struct {
	ws  *websocket.Conn
	log *zap.SugaredLogger
	wmu sync.Mutex

	mu        sync.Mutex
	id        string
	team      server.Team
	pos       server.Vec3
	inventory server.Inventory
	brokenBed map[server.Team]bool
}

var teamColors = map[server.Team]*color.Color{
	server.TeamRed:    color.New(color.FgRed, color.Bold),
	server.TeamBlue:   color.New(color.FgBlue, color.Bold),
	server.TeamGreen:  color.New(color.FgGreen, color.Bold),
	server.TeamYellow: color.New(color.FgYellow, color.Bold),
}

var (
	infoColor   = color.New(color.FgCyan)
	rejectColor = color.New(color.FgMagenta)
	bedColor    = color.New(color.FgWhite, color.Bold, color.BgRed)
)

func main() {
	var (
		url      string
		room     string
		name     string
		interval time.Duration
	)
	flag.StringVar(&url, "url", "ws://localhost:8080/ws", "server websocket url")
	flag.StringVar(&room, "room", "room-1", "room to join")
	flag.StringVar(&name, "name", "bot", "display name")
	flag.DurationVar(&interval, "interval", 500*time.Millisecond, "delay between actions")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", url, err)
	}
	defer ws.Close()

	b := &bot{ws: ws, log: log, brokenBed: make(map[server.Team]bool)}
	if err := b.send(server.MsgJoin, map[string]string{"room": room, "name": name}); err != nil {
		log.Fatalf("join: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.readLoop()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.act()
		case <-done:
			infoColor.Println("connection closed")
			return
		case <-quit:
			_ = b.send(server.MsgLeave, struct{}{})
			return
		}
	}
}

func (b *bot) send(typ string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.wmu.Lock()
	defer b.wmu.Unlock()
	return b.ws.WriteJSON(server.Envelope{Type: typ, Payload: raw})
}

func (b *bot) readLoop() {
	for {
		var env server.Envelope
		if err := b.ws.ReadJSON(&env); err != nil {
			b.log.Debugw("read loop ended", "err", err)
			return
		}
		b.handle(env)
	}
}

func (b *bot) handle(env server.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch env.Type {
	case server.EvInit:
		var p server.InitPayload
		if b.decode(env, &p) {
			b.id, b.team, b.pos, b.inventory = p.You.ID, p.You.Team, p.You.Position, p.You.Inventory
			for _, t := range p.State.Teams {
				b.brokenBed[t.Name] = t.BedBroken
			}
			teamColors[b.team].Printf("joined %s as %s (%s)\n", p.State.Room, p.You.Name, b.team)
		}
	case server.EvPlayerList:
		var p server.PlayerListPayload
		if b.decode(env, &p) {
			infoColor.Printf("roster %s:", p.Room)
			for _, e := range p.Players {
				teamColors[e.Team].Printf(" %s", e.Name)
			}
			infoColor.Println()
		}
	case server.EvPlayerMove:
		var p server.PlayerMoveEvent
		if b.decode(env, &p) && p.ID == b.id {
			b.pos = p.Position
		}
	case server.EvUpdateBlock:
		var p server.UpdateBlockEvent
		if b.decode(env, &p) {
			teamColors[p.Team].Printf("block at (%.0f,%.0f,%.0f)\n", p.Position.X, p.Position.Y, p.Position.Z)
		}
	case server.EvBedStatus:
		var p server.BedStatusEvent
		if b.decode(env, &p) {
			b.brokenBed[p.Team] = p.Broken
			bedColor.Printf("%s bed destroyed\n", p.Team)
		}
	case server.EvInventory:
		var p server.InventoryEvent
		if b.decode(env, &p) {
			b.inventory = p.Inventory
		}
	case server.EvReject:
		var p server.RejectPayload
		if b.decode(env, &p) {
			rejectColor.Printf("%s rejected: %s %s\n", p.Intent, p.Reason, p.Detail)
		}
	case server.EvFull:
		rejectColor.Println("room is full")
	}
}

func (b *bot) decode(env server.Envelope, v any) bool {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		b.log.Warnw("bad payload", "type", env.Type, "err", err)
		return false
	}
	return true
}

// act 随机选择一个动作；是否合法完全由服务端判定
func (b *bot) act() {
	b.mu.Lock()
	if b.id == "" {
		b.mu.Unlock()
		return
	}
	pos, team := b.pos, b.team
	wool, iron := b.inventory[server.ItemWool], b.inventory[server.ResourceIron]
	var target server.Team
	for _, t := range server.Teams {
		if t != team && !b.brokenBed[t] {
			target = t
			break
		}
	}
	b.mu.Unlock()

	var err error
	switch r := rand.Intn(10); {
	case r < 4:
		// 向中心资源点靠近，带一点随机抖动
		next := server.Vec3{
			X: pos.X - sign(pos.X) + float64(rand.Intn(3)-1),
			Y: pos.Y,
			Z: pos.Z - sign(pos.Z) + float64(rand.Intn(3)-1),
		}
		err = b.send(server.MsgMove, next)
	case r < 6:
		err = b.send(server.MsgCollect, map[string]string{"generator": server.ResourceIron})
	case r < 8 && wool > 0:
		err = b.send(server.MsgPlaceBlock, map[string]any{"team": team, "position": server.Vec3{X: pos.X, Y: 0, Z: pos.Z + 1}})
	case iron >= 4:
		err = b.send(server.MsgPurchase, map[string]string{"itemId": server.ItemWool})
	case target != "":
		err = b.send(server.MsgBedBreak, map[string]string{"team": string(target)})
	}
	if err != nil {
		b.log.Warnw("send failed", "err", err)
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
