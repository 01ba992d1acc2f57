package server

import "time"

// run 房间主循环：单协程处理命令与资源点 Tick，退出时关闭 done
func (r *Room) run() {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()
	defer close(r.done)
	for {
		select {
		case cmd := <-r.inbox:
			if r.handle(cmd) {
				Log.Infow("room closed", "room", r.ID, "state", r.store.String())
				return
			}
		case <-ticker.C:
			start := time.Now()
			r.tick()
			r.metrics.AddTick(time.Since(start).Nanoseconds())
		}
	}
}

// tick 推进不依赖玩家输入的世界状态（目前只有资源点产出）
func (r *Room) tick() {
	r.store.tickGenerators()
}
