package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bedwars/server"
)

// Bedwars 入口：启动 HTTP + WebSocket 服务，房间在首次 join 时创建
func main() {
	cfg := server.DefaultConfig()
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. :8080")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file path (rotated)")
	flag.BoolVar(&cfg.LogStdout, "log-stdout", cfg.LogStdout, "also write logs to stderr")
	flag.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "static client directory served at /, empty to disable")
	flag.IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "max players per room")
	flag.DurationVar(&cfg.JoinTimeout, "join-timeout", cfg.JoinTimeout, "drop connections that do not join within this period")
	flag.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "resource generator tick interval")
	flag.Float64Var(&cfg.PickupRadius, "pickup-radius", cfg.PickupRadius, "max distance to a generator for collect")
	flag.Parse()
	// 环境变量优先于默认值，便于容器部署
	if addr := os.Getenv("BEDWARS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	if err := server.InitLogger(cfg.LogFile, cfg.LogStdout); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	app := server.NewServer(cfg)
	srv := &http.Server{Addr: cfg.Addr, Handler: app.Handler()}

	go func() {
		server.Log.Infof("Bedwars listening on %s; websocket endpoint ws://localhost%v/ws", cfg.Addr, cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		server.Log.Warnf("shutdown: %v", err)
	}
}
