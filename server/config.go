package server

import (
	"errors"
	"fmt"
	"time"
)

// Bounds 世界边界（闭区间）
type Bounds struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// Contains 坐标有限且落在边界内
func (b Bounds) Contains(v Vec3) bool {
	if !v.finite() {
		return false
	}
	return v.X >= b.Min.X && v.X <= b.Max.X &&
		v.Y >= b.Min.Y && v.Y <= b.Max.Y &&
		v.Z >= b.Min.Z && v.Z <= b.Max.Z
}

// Config 服务端配置，由 main 绑定到命令行参数
type Config struct {
	Addr      string
	LogFile   string
	LogStdout bool
	StaticDir string

	Capacity     int           // 每个房间的人数上限
	JoinTimeout  time.Duration // 连接建立后必须在此时间内完成 join
	TickInterval time.Duration // 资源点产出周期
	PickupRadius float64

	Bounds            Bounds
	StartingInventory Inventory
	Catalog           map[string]ShopItem
	Generators        []GeneratorSpec
}

// DefaultConfig 默认配置：30x30 的地面，每房间 4 人
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		LogFile:      "bedwars.log",
		StaticDir:    "web",
		Capacity:     4,
		JoinTimeout:  10 * time.Second,
		TickInterval: time.Second,
		PickupRadius: 3,
		Bounds: Bounds{
			Min: Vec3{X: -15, Y: 0, Z: -15},
			Max: Vec3{X: 15, Y: 32, Z: 15},
		},
		StartingInventory: Inventory{ItemWool: 16},
		Catalog:           DefaultCatalog(),
		Generators:        DefaultGenerators(),
	}
}

// Validate 检查配置是否可用
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.JoinTimeout <= 0 {
		return errors.New("join timeout must be positive")
	}
	if c.TickInterval <= 0 {
		return errors.New("tick interval must be positive")
	}
	if !c.Bounds.Min.finite() || !c.Bounds.Max.finite() ||
		c.Bounds.Min.X > c.Bounds.Max.X || c.Bounds.Min.Y > c.Bounds.Max.Y || c.Bounds.Min.Z > c.Bounds.Max.Z {
		return fmt.Errorf("invalid world bounds %+v", c.Bounds)
	}
	for kind, n := range c.StartingInventory {
		if n < 0 {
			return fmt.Errorf("starting inventory %s is negative", kind)
		}
	}
	for id, it := range c.Catalog {
		if it.Price < 0 || it.Amount <= 0 {
			return fmt.Errorf("catalog item %s has invalid price or amount", id)
		}
	}
	for _, g := range c.Generators {
		if g.Every <= 0 || g.Amount <= 0 || g.Cap <= 0 {
			return fmt.Errorf("generator %s has invalid rate", g.Kind)
		}
	}
	return nil
}
