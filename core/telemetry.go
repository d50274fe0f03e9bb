package core

import (
	"context"
	"time"
)

// ServedEvent 是一次"推荐已返回"事件，用于 best-effort 遥测。
type ServedEvent struct {
	ID         string    `json:"id"`
	Algorithm  string    `json:"algorithm"`
	UserID     int64     `json:"user_id,omitempty"`
	ProductID  int64     `json:"product_id,omitempty"`
	Scene      string    `json:"scene,omitempty"`
	ProductIDs []int64   `json:"product_ids"`
	CacheHit   bool      `json:"cache_hit"`
	At         time.Time `json:"at"`
}

// TelemetrySink 是遥测事件的接收端。
// 约定：Record 必须非阻塞且 best-effort，失败不允许影响推荐调用本身，
// 调用方显式忽略返回的错误（`_ = sink.Record(...)`）。
type TelemetrySink interface {
	// Record 记录一次推荐事件
	Record(ctx context.Context, event *ServedEvent) error

	// Close 优雅关闭（等待缓冲数据落地）
	Close() error
}
