// Package telemetry 实现"推荐已返回"事件的 best-effort 收集：
// 异步缓冲、满则丢弃、关闭时排空。遥测失败从不影响推荐主链路。
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goleaf/shoprec/core"
)

// NewServedEvent 构建一条推荐返回事件，自动生成事件 ID 和时间戳。
func NewServedEvent(algorithm string, rctx *core.RecommendContext, items []*core.Item, cacheHit bool) *core.ServedEvent {
	ev := &core.ServedEvent{
		ID:        uuid.NewString(),
		Algorithm: algorithm,
		CacheHit:  cacheHit,
		At:        time.Now(),
	}
	if rctx != nil {
		ev.UserID = rctx.UserID
		ev.ProductID = rctx.ProductID
		ev.Scene = rctx.Scene
	}
	ev.ProductIDs = make([]int64, 0, len(items))
	for _, it := range items {
		ev.ProductIDs = append(ev.ProductIDs, it.ID)
	}
	return ev
}

// AsyncCollector 把事件写入有界缓冲后立即返回，由后台协程投递给下游 Sink。
// 缓冲满时直接丢弃事件（宁可丢遥测，不可阻塞请求）。
type AsyncCollector struct {
	sink   core.TelemetrySink
	buffer chan *core.ServedEvent

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewAsyncCollector 创建异步收集器。bufferSize <= 0 时取 1024。
func NewAsyncCollector(sink core.TelemetrySink, bufferSize int) *AsyncCollector {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	c := &AsyncCollector{
		sink:   sink,
		buffer: make(chan *core.ServedEvent, bufferSize),
	}
	c.wg.Add(1)
	go c.drainLoop()
	return c
}

// Record 非阻塞入队；缓冲满或已关闭时丢弃事件，永不报错。
func (c *AsyncCollector) Record(_ context.Context, event *core.ServedEvent) error {
	if event == nil {
		return nil
	}
	defer func() {
		// 已关闭的 channel 上写入会 panic，按丢弃处理
		_ = recover()
	}()
	select {
	case c.buffer <- event:
	default:
	}
	return nil
}

// Close 停止接收并排空缓冲中剩余的事件，然后关闭下游 Sink。
func (c *AsyncCollector) Close() error {
	c.closeOnce.Do(func() {
		close(c.buffer)
	})
	c.wg.Wait()
	return c.sink.Close()
}

func (c *AsyncCollector) drainLoop() {
	defer c.wg.Done()
	for event := range c.buffer {
		_ = c.sink.Record(context.Background(), event)
	}
}

var _ core.TelemetrySink = (*AsyncCollector)(nil)
