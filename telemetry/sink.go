package telemetry

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goleaf/shoprec/core"
)

// LogSink 把推荐事件打到结构化日志，作为默认的遥测出口。
type LogSink struct {
	Logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{Logger: logger}
}

func (s *LogSink) Record(_ context.Context, event *core.ServedEvent) error {
	if event == nil {
		return nil
	}
	s.Logger.Info().
		Str("event_id", event.ID).
		Str("algorithm", event.Algorithm).
		Int64("user_id", event.UserID).
		Int64("product_id", event.ProductID).
		Str("scene", event.Scene).
		Ints64("product_ids", event.ProductIDs).
		Bool("cache_hit", event.CacheHit).
		Msg("recommendation served")
	return nil
}

func (s *LogSink) Close() error { return nil }

// MemorySink 把事件收进内存切片，测试断言用。
type MemorySink struct {
	mu     sync.Mutex
	events []*core.ServedEvent
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Record(_ context.Context, event *core.ServedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemorySink) Close() error { return nil }

// Events 返回已收集事件的副本。
func (s *MemorySink) Events() []*core.ServedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.ServedEvent, len(s.events))
	copy(out, s.events)
	return out
}

var (
	_ core.TelemetrySink = (*LogSink)(nil)
	_ core.TelemetrySink = (*MemorySink)(nil)
)
