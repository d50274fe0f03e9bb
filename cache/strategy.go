package cache

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pkg/utils"
	"github.com/goleaf/shoprec/strategy"
)

// DefaultTTLSeconds 是缓存结果的默认过期时间（1 小时）。
const DefaultTTLSeconds = 3600

// HitLabel 是缓存命中时打在结果上的标签 key。
const HitLabel = "cache"

// CachedStrategy 包装任意策略，提供读穿/回写缓存：
//   - 命中：直接返回反序列化结果，完全跳过计算
//   - 未命中 / 后端读失败：按 miss 处理，落到内层策略计算，再回写
//   - 回写失败：忽略，本次结果照常返回
//
// 并发请求同一 key 时允许重复计算，后写的覆盖先写的（last-writer-wins）。
type CachedStrategy struct {
	Inner strategy.Strategy
	Store core.Store

	// TTLSeconds 缓存过期秒数，<= 0 时取 DefaultTTLSeconds
	TTLSeconds int

	Logger zerolog.Logger
}

func NewCachedStrategy(inner strategy.Strategy, store core.Store, ttlSeconds int) *CachedStrategy {
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultTTLSeconds
	}
	return &CachedStrategy{
		Inner:      inner,
		Store:      store,
		TTLSeconds: ttlSeconds,
		Logger:     zerolog.Nop(),
	}
}

func (s *CachedStrategy) Name() string { return s.Inner.Name() }

func (s *CachedStrategy) Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if s.Store == nil {
		return s.Inner.Recommend(ctx, rctx)
	}

	key := Fingerprint(s.Inner.Name(), rctx)
	if items, ok := s.load(ctx, key); ok {
		return items, nil
	}

	items, err := s.Inner.Recommend(ctx, rctx)
	if err != nil {
		return nil, err
	}
	s.save(ctx, key, items)
	return items, nil
}

// cachedItem 是 Item 的序列化形态。
type cachedItem struct {
	ID        int64                  `json:"id"`
	Score     float64                `json:"score"`
	SubScores map[string]float64     `json:"sub_scores,omitempty"`
	Labels    map[string]utils.Label `json:"labels,omitempty"`
}

func (s *CachedStrategy) load(ctx context.Context, key string) ([]*core.Item, bool) {
	data, err := s.Store.Get(ctx, key)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			// 后端故障按 miss 处理
			s.Logger.Warn().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		}
		return nil, false
	}

	var cached []cachedItem
	if err := json.Unmarshal(data, &cached); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("cache payload corrupted, treating as miss")
		return nil, false
	}

	items := make([]*core.Item, 0, len(cached))
	for _, c := range cached {
		it := &core.Item{
			ID:        c.ID,
			Score:     c.Score,
			SubScores: c.SubScores,
			Labels:    c.Labels,
		}
		// 命中标记只出现在读出的结果上，回写时不落盘
		it.PutLabel(HitLabel, utils.Label{Value: "hit", Source: s.Inner.Name()})
		items = append(items, it)
	}
	return items, true
}

// WasHit 判断一批结果是否来自缓存（靠 load 时打上的命中标签）。
func WasHit(items []*core.Item) bool {
	for _, it := range items {
		if _, ok := it.Labels[HitLabel]; ok {
			return true
		}
	}
	return false
}

func (s *CachedStrategy) save(ctx context.Context, key string, items []*core.Item) {
	cached := make([]cachedItem, 0, len(items))
	for _, it := range items {
		cached = append(cached, cachedItem{
			ID:        it.ID,
			Score:     it.Score,
			SubScores: it.SubScores,
			Labels:    it.Labels,
		})
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := s.Store.Set(ctx, key, data, s.TTLSeconds); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("cache write failed, result still served")
	}
}
