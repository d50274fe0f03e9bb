// Package engine 是推荐引擎的门面：注册策略族、按算法名执行推荐链路、
// 上报遥测事件。宿主系统通常只和这个包打交道。
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goleaf/shoprec/cache"
	"github.com/goleaf/shoprec/config"
	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/feature"
	"github.com/goleaf/shoprec/filter"
	"github.com/goleaf/shoprec/pipeline"
	"github.com/goleaf/shoprec/rerank"
	"github.com/goleaf/shoprec/strategy"
	"github.com/goleaf/shoprec/telemetry"
)

// Config 控制引擎级行为，策略内部参数在各自的 XConfig 里调。
type Config struct {
	// TopN 最终返回的结果数量上限，默认 10
	TopN int

	// CacheTTLSeconds > 0 且提供了 KV 存储时，策略结果走读穿缓存
	CacheTTLSeconds int

	// ExcludeInteracted 为 true 时剔除用户已交互过的商品
	ExcludeInteracted bool
}

func (c Config) withDefaults() Config {
	if c.TopN <= 0 {
		c.TopN = 10
	}
	return c
}

// Engine 持有全部已注册策略，按算法名组装并执行推荐 Pipeline。
type Engine struct {
	deps   config.Deps
	cfg    Config
	logger zerolog.Logger

	// Telemetry 可选：设置后每次推荐返回都会上报一条 ServedEvent。
	// 上报失败只记日志，从不影响推荐结果。
	Telemetry core.TelemetrySink

	mu         sync.RWMutex
	strategies map[string]strategy.Strategy

	collab *strategy.Collaborative
	hybrid *strategy.Hybrid
}

// New 创建引擎并注册全部内置策略（默认配置）。
// 需要细调某个策略时，用 Register 覆盖同名注册即可。
func New(deps config.Deps, cfg Config, logger zerolog.Logger) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		deps:       deps,
		cfg:        cfg,
		logger:     logger,
		strategies: make(map[string]strategy.Strategy),
	}

	e.collab = strategy.NewCollaborative(deps.Catalog, deps.Interactions, strategy.DefaultCollaborativeConfig())
	base := map[string]strategy.Strategy{
		core.AlgorithmContentBased:  strategy.NewContentBased(deps.Catalog, deps.Similarities, strategy.DefaultContentBasedConfig()),
		core.AlgorithmCollaborative: e.collab,
		core.AlgorithmCrossSell:     strategy.NewCrossSell(deps.Catalog, deps.Orders, strategy.DefaultCrossSellConfig()),
		core.AlgorithmUpSell:        strategy.NewUpSell(deps.Catalog, deps.Orders, deps.Stats, strategy.DefaultUpSellConfig()),
		core.AlgorithmPopularity:    strategy.NewPopularity(deps.Catalog, deps.Stats, strategy.DefaultPopularityConfig()),
		core.AlgorithmTrending:      strategy.NewTrending(deps.Catalog, deps.Stats, strategy.DefaultTrendingConfig()),
	}

	// Hybrid 的子策略引用未包缓存的实例，避免同一次请求里双层缓存
	subs := make(map[string]strategy.Strategy, len(base))
	for name, st := range base {
		subs[name] = st
	}
	e.hybrid = strategy.NewHybrid(deps.Catalog, subs, strategy.DefaultHybridConfig())

	for name, st := range base {
		e.Register(name, st)
	}
	e.Register(core.AlgorithmHybrid, e.hybrid)
	return e
}

// Register 注册（或覆盖）一个策略。缓存按引擎配置在此统一套上。
func (e *Engine) Register(name string, st strategy.Strategy) {
	if e.cfg.CacheTTLSeconds > 0 && e.deps.Cache != nil {
		st = cache.NewCachedStrategy(st, e.deps.Cache, e.cfg.CacheTTLSeconds)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[name] = st
}

// Strategy 按名称查找已注册策略。
func (e *Engine) Strategy(name string) (strategy.Strategy, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.strategies[name]
	return st, ok
}

// Recommend 按算法名执行一次推荐：
// 实时特征补充 → 策略打分 → 已交互过滤（可选）→ TopN 截断 → 遥测上报。
func (e *Engine) Recommend(ctx context.Context, algorithm string, rctx *core.RecommendContext) ([]*core.Item, error) {
	st, ok := e.Strategy(algorithm)
	if !ok {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotSupported,
			fmt.Sprintf("unknown algorithm: %s", algorithm))
	}
	if rctx == nil {
		rctx = &core.RecommendContext{}
	}

	nodes := make([]pipeline.Node, 0, 4)
	if e.deps.Realtime != nil {
		nodes = append(nodes, &feature.EnrichNode{Provider: e.deps.Realtime})
	}
	nodes = append(nodes, &strategy.Node{Strategy: st})
	if e.cfg.ExcludeInteracted {
		nodes = append(nodes, &filter.InteractedNode{Interactions: e.deps.Interactions})
	}
	nodes = append(nodes, &rerank.TopNNode{N: e.cfg.TopN})

	p := &pipeline.Pipeline{Nodes: nodes}
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		e.logger.Error().Err(err).Str("algorithm", algorithm).Msg("recommend failed")
		return nil, err
	}

	e.record(ctx, algorithm, rctx, items)
	e.logger.Debug().
		Str("algorithm", algorithm).
		Int64("user_id", rctx.UserID).
		Int64("product_id", rctx.ProductID).
		Int("results", len(items)).
		Msg("recommend served")
	return items, nil
}

// Products 按推荐结果顺序取回商品实体，缺失或不可见的商品被跳过。
func (e *Engine) Products(ctx context.Context, items []*core.Item) ([]*core.Product, error) {
	if len(items) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	byID, err := e.deps.Catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Product, 0, len(items))
	for _, it := range items {
		if p, ok := byID[it.ID]; ok && p.Visible {
			out = append(out, p)
		}
	}
	return out, nil
}

// RecordInteraction 写入一条用户交互。rating 为 nil 时按交互类型权重推导隐式评分。
func (e *Engine) RecordInteraction(ctx context.Context, userID, productID int64, typ core.InteractionType, rating *float64) error {
	return e.collab.UpdateInteraction(ctx, userID, productID, typ, rating)
}

// AdjustHybridWeights 按各算法的曝光/点击表现重调 Hybrid 权重。
func (e *Engine) AdjustHybridWeights(stats map[string]strategy.PerformanceStats) {
	e.hybrid.AdjustWeights(stats)
}

// BuildPipeline 用引擎的依赖构建配置驱动的 Pipeline，供自定义编排使用。
func (e *Engine) BuildPipeline(cfg *pipeline.Config) (*pipeline.Pipeline, error) {
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(config.DefaultFactory(e.deps))
}

// Close 关闭遥测出口（如有）。
func (e *Engine) Close() error {
	if e.Telemetry == nil {
		return nil
	}
	return e.Telemetry.Close()
}

func (e *Engine) record(ctx context.Context, algorithm string, rctx *core.RecommendContext, items []*core.Item) {
	if e.Telemetry == nil {
		return
	}
	ev := telemetry.NewServedEvent(algorithm, rctx, items, cache.WasHit(items))
	if err := e.Telemetry.Record(ctx, ev); err != nil {
		e.logger.Warn().Err(err).Str("algorithm", algorithm).Msg("telemetry record failed")
	}
}
