package strategy

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pkg/utils"
)

// HybridConfig 融合策略配置。
type HybridConfig struct {
	MaxResults int `yaml:"max_results" json:"max_results"`

	// Weights 各子算法的融合权重（算法名 -> 权重），只有出现在这里
	// 且已注册的子算法会参与融合
	Weights map[string]float64 `yaml:"weights" json:"weights"`

	// Fallbacks 所有子算法都空手而归时依次尝试的算法名
	Fallbacks []string `yaml:"fallbacks" json:"fallbacks"`

	// Sequential 为 true 时子算法串行执行；零值即默认的并发模式
	Sequential bool `yaml:"sequential" json:"sequential"`
}

func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		MaxResults: 10,
		Weights: map[string]float64{
			core.AlgorithmContentBased:  0.4,
			core.AlgorithmCollaborative: 0.3,
			core.AlgorithmPopularity:    0.3,
		},
		Fallbacks: []string{core.AlgorithmPopularity, core.AlgorithmTrending},
	}
}

func (c HybridConfig) withDefaults() HybridConfig {
	def := DefaultHybridConfig()
	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	if len(c.Weights) == 0 {
		c.Weights = def.Weights
	}
	if len(c.Fallbacks) == 0 {
		c.Fallbacks = def.Fallbacks
	}
	return c
}

// Hybrid 把多个子策略的结果按名次衰减融合成一份推荐：
//   - 子算法按各自语义产出有序结果
//   - 名次贡献 = max((1.0 - rank*0.1) * 算法权重, 0.1)，同一商品跨算法累加
//   - 融合分按全局最大值归一化到 [0,1]
//
// 融合结果与 fallback 结果都会应用调用方传入的 rctx.Filters。
// 任一子算法失败按空结果处理；全部为空时走 Fallbacks 链，fallback
// 结果原样返回（不融合、不归一化）。
type Hybrid struct {
	Catalog    core.CatalogStore
	Strategies map[string]Strategy
	Config     HybridConfig
}

func NewHybrid(catalog core.CatalogStore, strategies map[string]Strategy, cfg HybridConfig) *Hybrid {
	return &Hybrid{
		Catalog:    catalog,
		Strategies: strategies,
		Config:     cfg.withDefaults(),
	}
}

func (s *Hybrid) Name() string { return core.AlgorithmHybrid }

// applicable 判断某子算法在当前上下文下是否有足够输入。
func applicable(name string, rctx *core.RecommendContext) bool {
	switch name {
	case core.AlgorithmContentBased, core.AlgorithmCrossSell, core.AlgorithmUpSell:
		return rctx.ProductID != 0
	case core.AlgorithmCollaborative:
		return rctx.UserID != 0
	default:
		return true
	}
}

type weightedStrategy struct {
	name     string
	strategy Strategy
	weight   float64
}

func (s *Hybrid) Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil {
		return nil, nil
	}
	cfg := s.Config.withDefaults()

	enabled := make([]weightedStrategy, 0, len(cfg.Weights))
	for name, weight := range cfg.Weights {
		strat, ok := s.Strategies[name]
		if !ok || weight <= 0 || !applicable(name, rctx) {
			continue
		}
		enabled = append(enabled, weightedStrategy{name: name, strategy: strat, weight: weight})
	}
	if len(enabled) == 0 {
		return s.fallback(ctx, rctx, cfg)
	}
	sort.Slice(enabled, func(i, j int) bool { return enabled[i].name < enabled[j].name })

	results := s.runAll(ctx, rctx, enabled, !cfg.Sequential)

	merged := make(map[int64]*core.Item)
	got := false
	for i, items := range results {
		if len(items) > 0 {
			got = true
		}
		for rank, src := range items {
			contribution := (1.0 - float64(rank)*0.1) * enabled[i].weight
			if contribution < 0.1 {
				contribution = 0.1
			}
			it, ok := merged[src.ID]
			if !ok {
				it = core.NewItem(src.ID)
				merged[src.ID] = it
			}
			it.Score += contribution
			it.PutSubScore(enabled[i].name, contribution)
			it.PutLabel("algorithms", utils.Label{Value: enabled[i].name, Source: s.Name()})
		}
	}
	if !got {
		return s.fallback(ctx, rctx, cfg)
	}

	maxScore := 0.0
	for _, it := range merged {
		if it.Score > maxScore {
			maxScore = it.Score
		}
	}

	items := make([]*core.Item, 0, len(merged))
	for _, it := range merged {
		if it.ID == rctx.ProductID {
			continue
		}
		if maxScore > 0 {
			it.Score /= maxScore
		}
		items = append(items, it)
	}
	sortItems(items)

	items, err := hydrateVisibleFiltered(ctx, s.Catalog, rctx, items)
	if err != nil {
		return nil, err
	}
	return truncateItems(items, cfg.MaxResults), nil
}

// runAll 执行全部子策略；子策略报错按空结果处理，不拖垮融合主链路。
func (s *Hybrid) runAll(
	ctx context.Context,
	rctx *core.RecommendContext,
	enabled []weightedStrategy,
	concurrent bool,
) [][]*core.Item {
	results := make([][]*core.Item, len(enabled))
	if !concurrent {
		for i, ws := range enabled {
			items, err := ws.strategy.Recommend(ctx, rctx)
			if err == nil {
				results[i] = items
			}
		}
		return results
	}

	eg, gctx := errgroup.WithContext(ctx)
	for i, ws := range enabled {
		i, ws := i, ws
		eg.Go(func() error {
			items, err := ws.strategy.Recommend(gctx, rctx)
			if err == nil {
				results[i] = items
			}
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// fallback 依次尝试 Fallbacks 链，第一个非空结果带 fallback 标签原样返回。
// 调用方过滤器仍然生效；过滤后为空时继续尝试下一个 fallback。
func (s *Hybrid) fallback(ctx context.Context, rctx *core.RecommendContext, cfg HybridConfig) ([]*core.Item, error) {
	for _, name := range cfg.Fallbacks {
		strat, ok := s.Strategies[name]
		if !ok || !applicable(name, rctx) {
			continue
		}
		items, err := strat.Recommend(ctx, rctx)
		if err != nil || len(items) == 0 {
			continue
		}
		if len(rctx.Filters) > 0 {
			items, err = hydrateVisibleFiltered(ctx, s.Catalog, rctx, items)
			if err != nil || len(items) == 0 {
				continue
			}
		}
		for _, it := range items {
			it.PutLabel("fallback", utils.Label{Value: name, Source: s.Name()})
		}
		return items, nil
	}
	return nil, nil
}

// PerformanceStats 是某个子算法的线上表现（曝光/点击）。
type PerformanceStats struct {
	Impressions int
	Clicks      int
}

// AdjustWeights 按点击率占比重新分配子算法权重：
// 每个算法的新权重 = 自身 CTR / 所有算法 CTR 之和。
// 全部 CTR 为 0 时保持原权重不动。
func (s *Hybrid) AdjustWeights(perf map[string]PerformanceStats) {
	ctrs := make(map[string]float64, len(perf))
	total := 0.0
	for name, p := range perf {
		if p.Impressions <= 0 {
			continue
		}
		ctr := float64(p.Clicks) / float64(p.Impressions)
		ctrs[name] = ctr
		total += ctr
	}
	if total <= 0 {
		return
	}
	weights := make(map[string]float64, len(ctrs))
	for name, ctr := range ctrs {
		weights[name] = ctr / total
	}
	s.Config.Weights = weights
}
