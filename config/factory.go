package config

import (
	"encoding/json"
	"fmt"

	"github.com/goleaf/shoprec/cache"
	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/feature"
	"github.com/goleaf/shoprec/filter"
	"github.com/goleaf/shoprec/pipeline"
	"github.com/goleaf/shoprec/pkg/conv"
	"github.com/goleaf/shoprec/rerank"
	"github.com/goleaf/shoprec/strategy"
)

// builtinTypes 是内置支持的 Node 类型。
var builtinTypes = []string{
	"strategy.content_based",
	"strategy.collaborative",
	"strategy.cross_sell",
	"strategy.up_sell",
	"strategy.popularity",
	"strategy.trending",
	"strategy.hybrid",
	"filter",
	"filter.interacted",
	"rerank.topn",
	"rerank.sort",
	"rerank.diversity",
	"feature.enrich",
}

// Deps 汇集构建 Node 所需的领域存储。
// Cache 与 Realtime 可选：为 nil 时相应能力（策略缓存 / 实时特征）被跳过。
type Deps struct {
	Catalog      core.CatalogStore
	Interactions core.InteractionStore
	Orders       core.OrderStore
	Stats        core.StatsStore
	Similarities core.SimilarityStore

	Cache    core.Store
	Realtime feature.RealtimeProvider
}

// DefaultFactory 返回注册了全部内置 Node 构建器的 NodeFactory，
// 并叠加通过 Register 注册的自定义类型。
func DefaultFactory(deps Deps) *pipeline.NodeFactory {
	f := pipeline.NewNodeFactory()

	for _, name := range []string{
		core.AlgorithmContentBased,
		core.AlgorithmCollaborative,
		core.AlgorithmCrossSell,
		core.AlgorithmUpSell,
		core.AlgorithmPopularity,
		core.AlgorithmTrending,
		core.AlgorithmHybrid,
	} {
		algo := name
		f.Register("strategy."+algo, func(m map[string]any) (pipeline.Node, error) {
			return buildStrategyNode(deps, algo, m)
		})
	}

	f.Register("filter", func(m map[string]any) (pipeline.Node, error) {
		return buildFilterNode(deps, m)
	})
	f.Register("filter.interacted", func(m map[string]any) (pipeline.Node, error) {
		return &filter.InteractedNode{
			Interactions:    deps.Interactions,
			MinInteractions: conv.ConfigGetInt(m, "min_interactions", 1),
		}, nil
	})
	f.Register("rerank.topn", func(m map[string]any) (pipeline.Node, error) {
		return &rerank.TopNNode{N: conv.ConfigGetInt(m, "n", 10)}, nil
	})
	f.Register("rerank.sort", func(_ map[string]any) (pipeline.Node, error) {
		return &rerank.SortNode{}, nil
	})
	f.Register("rerank.diversity", func(m map[string]any) (pipeline.Node, error) {
		return &rerank.DiversityNode{
			Catalog:      deps.Catalog,
			WindowSize:   conv.ConfigGetInt(m, "window_size", 4),
			MaxPerWindow: conv.ConfigGetInt(m, "max_per_window", 2),
		}, nil
	})
	f.Register("feature.enrich", func(m map[string]any) (pipeline.Node, error) {
		return &feature.EnrichNode{
			Provider: deps.Realtime,
			Prefix:   conv.ConfigGet(m, "prefix", ""),
		}, nil
	})

	applyExtraBuilders(f)
	return f
}

// buildStrategyNode 构建策略节点，可选地套上读穿缓存。
// 配置里 cache_ttl_seconds > 0 且 Deps.Cache 非空时启用缓存。
func buildStrategyNode(deps Deps, algo string, m map[string]any) (pipeline.Node, error) {
	st, err := buildStrategy(deps, algo, m)
	if err != nil {
		return nil, err
	}
	if ttl := conv.ConfigGetInt(m, "cache_ttl_seconds", 0); ttl > 0 && deps.Cache != nil {
		st = cache.NewCachedStrategy(st, deps.Cache, ttl)
	}
	return &strategy.Node{Strategy: st}, nil
}

func buildStrategy(deps Deps, algo string, m map[string]any) (strategy.Strategy, error) {
	switch algo {
	case core.AlgorithmContentBased:
		cfg := strategy.DefaultContentBasedConfig()
		if err := decodeConfig(m, &cfg); err != nil {
			return nil, err
		}
		return strategy.NewContentBased(deps.Catalog, deps.Similarities, cfg), nil

	case core.AlgorithmCollaborative:
		cfg := strategy.DefaultCollaborativeConfig()
		if err := decodeConfig(m, &cfg); err != nil {
			return nil, err
		}
		return strategy.NewCollaborative(deps.Catalog, deps.Interactions, cfg), nil

	case core.AlgorithmCrossSell:
		cfg := strategy.DefaultCrossSellConfig()
		if err := decodeConfig(m, &cfg); err != nil {
			return nil, err
		}
		return strategy.NewCrossSell(deps.Catalog, deps.Orders, cfg), nil

	case core.AlgorithmUpSell:
		cfg := strategy.DefaultUpSellConfig()
		if err := decodeConfig(m, &cfg); err != nil {
			return nil, err
		}
		return strategy.NewUpSell(deps.Catalog, deps.Orders, deps.Stats, cfg), nil

	case core.AlgorithmPopularity:
		cfg := strategy.DefaultPopularityConfig()
		if err := decodeConfig(m, &cfg); err != nil {
			return nil, err
		}
		return strategy.NewPopularity(deps.Catalog, deps.Stats, cfg), nil

	case core.AlgorithmTrending:
		cfg := strategy.DefaultTrendingConfig()
		if err := decodeConfig(m, &cfg); err != nil {
			return nil, err
		}
		return strategy.NewTrending(deps.Catalog, deps.Stats, cfg), nil

	case core.AlgorithmHybrid:
		return buildHybrid(deps, m)

	default:
		return nil, fmt.Errorf("unknown strategy: %s", algo)
	}
}

// buildHybrid 根据权重与降级链配置组装 Hybrid 及其全部子策略。
// 子策略使用各自的默认配置；需要细调时可在 sub_configs.<name> 下覆盖。
func buildHybrid(deps Deps, m map[string]any) (strategy.Strategy, error) {
	cfg := strategy.DefaultHybridConfig()
	if err := decodeConfig(m, &cfg); err != nil {
		return nil, err
	}

	subConfigs := map[string]map[string]any{}
	if raw, ok := m["sub_configs"].(map[string]any); ok {
		for name, v := range raw {
			if sub, ok := v.(map[string]any); ok {
				subConfigs[name] = sub
			}
		}
	}

	names := make(map[string]struct{}, len(cfg.Weights)+len(cfg.Fallbacks))
	for name := range cfg.Weights {
		names[name] = struct{}{}
	}
	for _, name := range cfg.Fallbacks {
		names[name] = struct{}{}
	}

	strategies := make(map[string]strategy.Strategy, len(names))
	for name := range names {
		if name == core.AlgorithmHybrid {
			return nil, fmt.Errorf("hybrid cannot nest itself")
		}
		sub, err := buildStrategy(deps, name, subConfigs[name])
		if err != nil {
			return nil, fmt.Errorf("build sub-strategy %s: %w", name, err)
		}
		strategies[name] = sub
	}
	return strategy.NewHybrid(deps.Catalog, strategies, cfg), nil
}

// buildFilterNode 组装过滤节点。
// 支持 excluded_ids（静态排除）、excluded_key（从 KV 读排除集）、expr（CEL 保留条件）。
func buildFilterNode(deps Deps, m map[string]any) (pipeline.Node, error) {
	var filters []filter.Filter

	excludedIDs := conv.SliceAnyToInt64(m["excluded_ids"])
	excludedKey := conv.ConfigGet(m, "excluded_key", "")
	if len(excludedIDs) > 0 || excludedKey != "" {
		filters = append(filters, filter.NewExcludedFilter(excludedIDs, deps.Cache, excludedKey))
	}

	if expr := conv.ConfigGet(m, "expr", ""); expr != "" {
		filters = append(filters, filter.NewExprFilter(expr, deps.Catalog))
	}

	if len(filters) == 0 {
		return nil, fmt.Errorf("filter node needs at least one of excluded_ids/excluded_key/expr")
	}
	return &filter.Node{Filters: filters}, nil
}

// decodeConfig 通过 JSON 往返把 map 配置写入带标签的配置结构体，
// 未出现的字段保留默认值。
func decodeConfig(m map[string]any, out any) error {
	if len(m) == 0 {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
