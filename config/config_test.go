package config

import (
	"context"
	"testing"

	"github.com/goleaf/shoprec/cache"
	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pipeline"
	"github.com/goleaf/shoprec/store"
	"github.com/goleaf/shoprec/strategy"
)

func testDeps() Deps {
	return Deps{
		Catalog:      store.NewMemCatalog(),
		Interactions: store.NewMemInteractions(),
		Orders:       store.NewMemOrders(),
		Stats:        store.NewMemStats(),
		Similarities: store.NewMemSimilarities(),
		Cache:        store.NewMemoryStore(),
	}
}

func TestDefaultFactory_BuildsAllBuiltinTypes(t *testing.T) {
	f := DefaultFactory(testDeps())

	for _, typ := range builtinTypes {
		cfg := map[string]any{}
		if typ == "filter" {
			cfg["excluded_ids"] = []any{1, 2}
		}
		node, err := f.Build(typ, cfg)
		if err != nil {
			t.Fatalf("build %s: %v", typ, err)
		}
		if node == nil {
			t.Fatalf("build %s returned nil node", typ)
		}
	}
}

func TestBuildStrategyNode_ConfigOverridesDefaults(t *testing.T) {
	f := DefaultFactory(testDeps())

	node, err := f.Build("strategy.content_based", map[string]any{
		"max_results": 3,
		"min_score":   0.5,
		"weights":     map[string]any{"category": 1.0, "brand": 0, "price_range": 0, "attributes": 0},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	sn, ok := node.(*strategy.Node)
	if !ok {
		t.Fatalf("node type = %T", node)
	}
	cb, ok := sn.Strategy.(*strategy.ContentBased)
	if !ok {
		t.Fatalf("strategy type = %T", sn.Strategy)
	}
	if cb.Config.MaxResults != 3 || cb.Config.MinScore != 0.5 || cb.Config.Weights.Category != 1.0 {
		t.Fatalf("config = %+v", cb.Config)
	}
	// 未覆盖的字段保留默认值
	if !cb.Config.UseCachedSimilarities {
		t.Fatal("unset fields must keep defaults")
	}
}

func TestBuildStrategyNode_CacheWrap(t *testing.T) {
	deps := testDeps()
	f := DefaultFactory(deps)

	node, err := f.Build("strategy.popularity", map[string]any{"cache_ttl_seconds": 60})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	sn := node.(*strategy.Node)
	if _, ok := sn.Strategy.(*cache.CachedStrategy); !ok {
		t.Fatalf("cache_ttl_seconds > 0 must wrap strategy, got %T", sn.Strategy)
	}

	// 未配置 TTL 时不包缓存
	node, _ = f.Build("strategy.popularity", nil)
	sn = node.(*strategy.Node)
	if _, ok := sn.Strategy.(*cache.CachedStrategy); ok {
		t.Fatal("strategy without TTL must not be cached")
	}
}

func TestBuildHybrid_SubStrategiesAndFallbacks(t *testing.T) {
	f := DefaultFactory(testDeps())

	node, err := f.Build("strategy.hybrid", map[string]any{
		"weights":   map[string]any{"popularity": 0.7, "trending": 0.3},
		"fallbacks": []any{"popularity"},
		"sub_configs": map[string]any{
			"popularity": map[string]any{"time_window_days": 14},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h, ok := node.(*strategy.Node).Strategy.(*strategy.Hybrid)
	if !ok {
		t.Fatalf("strategy type = %T", node.(*strategy.Node).Strategy)
	}
	if len(h.Strategies) != 2 {
		t.Fatalf("sub strategies = %d, want 2", len(h.Strategies))
	}
	pop, ok := h.Strategies["popularity"].(*strategy.Popularity)
	if !ok {
		t.Fatalf("popularity sub type = %T", h.Strategies["popularity"])
	}
	if pop.Config.TimeWindowDays != 14 {
		t.Fatalf("sub config not applied: %+v", pop.Config)
	}
}

func TestBuildHybrid_RejectsSelfNesting(t *testing.T) {
	f := DefaultFactory(testDeps())

	_, err := f.Build("strategy.hybrid", map[string]any{
		"weights": map[string]any{"hybrid": 1.0},
	})
	if err == nil {
		t.Fatal("nesting hybrid inside hybrid must fail")
	}
}

func TestBuildFilterNode_RequiresConfig(t *testing.T) {
	f := DefaultFactory(testDeps())

	if _, err := f.Build("filter", nil); err == nil {
		t.Fatal("empty filter config must fail")
	}
	if _, err := f.Build("filter", map[string]any{"expr": "item.score > 0.1"}); err != nil {
		t.Fatalf("expr filter: %v", err)
	}
}

func TestRegisterAndValidate(t *testing.T) {
	Register("rerank.noop", func(_ map[string]any) (pipeline.Node, error) {
		return &noopNode{}, nil
	})

	found := false
	for _, typ := range SupportedTypes() {
		if typ == "rerank.noop" {
			found = true
		}
	}
	if !found {
		t.Fatal("registered type missing from SupportedTypes")
	}

	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "strategy.popularity"},
		{Type: "rerank.noop"},
	}
	if err := ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("ValidatePipelineConfig: %v", err)
	}

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{Type: "strategy.magic"})
	if err := ValidatePipelineConfig(cfg); err == nil {
		t.Fatal("unknown type must fail validation")
	}
}

func TestConfigBuildPipeline(t *testing.T) {
	f := DefaultFactory(testDeps())

	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "related-products"
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "strategy.popularity", Config: map[string]any{"max_results": 5}},
		{Type: "filter.interacted"},
		{Type: "rerank.topn", Config: map[string]any{"n": 3}},
	}

	p, err := cfg.BuildPipeline(f)
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	items, err := p.Run(context.Background(), &core.RecommendContext{UserID: 1}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("empty stores should yield no items, got %d", len(items))
	}
}

type noopNode struct{}

func (n *noopNode) Name() string        { return "rerank.noop" }
func (n *noopNode) Kind() pipeline.Kind { return pipeline.KindReRank }
func (n *noopNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return items, nil
}
