package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/goleaf/shoprec/config"
	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pipeline"
	"github.com/goleaf/shoprec/store"
	"github.com/goleaf/shoprec/strategy"
	"github.com/goleaf/shoprec/telemetry"
)

// seededDeps 准备三个有销量的可见商品，足够让热门推荐出结果。
func seededDeps() config.Deps {
	catalog := store.NewMemCatalog(
		&core.Product{ID: 1, Price: 10, Visible: true},
		&core.Product{ID: 2, Price: 20, Visible: true},
		&core.Product{ID: 3, Price: 30, Visible: true},
	)
	stats := store.NewMemStats()
	now := time.Now()
	stats.AddEvent(1, store.ActivitySale, now.Add(-24*time.Hour), 5)
	stats.AddEvent(2, store.ActivitySale, now.Add(-24*time.Hour), 3)
	stats.AddEvent(3, store.ActivitySale, now.Add(-24*time.Hour), 1)

	return config.Deps{
		Catalog:      catalog,
		Interactions: store.NewMemInteractions(),
		Orders:       store.NewMemOrders(),
		Stats:        stats,
		Similarities: store.NewMemSimilarities(),
		Cache:        store.NewMemoryStore(),
	}
}

func TestEngine_RecommendPopularity(t *testing.T) {
	e := New(seededDeps(), Config{TopN: 2}, zerolog.Nop())

	items, err := e.Recommend(context.Background(), core.AlgorithmPopularity, &core.RecommendContext{UserID: 7})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("TopN=2, got %d items", len(items))
	}
	if items[0].ID != 1 || items[1].ID != 2 {
		t.Fatalf("order = %d,%d, want 1,2", items[0].ID, items[1].ID)
	}
}

func TestEngine_UnknownAlgorithm(t *testing.T) {
	e := New(seededDeps(), Config{}, zerolog.Nop())

	_, err := e.Recommend(context.Background(), "magic", nil)
	if err == nil {
		t.Fatal("unknown algorithm must fail")
	}
	if de := core.GetDomainError(err); de == nil || de.Code != core.ErrorCodeNotSupported {
		t.Fatalf("err = %v, want NOT_SUPPORTED domain error", err)
	}
}

func TestEngine_TelemetryAndCacheHit(t *testing.T) {
	e := New(seededDeps(), Config{CacheTTLSeconds: 60}, zerolog.Nop())
	sink := telemetry.NewMemorySink()
	e.Telemetry = sink
	defer e.Close()

	rctx := &core.RecommendContext{UserID: 7, Scene: "home"}
	if _, err := e.Recommend(context.Background(), core.AlgorithmPopularity, rctx); err != nil {
		t.Fatalf("first Recommend: %v", err)
	}
	if _, err := e.Recommend(context.Background(), core.AlgorithmPopularity, rctx); err != nil {
		t.Fatalf("second Recommend: %v", err)
	}

	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].CacheHit {
		t.Fatal("first call computed live, must not be a cache hit")
	}
	if !events[1].CacheHit {
		t.Fatal("second call must be served from cache")
	}
	if events[0].Algorithm != core.AlgorithmPopularity || events[0].UserID != 7 || events[0].Scene != "home" {
		t.Fatalf("event = %+v", events[0])
	}
}

func TestEngine_ExcludeInteracted(t *testing.T) {
	deps := seededDeps()
	e := New(deps, Config{ExcludeInteracted: true}, zerolog.Nop())

	if err := e.RecordInteraction(context.Background(), 7, 1, core.InteractionPurchase, nil); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	items, err := e.Recommend(context.Background(), core.AlgorithmPopularity, &core.RecommendContext{UserID: 7})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, it := range items {
		if it.ID == 1 {
			t.Fatal("interacted product 1 must be filtered out")
		}
	}
}

func TestEngine_Products(t *testing.T) {
	e := New(seededDeps(), Config{}, zerolog.Nop())

	items := []*core.Item{core.NewItem(2), core.NewItem(99), core.NewItem(1)}
	products, err := e.Products(context.Background(), items)
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 2 || products[0].ID != 2 || products[1].ID != 1 {
		t.Fatalf("products = %+v, want [2 1] in item order", products)
	}
}

func TestEngine_AdjustHybridWeights(t *testing.T) {
	e := New(seededDeps(), Config{}, zerolog.Nop())

	e.AdjustHybridWeights(map[string]strategy.PerformanceStats{
		core.AlgorithmPopularity:   {Impressions: 100, Clicks: 30},
		core.AlgorithmContentBased: {Impressions: 100, Clicks: 10},
	})
	if got := e.hybrid.Config.Weights[core.AlgorithmPopularity]; got != 0.75 {
		t.Fatalf("popularity weight = %v, want 0.75", got)
	}
}

func TestEngine_BuildPipeline(t *testing.T) {
	e := New(seededDeps(), Config{}, zerolog.Nop())

	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "strategy.popularity"},
		{Type: "rerank.topn", Config: map[string]any{"n": 1}},
	}
	p, err := e.BuildPipeline(cfg)
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	items, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil || len(items) != 1 || items[0].ID != 1 {
		t.Fatalf("pipeline run = %v, %v", items, err)
	}

	cfg.Pipeline.Nodes[0].Type = "strategy.magic"
	if _, err := e.BuildPipeline(cfg); err == nil {
		t.Fatal("invalid node type must fail validation")
	}
}
