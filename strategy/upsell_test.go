package strategy

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/store"
)

func TestUpSell_Recommend(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	catalog := store.NewMemCatalog(
		testProduct(1, 100, []int64{1}, 0, nil),
		testProduct(2, 150, []int64{1}, 0, nil), // 比率 1.5，区间内
		testProduct(3, 105, []int64{1}, 0, nil), // 比率 1.05，低于 1.1
		testProduct(4, 300, []int64{1}, 0, nil), // 比率 3.0，高于 2.0
		testProduct(5, 150, []int64{2}, 0, nil), // 类目不符
	)
	stats := store.NewMemStats()
	stats.SetReview(2, 5.0, 50)
	orders := store.NewMemOrders()
	orders.Add(store.MemOrder{CustomerID: 1, At: now.AddDate(0, 0, -5), Lines: []store.MemOrderLine{
		{ProductID: 2, Quantity: 100},
	}})

	s := NewUpSell(catalog, orders, stats, DefaultUpSellConfig())
	s.now = func() time.Time { return now }

	items, err := s.Recommend(context.Background(), &core.RecommendContext{ProductID: 1})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) != 1 || items[0].ID != 2 {
		t.Fatalf("got %v, want [2]", itemIDs(items))
	}

	// 类目 1.0；价格：最优比率 1.55、半宽 0.45，比率 1.5 → 1-0.05/0.45
	// 质量：评分 5/5*0.4 + 评论 50/50*0.3 + 销量 100/100*0.3 = 1.0
	priceScore := 1 - 0.05/0.45
	want := 0.5*1.0 + 0.3*priceScore + 0.2*1.0
	if math.Abs(items[0].Score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", items[0].Score, want)
	}
}

func TestUpSell_PriceBandProperty(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	catalog := store.NewMemCatalog(
		testProduct(1, 100, []int64{1}, 0, nil),
		testProduct(2, 111, []int64{1}, 0, nil),
		testProduct(3, 199, []int64{1}, 0, nil),
		testProduct(4, 109, []int64{1}, 0, nil),
		testProduct(5, 201, []int64{1}, 0, nil),
	)
	s := NewUpSell(catalog, store.NewMemOrders(), store.NewMemStats(), DefaultUpSellConfig())
	s.now = func() time.Time { return now }

	items, err := s.Recommend(context.Background(), &core.RecommendContext{ProductID: 1})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	cfg := DefaultUpSellConfig()
	for _, it := range items {
		p, _ := catalog.GetProduct(context.Background(), it.ID)
		ratio := p.Price / 100
		if ratio < cfg.MinPriceIncrease || ratio > cfg.MaxPriceIncrease {
			t.Fatalf("candidate %d price ratio %v outside [%v, %v]",
				it.ID, ratio, cfg.MinPriceIncrease, cfg.MaxPriceIncrease)
		}
	}
	if len(items) != 2 {
		t.Fatalf("got %v, want exactly the in-band candidates [2 3]", itemIDs(items))
	}
}

// loosePriceCatalog 忽略价格上下界，模拟对价格区间不严格的实现。
type loosePriceCatalog struct{ *store.MemCatalog }

func (c *loosePriceCatalog) ListByCategories(
	ctx context.Context,
	categoryIDs []int64,
	_, _ float64,
	limit int,
) ([]*core.Product, error) {
	return c.MemCatalog.ListByCategories(ctx, categoryIDs, 0, 0, limit)
}

func TestUpSell_PriceBandSelfEnforced(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	catalog := &loosePriceCatalog{MemCatalog: store.NewMemCatalog(
		testProduct(1, 100, []int64{1}, 0, nil),
		testProduct(2, 150, []int64{1}, 0, nil), // 比率 1.5，区间内
		testProduct(3, 105, []int64{1}, 0, nil), // 比率 1.05，低于 1.1
		testProduct(4, 500, []int64{1}, 0, nil), // 比率 5.0，高于 2.0
	)}

	s := NewUpSell(catalog, store.NewMemOrders(), store.NewMemStats(), DefaultUpSellConfig())
	s.now = func() time.Time { return now }

	items, err := s.Recommend(context.Background(), &core.RecommendContext{ProductID: 1})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// 即便候选源对价格不设防，区间外的商品也不能只靠类目权重得分入选
	if len(items) != 1 || items[0].ID != 2 {
		t.Fatalf("got %v, want only the in-band candidate [2]", itemIDs(items))
	}
}

func TestUpSell_MissingInput(t *testing.T) {
	s := NewUpSell(store.NewMemCatalog(), store.NewMemOrders(), store.NewMemStats(), DefaultUpSellConfig())

	items, err := s.Recommend(context.Background(), &core.RecommendContext{})
	if err != nil || len(items) != 0 {
		t.Fatalf("no product: items=%v err=%v", itemIDs(items), err)
	}
	items, err = s.Recommend(context.Background(), &core.RecommendContext{ProductID: 404})
	if err != nil || len(items) != 0 {
		t.Fatalf("missing product: items=%v err=%v", itemIDs(items), err)
	}
}

func TestUpSellQualityScore_Caps(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	stats := store.NewMemStats()
	stats.SetReview(2, 4.0, 500) // 评论数按 50 封顶
	orders := store.NewMemOrders()
	orders.Add(store.MemOrder{CustomerID: 1, At: now.AddDate(0, 0, -5), Lines: []store.MemOrderLine{
		{ProductID: 2, Quantity: 9999}, // 销量按 100 封顶
	}})

	s := NewUpSell(store.NewMemCatalog(), orders, stats, DefaultUpSellConfig())
	s.now = func() time.Time { return now }

	reviews, _ := stats.ReviewStats(context.Background(), []int64{2})
	got := s.qualityScore(context.Background(), 2, reviews[2], now.AddDate(0, 0, -90), DefaultUpSellConfig().QualityWeights)
	want := 0.4*(4.0/5) + 0.3*1.0 + 0.3*1.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("quality score = %v, want %v", got, want)
	}
}
