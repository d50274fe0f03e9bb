package strategy

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/feature"
	"github.com/goleaf/shoprec/store"
)

func testProduct(id int64, price float64, categories []int64, brandID int64, attrs []int64) *core.Product {
	return &core.Product{
		ID:           id,
		Price:        price,
		CategoryIDs:  categories,
		BrandID:      brandID,
		AttributeIDs: attrs,
		Visible:      true,
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBlendContentScore_WorkedExample(t *testing.T) {
	// P: 类目 {1,2}，品牌 5，价格 40（low 档）
	// Q: 类目 {2,3}，品牌 5，价格 45（low 档），双方均无属性
	p := testProduct(1, 40, []int64{1, 2}, 5, nil)
	q := testProduct(2, 45, []int64{2, 3}, 5, nil)

	weights := DefaultContentBasedConfig().Weights
	score, subs := blendContentScore(feature.Extract(p), feature.Extract(q), weights)

	// 类目贡献 1/3 * 0.4 * 0.4，品牌 0.3，价格档 0.2，属性 0，分母 1.0
	want := (1.0/3.0)*0.4*0.4 + 1.0*0.3 + 1.0*0.2
	if math.Abs(score-want) > 1e-9 {
		t.Fatalf("blended score = %v, want %v", score, want)
	}
	if math.Abs(score-0.5533) > 1e-3 {
		t.Fatalf("blended score = %v, want ~0.5533", score)
	}
	if subs["brand"] != 1.0 || subs["price_range"] != 1.0 || subs["attributes"] != 0 {
		t.Fatalf("unexpected sub scores: %v", subs)
	}
}

func TestBlendContentScore_ZeroWeights(t *testing.T) {
	p := testProduct(1, 40, []int64{1}, 5, nil)
	q := testProduct(2, 45, []int64{1}, 5, nil)

	score, _ := blendContentScore(feature.Extract(p), feature.Extract(q), ContentWeights{})
	if score != 0 {
		t.Fatalf("score with zero weights = %v, want 0", score)
	}
}

func TestContentBased_LiveScoring(t *testing.T) {
	target := testProduct(1, 40, []int64{1, 2}, 5, nil)
	catalog := store.NewMemCatalog(
		target,
		testProduct(2, 45, []int64{2, 3}, 5, nil),   // 0.5533
		testProduct(3, 45, []int64{1, 2}, 5, nil),   // 同类目同品牌同价档，更高分
		testProduct(4, 5000, []int64{9}, 99, nil),   // 无任何重合
		&core.Product{ID: 5, Price: 45, CategoryIDs: []int64{1, 2}, BrandID: 5, Visible: false},
	)

	cfg := DefaultContentBasedConfig()
	cfg.UseCachedSimilarities = false
	s := NewContentBased(catalog, nil, cfg)

	items, err := s.Recommend(context.Background(), &core.RecommendContext{ProductID: 1})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	// 商品 3 特征完全重合，应排第一；商品 5 不可见，商品 4 低于 minScore
	if items[0].ID != 3 || items[1].ID != 2 {
		t.Fatalf("got order [%d %d], want [3 2]", items[0].ID, items[1].ID)
	}
	for _, it := range items {
		if it.ID == target.ID {
			t.Fatalf("result contains the target product")
		}
		if it.Score < cfg.MinScore {
			t.Fatalf("item %d score %v below minScore", it.ID, it.Score)
		}
	}
}

func TestContentBased_MissingProduct(t *testing.T) {
	s := NewContentBased(store.NewMemCatalog(), nil, DefaultContentBasedConfig())

	items, err := s.Recommend(context.Background(), &core.RecommendContext{ProductID: 404})
	if err != nil {
		t.Fatalf("missing product should not be an error, got %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}

	items, err = s.Recommend(context.Background(), &core.RecommendContext{})
	if err != nil || len(items) != 0 {
		t.Fatalf("no product id: items=%v err=%v", items, err)
	}
}

func TestContentBased_CachedSimilarities(t *testing.T) {
	catalog := store.NewMemCatalog(
		testProduct(1, 40, []int64{1}, 5, nil),
		testProduct(2, 45, []int64{1}, 5, nil),
		testProduct(3, 50, []int64{1}, 5, nil),
	)
	sims := store.NewMemSimilarities()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_ = sims.UpsertSimilarities(context.Background(), []*core.SimilarityRecord{
		{ProductID: 1, SimilarProductID: 3, Algorithm: core.AlgorithmContentBased, Score: 0.9, CalculatedAt: now},
		{ProductID: 1, SimilarProductID: 2, Algorithm: core.AlgorithmContentBased, Score: 0.8, CalculatedAt: now},
	})

	s := NewContentBased(catalog, sims, DefaultContentBasedConfig())
	s.now = func() time.Time { return now }

	items, err := s.Recommend(context.Background(), &core.RecommendContext{ProductID: 1})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) != 2 || items[0].ID != 3 || items[1].ID != 2 {
		t.Fatalf("cached path returned %v, want [3 2]", itemIDs(items))
	}
	if items[0].Score != 0.9 {
		t.Fatalf("cached score = %v, want 0.9", items[0].Score)
	}
}

func TestContentBased_StaleSimilaritiesFallToLive(t *testing.T) {
	catalog := store.NewMemCatalog(
		testProduct(1, 40, []int64{1}, 5, nil),
		testProduct(2, 45, []int64{1}, 5, nil),
	)
	sims := store.NewMemSimilarities()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	stale := now.AddDate(0, 0, -30)
	_ = sims.UpsertSimilarities(context.Background(), []*core.SimilarityRecord{
		{ProductID: 1, SimilarProductID: 2, Algorithm: core.AlgorithmContentBased, Score: 0.01, CalculatedAt: stale},
	})

	s := NewContentBased(catalog, sims, DefaultContentBasedConfig())
	s.now = func() time.Time { return now }

	items, err := s.Recommend(context.Background(), &core.RecommendContext{ProductID: 1})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) != 1 || items[0].ID != 2 {
		t.Fatalf("got %v, want live-computed [2]", itemIDs(items))
	}
	// 在线计算后应以名次衰减分回写相似度
	fresh, _ := sims.TopSimilar(context.Background(), 1, core.AlgorithmContentBased, 0, now.AddDate(0, 0, -1), 10)
	if len(fresh) != 1 || fresh[0].Score != 1.0 {
		t.Fatalf("expected rank-decay upsert with score 1.0, got %+v", fresh)
	}
}

func itemIDs(items []*core.Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
