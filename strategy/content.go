package strategy

import (
	"context"
	"time"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/feature"
	"github.com/goleaf/shoprec/pkg/simmath"
	"github.com/goleaf/shoprec/pkg/utils"
)

// ContentWeights 控制内容相似四个维度的混合权重。
type ContentWeights struct {
	Category   float64 `yaml:"category" json:"category"`
	Brand      float64 `yaml:"brand" json:"brand"`
	PriceRange float64 `yaml:"price_range" json:"price_range"`
	Attributes float64 `yaml:"attributes" json:"attributes"`
}

// ContentBasedConfig 内容相似策略配置。
type ContentBasedConfig struct {
	MaxResults int     `yaml:"max_results" json:"max_results"`
	MinScore   float64 `yaml:"min_score" json:"min_score"`

	// UseCachedSimilarities 为 true 时优先读取预计算的相似度记录
	UseCachedSimilarities bool `yaml:"use_cached_similarities" json:"use_cached_similarities"`
	// RecalculateThresholdDays 预计算记录的新鲜度阈值（天）
	RecalculateThresholdDays int `yaml:"recalculate_threshold_days" json:"recalculate_threshold_days"`

	Weights ContentWeights `yaml:"weights" json:"weights"`
}

// DefaultContentBasedConfig 返回默认配置，调用方在其上覆盖字段即可。
func DefaultContentBasedConfig() ContentBasedConfig {
	return ContentBasedConfig{
		MaxResults:               10,
		MinScore:                 0.1,
		UseCachedSimilarities:    true,
		RecalculateThresholdDays: 7,
		Weights: ContentWeights{
			Category:   0.4,
			Brand:      0.3,
			PriceRange: 0.2,
			Attributes: 0.1,
		},
	}
}

func (c ContentBasedConfig) withDefaults() ContentBasedConfig {
	def := DefaultContentBasedConfig()
	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	if c.MinScore <= 0 {
		c.MinScore = def.MinScore
	}
	if c.RecalculateThresholdDays <= 0 {
		c.RecalculateThresholdDays = def.RecalculateThresholdDays
	}
	w := c.Weights
	if w.Category == 0 && w.Brand == 0 && w.PriceRange == 0 && w.Attributes == 0 {
		c.Weights = def.Weights
	}
	return c
}

// ContentBased 基于商品内容特征（类目/品牌/价格档位/属性）计算相似商品。
//
// 打分逻辑：
//   - 类目、属性取特征向量上的 Jaccard 指数
//   - 品牌、价格档位是 0/1 的二元匹配
//   - 四个子分按配置权重加权，除以权重和（某维度权重为 0 则不计入分母）
type ContentBased struct {
	Catalog core.CatalogStore
	// Similarities 可选：提供预计算相似度的读取与回写
	Similarities core.SimilarityStore
	Config       ContentBasedConfig

	now func() time.Time
}

func NewContentBased(catalog core.CatalogStore, sims core.SimilarityStore, cfg ContentBasedConfig) *ContentBased {
	return &ContentBased{
		Catalog:      catalog,
		Similarities: sims,
		Config:       cfg.withDefaults(),
		now:          time.Now,
	}
}

func (s *ContentBased) Name() string { return core.AlgorithmContentBased }

func (s *ContentBased) Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.ProductID == 0 {
		return nil, nil
	}
	target, err := s.Catalog.GetProduct(ctx, rctx.ProductID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	cfg := s.Config.withDefaults()

	// 先走预计算相似度；读失败或记录过期一律视为 miss，落到在线计算
	if cfg.UseCachedSimilarities && s.Similarities != nil {
		if items := s.fromCachedSimilarities(ctx, target, cfg); len(items) > 0 {
			return items, nil
		}
	}

	return s.liveScore(ctx, rctx, target, cfg)
}

func (s *ContentBased) fromCachedSimilarities(ctx context.Context, target *core.Product, cfg ContentBasedConfig) []*core.Item {
	freshSince := s.now().AddDate(0, 0, -cfg.RecalculateThresholdDays)
	records, err := s.Similarities.TopSimilar(
		ctx, target.ID, core.AlgorithmContentBased, cfg.MinScore, freshSince, cfg.MaxResults)
	if err != nil || len(records) == 0 {
		return nil
	}

	items := make([]*core.Item, 0, len(records))
	for _, rec := range records {
		if rec.SimilarProductID == target.ID {
			continue
		}
		it := core.NewItem(rec.SimilarProductID)
		it.Score = rec.Score
		it.PutLabel("recall_source", utils.Label{Value: "similarity_cache", Source: s.Name()})
		items = append(items, it)
	}
	out, err := hydrateVisible(ctx, s.Catalog, items)
	if err != nil {
		return nil
	}
	return out
}

func (s *ContentBased) liveScore(
	ctx context.Context,
	rctx *core.RecommendContext,
	target *core.Product,
	cfg ContentBasedConfig,
) ([]*core.Item, error) {
	targetFeatures := feature.Extract(target)

	candidates, err := s.Catalog.ListVisible(ctx)
	if err != nil {
		return nil, err
	}
	candidates = core.ApplyFilters(ctx, rctx, rctx.Filters, candidates)

	scored := make([]*core.Item, 0, len(candidates))
	for _, cand := range candidates {
		if cand.ID == target.ID {
			continue
		}
		score, subs := blendContentScore(targetFeatures, feature.Extract(cand), cfg.Weights)
		if score < cfg.MinScore {
			continue
		}
		it := core.NewItem(cand.ID)
		it.Score = score
		for k, v := range subs {
			it.PutSubScore(k, v)
		}
		it.PutLabel("recall_source", utils.Label{Value: "live", Source: s.Name()})
		scored = append(scored, it)
	}
	sortItems(scored)

	// 回写预计算相似度：按名次近似为 1.0 - rank*0.1，钳制到 [0,1]。
	// 写失败不影响本次推荐。
	if s.Similarities != nil && len(scored) > 0 {
		now := s.now()
		records := make([]*core.SimilarityRecord, 0, len(scored))
		for rank, it := range scored {
			records = append(records, &core.SimilarityRecord{
				ProductID:        target.ID,
				SimilarProductID: it.ID,
				Algorithm:        core.AlgorithmContentBased,
				Score:            clamp01(1.0 - float64(rank)*0.1),
				CalculatedAt:     now,
			})
		}
		_ = s.Similarities.UpsertSimilarities(ctx, records)
	}

	return truncateItems(scored, cfg.MaxResults), nil
}

// blendContentScore 计算两个特征向量的内容相似分和各维度子分。
//
// 注意：类目子分是预加权的 Jaccard（Jaccard * 类目权重），混合时会再乘一次
// 权重。这是沿用线上的打分口径：类目 Jaccard 1/3、默认权重下类目贡献为
// 1/3 * 0.4 * 0.4 ≈ 0.0532，不是 1/3 * 0.4。改动它会让历史相似度不可比。
func blendContentScore(a, b map[string]float64, w ContentWeights) (float64, map[string]float64) {
	subs := map[string]float64{
		"category":    simmath.JaccardKeys(a, b, feature.PrefixCategory) * w.Category,
		"brand":       0,
		"price_range": 0,
		"attributes":  simmath.JaccardKeys(a, b, feature.PrefixAttribute),
	}
	if simmath.HasSharedKey(a, b, feature.PrefixBrand) {
		subs["brand"] = 1
	}
	if simmath.HasSharedKey(a, b, feature.PrefixPriceRange) {
		subs["price_range"] = 1
	}

	var total, weightSum float64
	add := func(score, weight float64) {
		if weight <= 0 {
			return
		}
		total += score * weight
		weightSum += weight
	}
	add(subs["category"], w.Category)
	add(subs["brand"], w.Brand)
	add(subs["price_range"], w.PriceRange)
	add(subs["attributes"], w.Attributes)

	if weightSum == 0 {
		return 0, subs
	}
	return total / weightSum, subs
}
