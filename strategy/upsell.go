package strategy

import (
	"context"
	"math"
	"time"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pkg/simmath"
	"github.com/goleaf/shoprec/pkg/utils"
)

// 向上销售三个维度的固定混合权重。
const (
	upSellCategoryWeight = 0.5
	upSellPriceWeight    = 0.3
	upSellQualityWeight  = 0.2
)

// QualityWeights 质量分的三个子权重。
type QualityWeights struct {
	Rating  float64 `yaml:"rating" json:"rating"`
	Reviews float64 `yaml:"reviews" json:"reviews"`
	Sales   float64 `yaml:"sales" json:"sales"`
}

// UpSellConfig 向上销售策略配置。
type UpSellConfig struct {
	MaxResults int     `yaml:"max_results" json:"max_results"`
	MinScore   float64 `yaml:"min_score" json:"min_score"`

	// 候选价格区间：目标价的 [MinPriceIncrease, MaxPriceIncrease] 倍
	MinPriceIncrease float64 `yaml:"min_price_increase" json:"min_price_increase"`
	MaxPriceIncrease float64 `yaml:"max_price_increase" json:"max_price_increase"`

	QualityWeights QualityWeights `yaml:"quality_weights" json:"quality_weights"`
	// SalesWindowDays 质量分中销量统计的时间窗口（天）
	SalesWindowDays int `yaml:"sales_window_days" json:"sales_window_days"`
}

func DefaultUpSellConfig() UpSellConfig {
	return UpSellConfig{
		MaxResults:       10,
		MinScore:         0.1,
		MinPriceIncrease: 1.1,
		MaxPriceIncrease: 2.0,
		QualityWeights:   QualityWeights{Rating: 0.4, Reviews: 0.3, Sales: 0.3},
		SalesWindowDays:  90,
	}
}

func (c UpSellConfig) withDefaults() UpSellConfig {
	def := DefaultUpSellConfig()
	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	if c.MinScore <= 0 {
		c.MinScore = def.MinScore
	}
	if c.MinPriceIncrease <= 0 {
		c.MinPriceIncrease = def.MinPriceIncrease
	}
	if c.MaxPriceIncrease <= 0 {
		c.MaxPriceIncrease = def.MaxPriceIncrease
	}
	if c.QualityWeights == (QualityWeights{}) {
		c.QualityWeights = def.QualityWeights
	}
	if c.SalesWindowDays <= 0 {
		c.SalesWindowDays = def.SalesWindowDays
	}
	return c
}

// UpSell 推荐同类目里更高端的替代商品：
//   - 候选限定为与目标共享类目、价格在目标价 1.1~2.0 倍的可见商品
//   - 类目关联（Jaccard）权重 0.5，价格定位权重 0.3，质量分权重 0.2
//   - 价格定位以区间中点为最优，向两端线性衰减
//   - 质量分 = 评分/5*0.4 + min(评论数,50)/50*0.3 + min(90 天销量,100)/100*0.3
type UpSell struct {
	Catalog core.CatalogStore
	Orders  core.OrderStore
	Stats   core.StatsStore
	Config  UpSellConfig

	now func() time.Time
}

func NewUpSell(catalog core.CatalogStore, orders core.OrderStore, stats core.StatsStore, cfg UpSellConfig) *UpSell {
	return &UpSell{
		Catalog: catalog,
		Orders:  orders,
		Stats:   stats,
		Config:  cfg.withDefaults(),
		now:     time.Now,
	}
}

func (s *UpSell) Name() string { return core.AlgorithmUpSell }

func (s *UpSell) Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
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
	if target.Price <= 0 || len(target.CategoryIDs) == 0 {
		return nil, nil
	}

	candidates, err := s.Catalog.ListByCategories(
		ctx, target.CategoryIDs,
		target.Price*cfg.MinPriceIncrease, target.Price*cfg.MaxPriceIncrease, 0)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		if c.ID != target.ID {
			ids = append(ids, c.ID)
		}
	}
	reviews, err := s.Stats.ReviewStats(ctx, ids)
	if err != nil {
		return nil, err
	}
	salesSince := s.now().AddDate(0, 0, -cfg.SalesWindowDays)

	optimal := (cfg.MinPriceIncrease + cfg.MaxPriceIncrease) / 2
	halfSpan := (cfg.MaxPriceIncrease - cfg.MinPriceIncrease) / 2

	scored := make([]*core.Item, 0, len(candidates))
	for _, cand := range candidates {
		if cand.ID == target.ID || !cand.Visible || !target.SharesCategory(cand) {
			continue
		}
		// 价格区间在打分前自查一次，不依赖 ListByCategories 的实现
		ratio := cand.Price / target.Price
		if ratio < cfg.MinPriceIncrease || ratio > cfg.MaxPriceIncrease {
			continue
		}

		catScore := simmath.JaccardIndex(target.CategoryIDs, cand.CategoryIDs)

		priceScore := 1.0
		if halfSpan > 0 {
			priceScore = math.Max(0, 1-math.Abs(ratio-optimal)/halfSpan)
		}

		qualityScore := s.qualityScore(ctx, cand.ID, reviews[cand.ID], salesSince, cfg.QualityWeights)

		score := upSellCategoryWeight*catScore +
			upSellPriceWeight*priceScore +
			upSellQualityWeight*qualityScore
		if score < cfg.MinScore {
			continue
		}

		it := core.NewItem(cand.ID)
		it.Score = score
		it.PutSubScore("category", catScore)
		it.PutSubScore("price", priceScore)
		it.PutSubScore("quality", qualityScore)
		it.PutLabel("recall_source", utils.Label{Value: "premium_alternative", Source: s.Name()})
		scored = append(scored, it)
	}
	sortItems(scored)
	return truncateItems(scored, cfg.MaxResults), nil
}

// qualityScore 计算候选的质量分；销量读取失败按 0 处理，不阻断打分。
func (s *UpSell) qualityScore(
	ctx context.Context,
	productID int64,
	review *core.ReviewStat,
	salesSince time.Time,
	w QualityWeights,
) float64 {
	var avgRating float64
	var reviewCount int
	if review != nil {
		avgRating = review.AvgRating
		reviewCount = review.Count
	}

	sales, err := s.Orders.SalesQuantity(ctx, productID, salesSince)
	if err != nil {
		sales = 0
	}

	return w.Rating*(avgRating/5) +
		w.Reviews*math.Min(float64(reviewCount), 50)/50 +
		w.Sales*math.Min(float64(sales), 100)/100
}
