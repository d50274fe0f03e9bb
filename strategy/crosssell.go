package strategy

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pkg/simmath"
	"github.com/goleaf/shoprec/pkg/utils"
)

// 交叉销售三个维度的固定混合权重。
const (
	crossSellCoPurchaseWeight = 0.6
	crossSellCategoryWeight   = 0.3
	crossSellPriceWeight      = 0.1
)

// CrossSellConfig 交叉销售策略配置。
type CrossSellConfig struct {
	MaxResults int     `yaml:"max_results" json:"max_results"`
	MinScore   float64 `yaml:"min_score" json:"min_score"`

	// TimeWindowDays 统计共同购买的时间窗口（天）
	TimeWindowDays int `yaml:"time_window_days" json:"time_window_days"`
	// MinCoPurchaseCount 候选纳入打分的最小共现次数
	MinCoPurchaseCount int `yaml:"min_co_purchase_count" json:"min_co_purchase_count"`

	// 价格兼容区间：候选价 / 目标价 落在 [MinPriceRatio, MaxPriceRatio] 之外记 0 分
	MinPriceRatio float64 `yaml:"min_price_ratio" json:"min_price_ratio"`
	MaxPriceRatio float64 `yaml:"max_price_ratio" json:"max_price_ratio"`
}

func DefaultCrossSellConfig() CrossSellConfig {
	return CrossSellConfig{
		MaxResults:         10,
		MinScore:           0.1,
		TimeWindowDays:     90,
		MinCoPurchaseCount: 2,
		MinPriceRatio:      0.5,
		MaxPriceRatio:      2.0,
	}
}

func (c CrossSellConfig) withDefaults() CrossSellConfig {
	def := DefaultCrossSellConfig()
	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	if c.MinScore <= 0 {
		c.MinScore = def.MinScore
	}
	if c.TimeWindowDays <= 0 {
		c.TimeWindowDays = def.TimeWindowDays
	}
	if c.MinCoPurchaseCount <= 0 {
		c.MinCoPurchaseCount = def.MinCoPurchaseCount
	}
	if c.MinPriceRatio <= 0 {
		c.MinPriceRatio = def.MinPriceRatio
	}
	if c.MaxPriceRatio <= 0 {
		c.MaxPriceRatio = def.MaxPriceRatio
	}
	return c
}

// CrossSell 基于同单共现的交叉销售推荐（"买了 X 的人还买了 Y"）：
//   - 共同购买强度：0.7*min(次数/10,1) + 0.3*min(去重客户/5,1)，权重 0.6
//   - 类目关联：类目集合 Jaccard，权重 0.3
//   - 价格兼容：比率在区间内随偏离线性衰减，权重 0.1
//
// 只有在原始共现数据完全为空时才回退到同类目候选（零分 + fallback 标签）。
type CrossSell struct {
	Catalog core.CatalogStore
	Orders  core.OrderStore
	Config  CrossSellConfig

	now func() time.Time
}

func NewCrossSell(catalog core.CatalogStore, orders core.OrderStore, cfg CrossSellConfig) *CrossSell {
	return &CrossSell{
		Catalog: catalog,
		Orders:  orders,
		Config:  cfg.withDefaults(),
		now:     time.Now,
	}
}

func (s *CrossSell) Name() string { return core.AlgorithmCrossSell }

func (s *CrossSell) Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
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

	since := s.now().AddDate(0, 0, -cfg.TimeWindowDays)
	stats, err := s.Orders.CoPurchases(ctx, target.ID, since)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return s.categoryFallback(ctx, target, cfg)
	}

	candidates := make([]*core.CoPurchaseStat, 0, len(stats))
	ids := make([]int64, 0, len(stats))
	for _, st := range stats {
		if st.Count < cfg.MinCoPurchaseCount || st.ProductID == target.ID {
			continue
		}
		candidates = append(candidates, st)
		ids = append(ids, st.ProductID)
	}
	products, err := s.Catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	scored := make([]*core.Item, 0, len(candidates))
	for _, st := range candidates {
		cand, ok := products[st.ProductID]
		if !ok || !cand.Visible {
			continue
		}

		coScore := 0.7*math.Min(float64(st.Count)/10, 1) +
			0.3*math.Min(float64(st.UniqueCustomers)/5, 1)
		catScore := simmath.JaccardIndex(target.CategoryIDs, cand.CategoryIDs)
		priceScore := priceCompatibility(target.Price, cand.Price, cfg.MinPriceRatio, cfg.MaxPriceRatio)

		score := crossSellCoPurchaseWeight*coScore +
			crossSellCategoryWeight*catScore +
			crossSellPriceWeight*priceScore
		if score < cfg.MinScore {
			continue
		}

		it := core.NewItem(cand.ID)
		it.Score = score
		it.PutSubScore("co_purchase", coScore)
		it.PutSubScore("category", catScore)
		it.PutSubScore("price", priceScore)
		it.PutLabel("recall_source", utils.Label{Value: "co_purchase", Source: s.Name()})
		scored = append(scored, it)
	}
	sortItems(scored)
	return truncateItems(scored, cfg.MaxResults), nil
}

// categoryFallback 在没有任何共现数据时，从同类目、价格兼容的商品里随机取样。
// 结果分数为 0，带 fallback 标签，调用方据此区分。
func (s *CrossSell) categoryFallback(ctx context.Context, target *core.Product, cfg CrossSellConfig) ([]*core.Item, error) {
	if len(target.CategoryIDs) == 0 {
		return nil, nil
	}
	candidates, err := s.Catalog.ListByCategories(
		ctx, target.CategoryIDs,
		target.Price*cfg.MinPriceRatio, target.Price*cfg.MaxPriceRatio, 0)
	if err != nil {
		return nil, err
	}

	pool := make([]*core.Product, 0, len(candidates))
	for _, c := range candidates {
		if c.ID != target.ID {
			pool = append(pool, c)
		}
	}
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	items := make([]*core.Item, 0, cfg.MaxResults)
	for _, c := range pool {
		if len(items) >= cfg.MaxResults {
			break
		}
		it := core.NewItem(c.ID)
		it.PutLabel("fallback", utils.Label{Value: "category", Source: s.Name()})
		items = append(items, it)
	}
	return items, nil
}

// priceCompatibility 价格兼容分：比率 1.0 得满分，向区间两端线性衰减到 0。
func priceCompatibility(targetPrice, candPrice, minRatio, maxRatio float64) float64 {
	if targetPrice <= 0 {
		return 0
	}
	ratio := candPrice / targetPrice
	if ratio < minRatio || ratio > maxRatio {
		return 0
	}
	if ratio >= 1 {
		span := maxRatio - 1
		if span <= 0 {
			return 1
		}
		return 1 - (ratio-1)/span
	}
	span := 1 - minRatio
	if span <= 0 {
		return 1
	}
	return 1 - (1-ratio)/span
}

// TopPairs 返回窗口内共现次数最高的商品对，用于运营报表。
func (s *CrossSell) TopPairs(ctx context.Context, limit int) ([]*core.CoPurchasePair, error) {
	cfg := s.Config.withDefaults()
	since := s.now().AddDate(0, 0, -cfg.TimeWindowDays)
	return s.Orders.TopCoPurchasePairs(ctx, since, limit)
}

// PriceDistribution 是与某商品共同购买的商品的价格分布。
type PriceDistribution struct {
	Min    float64
	Max    float64
	Avg    float64
	Median float64
	Count  int
}

// CoPurchasePriceDistribution 统计与目标商品共同购买的商品价格分布。
func (s *CrossSell) CoPurchasePriceDistribution(ctx context.Context, productID int64) (*PriceDistribution, error) {
	cfg := s.Config.withDefaults()
	since := s.now().AddDate(0, 0, -cfg.TimeWindowDays)
	stats, err := s.Orders.CoPurchases(ctx, productID, since)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return &PriceDistribution{}, nil
	}

	ids := make([]int64, 0, len(stats))
	for _, st := range stats {
		ids = append(ids, st.ProductID)
	}
	products, err := s.Catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	prices := make([]float64, 0, len(products))
	for _, p := range products {
		prices = append(prices, p.Price)
	}
	if len(prices) == 0 {
		return &PriceDistribution{}, nil
	}
	sort.Float64s(prices)

	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	n := len(prices)
	median := prices[n/2]
	if n%2 == 0 {
		median = (prices[n/2-1] + prices[n/2]) / 2
	}
	return &PriceDistribution{
		Min:    prices[0],
		Max:    prices[n-1],
		Avg:    sum / float64(n),
		Median: median,
		Count:  n,
	}, nil
}
