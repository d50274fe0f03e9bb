package strategy

import (
	"context"
	"strconv"
	"time"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pkg/utils"
)

// ActivityWeights 活动计数的加权配置，热门与趋势共用。
type ActivityWeights struct {
	Sales     float64 `yaml:"sales" json:"sales"`
	Views     float64 `yaml:"views" json:"views"`
	Reviews   float64 `yaml:"reviews" json:"reviews"`
	Wishlists float64 `yaml:"wishlists" json:"wishlists"`
}

func DefaultActivityWeights() ActivityWeights {
	return ActivityWeights{Sales: 0.5, Views: 0.2, Reviews: 0.2, Wishlists: 0.1}
}

// Score 计算一个活动窗口的加权分。
func (w ActivityWeights) Score(st *core.ActivityStat) float64 {
	if st == nil {
		return 0
	}
	return w.Sales*float64(st.Sales) +
		w.Views*float64(st.Views) +
		w.Reviews*float64(st.Reviews) +
		w.Wishlists*float64(st.Wishlists)
}

// PopularityConfig 热门策略配置。
type PopularityConfig struct {
	MaxResults     int `yaml:"max_results" json:"max_results"`
	TimeWindowDays int `yaml:"time_window_days" json:"time_window_days"`

	Weights ActivityWeights `yaml:"weights" json:"weights"`

	// 活动门槛：窗口内销量/评论数低于门槛的商品不参与排序
	MinSalesCount  int `yaml:"min_sales_count" json:"min_sales_count"`
	MinReviewCount int `yaml:"min_review_count" json:"min_review_count"`
}

func DefaultPopularityConfig() PopularityConfig {
	return PopularityConfig{
		MaxResults:     10,
		TimeWindowDays: 30,
		Weights:        DefaultActivityWeights(),
	}
}

func (c PopularityConfig) withDefaults() PopularityConfig {
	def := DefaultPopularityConfig()
	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	if c.TimeWindowDays <= 0 {
		c.TimeWindowDays = def.TimeWindowDays
	}
	if c.Weights == (ActivityWeights{}) {
		c.Weights = def.Weights
	}
	return c
}

// Popularity 按时间窗口内的活动量（销量/浏览/评论/心愿单）加权排序。
// 不依赖用户画像，是 Hybrid 的首选 fallback。
type Popularity struct {
	Catalog core.CatalogStore
	Stats   core.StatsStore
	Config  PopularityConfig

	now func() time.Time
}

func NewPopularity(catalog core.CatalogStore, stats core.StatsStore, cfg PopularityConfig) *Popularity {
	return &Popularity{
		Catalog: catalog,
		Stats:   stats,
		Config:  cfg.withDefaults(),
		now:     time.Now,
	}
}

func (s *Popularity) Name() string { return core.AlgorithmPopularity }

func (s *Popularity) Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	cfg := s.Config.withDefaults()
	to := s.now()
	from := to.AddDate(0, 0, -cfg.TimeWindowDays)

	stats, err := s.Stats.ActivityWindow(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var excludeID int64
	if rctx != nil {
		excludeID = rctx.ProductID
	}

	scored := make([]*core.Item, 0, len(stats))
	for pid, st := range stats {
		if pid == excludeID {
			continue
		}
		if st.Sales < cfg.MinSalesCount || st.Reviews < cfg.MinReviewCount {
			continue
		}
		score := cfg.Weights.Score(st)
		if score <= 0 {
			continue
		}
		it := core.NewItem(pid)
		it.Score = score
		it.PutSubScore("sales", float64(st.Sales))
		it.PutSubScore("views", float64(st.Views))
		it.PutLabel("recall_source", utils.Label{Value: "popularity_window", Source: s.Name()})
		scored = append(scored, it)
	}
	sortItems(scored)

	scored, err = hydrateVisible(ctx, s.Catalog, scored)
	if err != nil {
		return nil, err
	}
	return truncateItems(scored, cfg.MaxResults), nil
}

// SaveSnapshot 把当前热门榜写入有序集合（member 为商品 ID，score 为热度），
// 供离线任务定期刷新、线上低成本读取。
func (s *Popularity) SaveSnapshot(ctx context.Context, kv core.KeyValueStore, key string) error {
	items, err := s.Recommend(ctx, nil)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := kv.ZAdd(ctx, key, it.Score, strconv.FormatInt(it.ID, 10)); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot 从有序集合读取热门榜（分数降序），limit <= 0 表示读全部。
// 解析不了的 member 跳过；key 不存在时返回空结果。
func LoadSnapshot(ctx context.Context, kv core.KeyValueStore, key string, limit int) ([]*core.Item, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	members, err := kv.ZRange(ctx, key, 0, stop)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	items := make([]*core.Item, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		it := core.NewItem(id)
		if score, err := kv.ZScore(ctx, key, member); err == nil {
			it.Score = score
		}
		it.PutLabel("recall_source", utils.Label{Value: "popularity_snapshot", Source: core.AlgorithmPopularity})
		items = append(items, it)
	}
	return items, nil
}

// TrendingConfig 趋势策略配置。
type TrendingConfig struct {
	MaxResults     int `yaml:"max_results" json:"max_results"`
	TimeWindowDays int `yaml:"time_window_days" json:"time_window_days"`

	// NewProductThresholdDays 内上架的商品享受 1.5 倍新品加成
	NewProductThresholdDays int `yaml:"new_product_threshold_days" json:"new_product_threshold_days"`
	// MinRecentActivity 近窗口总活动量门槛
	MinRecentActivity int `yaml:"min_recent_activity" json:"min_recent_activity"`

	Weights ActivityWeights `yaml:"weights" json:"weights"`
}

func DefaultTrendingConfig() TrendingConfig {
	return TrendingConfig{
		MaxResults:              10,
		TimeWindowDays:          7,
		NewProductThresholdDays: 30,
		MinRecentActivity:       3,
		Weights:                 DefaultActivityWeights(),
	}
}

func (c TrendingConfig) withDefaults() TrendingConfig {
	def := DefaultTrendingConfig()
	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	if c.TimeWindowDays <= 0 {
		c.TimeWindowDays = def.TimeWindowDays
	}
	if c.NewProductThresholdDays <= 0 {
		c.NewProductThresholdDays = def.NewProductThresholdDays
	}
	if c.MinRecentActivity <= 0 {
		c.MinRecentActivity = def.MinRecentActivity
	}
	if c.Weights == (ActivityWeights{}) {
		c.Weights = def.Weights
	}
	return c
}

// Trending 比较相邻两个时间窗口的活动量，突出上升势头的商品：
//
//	score = 近窗口加权分 + max(近窗口 - 前窗口, 0)
//
// 近 NewProductThresholdDays 天上架的新品再乘 1.5。
type Trending struct {
	Catalog core.CatalogStore
	Stats   core.StatsStore
	Config  TrendingConfig

	now func() time.Time
}

func NewTrending(catalog core.CatalogStore, stats core.StatsStore, cfg TrendingConfig) *Trending {
	return &Trending{
		Catalog: catalog,
		Stats:   stats,
		Config:  cfg.withDefaults(),
		now:     time.Now,
	}
}

func (s *Trending) Name() string { return core.AlgorithmTrending }

func (s *Trending) Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	cfg := s.Config.withDefaults()
	now := s.now()
	recentFrom := now.AddDate(0, 0, -cfg.TimeWindowDays)
	prevFrom := now.AddDate(0, 0, -2*cfg.TimeWindowDays)

	recent, err := s.Stats.ActivityWindow(ctx, recentFrom, now)
	if err != nil {
		return nil, err
	}
	previous, err := s.Stats.ActivityWindow(ctx, prevFrom, recentFrom)
	if err != nil {
		return nil, err
	}

	var excludeID int64
	if rctx != nil {
		excludeID = rctx.ProductID
	}

	type rawScore struct {
		id    int64
		score float64
	}
	raws := make([]rawScore, 0, len(recent))
	ids := make([]int64, 0, len(recent))
	for pid, st := range recent {
		if pid == excludeID || st.Total() < cfg.MinRecentActivity {
			continue
		}
		recentScore := cfg.Weights.Score(st)
		momentum := recentScore - cfg.Weights.Score(previous[pid])
		if momentum < 0 {
			momentum = 0
		}
		raws = append(raws, rawScore{id: pid, score: recentScore + momentum})
		ids = append(ids, pid)
	}

	products, err := s.Catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	newSince := now.AddDate(0, 0, -cfg.NewProductThresholdDays)

	scored := make([]*core.Item, 0, len(raws))
	for _, raw := range raws {
		p, ok := products[raw.id]
		if !ok || !p.Visible {
			continue
		}
		it := core.NewItem(raw.id)
		it.Score = raw.score
		if p.CreatedAt.After(newSince) {
			it.Score *= 1.5
			it.PutLabel("trending_new", utils.Label{Value: "true", Source: s.Name()})
		}
		it.PutLabel("recall_source", utils.Label{Value: "trending_window", Source: s.Name()})
		scored = append(scored, it)
	}
	sortItems(scored)
	return truncateItems(scored, cfg.MaxResults), nil
}
