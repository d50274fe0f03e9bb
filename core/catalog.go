package core

import (
	"context"
	"time"
)

// 算法名称常量。封闭集合：Hybrid 的子算法选择、缓存指纹与
// SimilarityRecord.Algorithm 都只使用这些值。
const (
	AlgorithmContentBased  = "content_based"
	AlgorithmCollaborative = "collaborative"
	AlgorithmCrossSell     = "cross_sell"
	AlgorithmUpSell        = "up_sell"
	AlgorithmPopularity    = "popularity"
	AlgorithmTrending      = "trending"
	AlgorithmHybrid        = "hybrid"
)

// SimilarityRecord 是一条预计算的商品相似度记录。
// 以 (ProductID, SimilarProductID, Algorithm) 为冲突键 upsert，
// 重算时原地更新；允许不存在（miss 时回退到在线计算）。
type SimilarityRecord struct {
	ProductID        int64
	SimilarProductID int64
	Algorithm        string
	Score            float64 // 取值范围 [0,1]
	CalculatedAt     time.Time
}

// CoPurchaseStat 是一个商品与目标商品的同单共现统计。
type CoPurchaseStat struct {
	ProductID       int64
	Count           int     // 同单共现次数
	AvgQuantity     float64 // 平均购买数量
	UniqueCustomers int     // 去重客户数
}

// CoPurchasePair 是一对商品的共现统计（分析报表用途）。
type CoPurchasePair struct {
	ProductA int64
	ProductB int64
	Count    int
}

// ActivityStat 是商品在某时间窗口内的活动计数。
type ActivityStat struct {
	Sales     int
	Views     int
	Reviews   int
	Wishlists int
}

// Total 返回窗口内的总活动量，用于趋势推荐的最小活跃度门槛。
func (s *ActivityStat) Total() int {
	return s.Sales + s.Views + s.Reviews + s.Wishlists
}

// ReviewStat 是商品的评论聚合。
type ReviewStat struct {
	AvgRating float64 // 1-5 分制
	Count     int
}

// CatalogStore 是商品目录的领域接口，由宿主系统实现（gorm/内存等）。
// 打分引擎只读取商品，从不修改。
type CatalogStore interface {
	// GetProduct 按 ID 读取商品，不存在时返回 NOT_FOUND 领域错误。
	GetProduct(ctx context.Context, id int64) (*Product, error)

	// GetProducts 批量读取，缺失的 ID 不出现在结果中。
	GetProducts(ctx context.Context, ids []int64) (map[int64]*Product, error)

	// ListVisible 返回所有可见商品（内容推荐的候选全集）。
	ListVisible(ctx context.Context) ([]*Product, error)

	// ListByCategories 返回属于任一给定类目、价格在 [minPrice, maxPrice]
	// 内的可见商品；minPrice/maxPrice 为 0 表示不限，limit <= 0 表示不限。
	ListByCategories(ctx context.Context, categoryIDs []int64, minPrice, maxPrice float64, limit int) ([]*Product, error)
}

// InteractionStore 是交互历史的领域接口。
type InteractionStore interface {
	// UserRatings 返回用户交互过的商品评分映射（Count >= minCount）。
	// 每个商品一条评分：取该商品上权重最高的交互类型的 Rating。
	UserRatings(ctx context.Context, userID int64, minCount int) (map[int64]float64, error)

	// UserInteractions 返回用户的全部交互记录（Count >= minCount）。
	UserInteractions(ctx context.Context, userID int64, minCount int) ([]*Interaction, error)

	// UsersForProducts 返回与任一给定商品有过交互（Count >= minCount）的用户 ID。
	UsersForProducts(ctx context.Context, productIDs []int64, minCount int) ([]int64, error)

	// UpsertInteraction 写入或递增一条交互记录：
	// 不存在则创建（Count=1），存在则 Count+1、Rating 覆盖、LastAt 更新。
	UpsertInteraction(ctx context.Context, userID, productID int64, typ InteractionType, rating float64) error
}

// OrderStore 是订单数据的领域接口，只统计 completed/delivered 状态的订单。
type OrderStore interface {
	// CoPurchases 统计自 since 起与目标商品同单出现的其他商品。
	CoPurchases(ctx context.Context, productID int64, since time.Time) ([]*CoPurchaseStat, error)

	// TopCoPurchasePairs 返回共现次数最高的商品对（降序）。
	TopCoPurchasePairs(ctx context.Context, since time.Time, limit int) ([]*CoPurchasePair, error)

	// SalesQuantity 返回商品自 since 起的销量合计。
	SalesQuantity(ctx context.Context, productID int64, since time.Time) (int, error)
}

// StatsStore 是活动/评论聚合的领域接口，供热门与趋势推荐使用。
type StatsStore interface {
	// ActivityWindow 返回 [from, to) 窗口内每个商品的活动计数。
	ActivityWindow(ctx context.Context, from, to time.Time) (map[int64]*ActivityStat, error)

	// ReviewStats 返回商品的评论聚合，无评论的商品不出现在结果中。
	ReviewStats(ctx context.Context, productIDs []int64) (map[int64]*ReviewStat, error)
}

// SimilarityStore 是预计算相似度的领域接口（可选缓存层）。
type SimilarityStore interface {
	// TopSimilar 返回指定算法下的相似商品记录：Score >= minScore、
	// CalculatedAt 晚于 freshSince，按 Score 降序，最多 limit 条。
	TopSimilar(ctx context.Context, productID int64, algorithm string, minScore float64, freshSince time.Time, limit int) ([]*SimilarityRecord, error)

	// UpsertSimilarities 按 (ProductID, SimilarProductID, Algorithm) 冲突键批量 upsert。
	UpsertSimilarities(ctx context.Context, records []*SimilarityRecord) error
}

// Catalog 错误定义。
var ErrProductNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: product not found")
