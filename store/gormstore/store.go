package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/goleaf/shoprec/core"
)

// 参与共现/销量统计的订单状态。
var countedOrderStatuses = []string{"completed", "delivered"}

// Open 连接 Postgres 并返回 gorm 句柄（静默 SQL 日志，观测走应用层）。
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// AutoMigrate 建表/补索引。仅建议在开发与测试环境使用。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ProductRow{},
		&InteractionRow{},
		&OrderRow{},
		&OrderItemRow{},
		&ActivityEventRow{},
		&ReviewRow{},
		&SimilarityRow{},
	)
}

// Catalog 是 core.CatalogStore 的 Postgres 实现。
type Catalog struct {
	DB *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog { return &Catalog{DB: db} }

func (s *Catalog) GetProduct(ctx context.Context, id int64) (*core.Product, error) {
	var row ProductRow
	err := s.DB.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toProduct(), nil
}

func (s *Catalog) GetProducts(ctx context.Context, ids []int64) (map[int64]*core.Product, error) {
	if len(ids) == 0 {
		return map[int64]*core.Product{}, nil
	}
	var rows []ProductRow
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]*core.Product, len(rows))
	for i := range rows {
		out[rows[i].ID] = rows[i].toProduct()
	}
	return out, nil
}

func (s *Catalog) ListVisible(ctx context.Context) ([]*core.Product, error) {
	var rows []ProductRow
	if err := s.DB.WithContext(ctx).Where("visible = ?", true).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

func (s *Catalog) ListByCategories(ctx context.Context, categoryIDs []int64, minPrice, maxPrice float64, limit int) ([]*core.Product, error) {
	q := s.DB.WithContext(ctx).Where("visible = ?", true)
	if len(categoryIDs) > 0 {
		// category_ids 是 JSON 数组列，用 jsonb 包含判断匹配任一类目
		sub := s.DB.Where("category_ids::jsonb @> to_jsonb(?::bigint)", categoryIDs[0])
		for _, id := range categoryIDs[1:] {
			sub = sub.Or("category_ids::jsonb @> to_jsonb(?::bigint)", id)
		}
		q = q.Where(sub)
	}
	if minPrice > 0 {
		q = q.Where("price >= ?", minPrice)
	}
	if maxPrice > 0 {
		q = q.Where("price <= ?", maxPrice)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []ProductRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

func toProducts(rows []ProductRow) []*core.Product {
	out := make([]*core.Product, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toProduct())
	}
	return out
}

// Interactions 是 core.InteractionStore 的 Postgres 实现。
type Interactions struct {
	DB *gorm.DB

	// TypeWeights 决定同一商品多种交互时取哪条评分，默认用内置权重表
	TypeWeights map[core.InteractionType]float64
}

func NewInteractions(db *gorm.DB) *Interactions {
	return &Interactions{DB: db, TypeWeights: core.DefaultInteractionWeights()}
}

func (s *Interactions) UserRatings(ctx context.Context, userID int64, minCount int) (map[int64]float64, error) {
	rows, err := s.UserInteractions(ctx, userID, minCount)
	if err != nil {
		return nil, err
	}
	weights := s.TypeWeights
	if weights == nil {
		weights = core.DefaultInteractionWeights()
	}
	best := make(map[int64]*core.Interaction, len(rows))
	for _, in := range rows {
		cur, ok := best[in.ProductID]
		if !ok || weights[in.Type] > weights[cur.Type] {
			best[in.ProductID] = in
		}
	}
	out := make(map[int64]float64, len(best))
	for pid, in := range best {
		out[pid] = in.Rating
	}
	return out, nil
}

func (s *Interactions) UserInteractions(ctx context.Context, userID int64, minCount int) ([]*core.Interaction, error) {
	if minCount <= 0 {
		minCount = 1
	}
	var rows []InteractionRow
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND count >= ?", userID, minCount).
		Order("product_id, type").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*core.Interaction, 0, len(rows))
	for i := range rows {
		r := rows[i]
		out = append(out, &core.Interaction{
			UserID:    r.UserID,
			ProductID: r.ProductID,
			Type:      core.InteractionType(r.Type),
			Rating:    r.Rating,
			Count:     r.Count,
			FirstAt:   r.FirstAt,
			LastAt:    r.LastAt,
		})
	}
	return out, nil
}

func (s *Interactions) UsersForProducts(ctx context.Context, productIDs []int64, minCount int) ([]int64, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	if minCount <= 0 {
		minCount = 1
	}
	var userIDs []int64
	err := s.DB.WithContext(ctx).
		Model(&InteractionRow{}).
		Distinct("user_id").
		Where("product_id IN ? AND count >= ?", productIDs, minCount).
		Order("user_id").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (s *Interactions) UpsertInteraction(ctx context.Context, userID, productID int64, typ core.InteractionType, rating float64) error {
	now := time.Now()
	row := InteractionRow{
		UserID:    userID,
		ProductID: productID,
		Type:      string(typ),
		Rating:    rating,
		Count:     1,
		FirstAt:   now,
		LastAt:    now,
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}, {Name: "type"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":   gorm.Expr("interactions.count + 1"),
			"rating":  rating,
			"last_at": now,
		}),
	}).Create(&row).Error
}

// Orders 是 core.OrderStore 的 Postgres 实现。
type Orders struct {
	DB *gorm.DB
}

func NewOrders(db *gorm.DB) *Orders { return &Orders{DB: db} }

func (s *Orders) CoPurchases(ctx context.Context, productID int64, since time.Time) ([]*core.CoPurchaseStat, error) {
	var rows []struct {
		ProductID       int64
		Count           int
		AvgQuantity     float64
		UniqueCustomers int
	}
	err := s.DB.WithContext(ctx).Raw(`
		SELECT oi2.product_id                    AS product_id,
		       COUNT(DISTINCT oi1.order_id)     AS count,
		       AVG(oi2.quantity)                AS avg_quantity,
		       COUNT(DISTINCT o.customer_id)    AS unique_customers
		FROM order_items oi1
		JOIN order_items oi2 ON oi2.order_id = oi1.order_id AND oi2.product_id <> oi1.product_id
		JOIN orders o        ON o.id = oi1.order_id
		WHERE oi1.product_id = ?
		  AND o.created_at >= ?
		  AND o.status IN ?
		GROUP BY oi2.product_id
		ORDER BY count DESC, oi2.product_id`,
		productID, since, countedOrderStatuses,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*core.CoPurchaseStat, 0, len(rows))
	for _, r := range rows {
		out = append(out, &core.CoPurchaseStat{
			ProductID:       r.ProductID,
			Count:           r.Count,
			AvgQuantity:     r.AvgQuantity,
			UniqueCustomers: r.UniqueCustomers,
		})
	}
	return out, nil
}

func (s *Orders) TopCoPurchasePairs(ctx context.Context, since time.Time, limit int) ([]*core.CoPurchasePair, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []struct {
		ProductA int64
		ProductB int64
		Count    int
	}
	err := s.DB.WithContext(ctx).Raw(`
		SELECT oi1.product_id               AS product_a,
		       oi2.product_id               AS product_b,
		       COUNT(DISTINCT oi1.order_id) AS count
		FROM order_items oi1
		JOIN order_items oi2 ON oi2.order_id = oi1.order_id AND oi1.product_id < oi2.product_id
		JOIN orders o        ON o.id = oi1.order_id
		WHERE o.created_at >= ?
		  AND o.status IN ?
		GROUP BY oi1.product_id, oi2.product_id
		ORDER BY count DESC, product_a, product_b
		LIMIT ?`,
		since, countedOrderStatuses, limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*core.CoPurchasePair, 0, len(rows))
	for _, r := range rows {
		out = append(out, &core.CoPurchasePair{ProductA: r.ProductA, ProductB: r.ProductB, Count: r.Count})
	}
	return out, nil
}

func (s *Orders) SalesQuantity(ctx context.Context, productID int64, since time.Time) (int, error) {
	var total int
	err := s.DB.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(oi.quantity), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.product_id = ?
		  AND o.created_at >= ?
		  AND o.status IN ?`,
		productID, since, countedOrderStatuses,
	).Scan(&total).Error
	return total, err
}

// Stats 是 core.StatsStore 的 Postgres 实现。
type Stats struct {
	DB *gorm.DB
}

func NewStats(db *gorm.DB) *Stats { return &Stats{DB: db} }

func (s *Stats) ActivityWindow(ctx context.Context, from, to time.Time) (map[int64]*core.ActivityStat, error) {
	var rows []struct {
		ProductID int64
		Kind      string
		Total     int
	}
	err := s.DB.WithContext(ctx).
		Model(&ActivityEventRow{}).
		Select("product_id, kind, SUM(n) AS total").
		Where("occurred_at >= ? AND occurred_at < ?", from, to).
		Group("product_id, kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*core.ActivityStat)
	for _, r := range rows {
		st, ok := out[r.ProductID]
		if !ok {
			st = &core.ActivityStat{}
			out[r.ProductID] = st
		}
		switch r.Kind {
		case "sale":
			st.Sales += r.Total
		case "view":
			st.Views += r.Total
		case "review":
			st.Reviews += r.Total
		case "wishlist":
			st.Wishlists += r.Total
		}
	}
	return out, nil
}

func (s *Stats) ReviewStats(ctx context.Context, productIDs []int64) (map[int64]*core.ReviewStat, error) {
	if len(productIDs) == 0 {
		return map[int64]*core.ReviewStat{}, nil
	}
	var rows []struct {
		ProductID int64
		AvgRating float64
		Count     int
	}
	err := s.DB.WithContext(ctx).
		Model(&ReviewRow{}).
		Select("product_id, AVG(rating) AS avg_rating, COUNT(*) AS count").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*core.ReviewStat, len(rows))
	for _, r := range rows {
		out[r.ProductID] = &core.ReviewStat{AvgRating: r.AvgRating, Count: r.Count}
	}
	return out, nil
}

// Similarities 是 core.SimilarityStore 的 Postgres 实现。
type Similarities struct {
	DB *gorm.DB
}

func NewSimilarities(db *gorm.DB) *Similarities { return &Similarities{DB: db} }

func (s *Similarities) TopSimilar(ctx context.Context, productID int64, algorithm string, minScore float64, freshSince time.Time, limit int) ([]*core.SimilarityRecord, error) {
	q := s.DB.WithContext(ctx).
		Where("product_id = ? AND algorithm = ?", productID, algorithm).
		Where("score >= ?", minScore)
	if !freshSince.IsZero() {
		q = q.Where("calculated_at > ?", freshSince)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []SimilarityRow
	if err := q.Order("score DESC, similar_product_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*core.SimilarityRecord, 0, len(rows))
	for i := range rows {
		r := rows[i]
		out = append(out, &core.SimilarityRecord{
			ProductID:        r.ProductID,
			SimilarProductID: r.SimilarProductID,
			Algorithm:        r.Algorithm,
			Score:            r.Score,
			CalculatedAt:     r.CalculatedAt,
		})
	}
	return out, nil
}

func (s *Similarities) UpsertSimilarities(ctx context.Context, records []*core.SimilarityRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]SimilarityRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, SimilarityRow{
			ProductID:        rec.ProductID,
			SimilarProductID: rec.SimilarProductID,
			Algorithm:        rec.Algorithm,
			Score:            rec.Score,
			CalculatedAt:     rec.CalculatedAt,
		})
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "similar_product_id"}, {Name: "algorithm"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "calculated_at"}),
	}).Create(&rows).Error
}

var (
	_ core.CatalogStore     = (*Catalog)(nil)
	_ core.InteractionStore = (*Interactions)(nil)
	_ core.OrderStore       = (*Orders)(nil)
	_ core.StatsStore       = (*Stats)(nil)
	_ core.SimilarityStore  = (*Similarities)(nil)
)
