// Package gormstore 提供领域存储接口的 Postgres 实现（基于 gorm）。
// 表结构对齐常见电商库：商品、交互、订单、活动事件、评论、相似度。
package gormstore

import (
	"time"

	"github.com/goleaf/shoprec/core"
)

// ProductRow 商品表。类目/属性以 JSON 数组列存储，读取后转为集合语义。
type ProductRow struct {
	ID           int64     `gorm:"primaryKey"`
	Price        float64   `gorm:"not null"`
	BrandID      int64     `gorm:"index"`
	CategoryIDs  []int64   `gorm:"serializer:json;column:category_ids"`
	AttributeIDs []int64   `gorm:"serializer:json;column:attribute_ids"`
	Visible      bool      `gorm:"index;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (ProductRow) TableName() string { return "products" }

func (r *ProductRow) toProduct() *core.Product {
	return &core.Product{
		ID:           r.ID,
		Price:        r.Price,
		BrandID:      r.BrandID,
		CategoryIDs:  r.CategoryIDs,
		AttributeIDs: r.AttributeIDs,
		Visible:      r.Visible,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// InteractionRow 交互表。(user_id, product_id, type) 唯一，重复交互走 upsert。
type InteractionRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"uniqueIndex:uq_interaction,priority:1;not null"`
	ProductID int64     `gorm:"uniqueIndex:uq_interaction,priority:2;not null"`
	Type      string    `gorm:"uniqueIndex:uq_interaction,priority:3;size:16;not null"`
	Rating    float64   `gorm:"not null"`
	Count     int       `gorm:"not null;default:1"`
	FirstAt   time.Time `gorm:"not null"`
	LastAt    time.Time `gorm:"not null;index"`
}

func (InteractionRow) TableName() string { return "interactions" }

// OrderRow 订单表。共现/销量统计只认 completed 与 delivered 状态。
type OrderRow struct {
	ID         int64     `gorm:"primaryKey"`
	CustomerID int64     `gorm:"index;not null"`
	Status     string    `gorm:"size:32;index;not null"`
	CreatedAt  time.Time `gorm:"index;not null"`
}

func (OrderRow) TableName() string { return "orders" }

// OrderItemRow 订单行。
type OrderItemRow struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	OrderID   int64 `gorm:"index:idx_order_items_order;not null"`
	ProductID int64 `gorm:"index:idx_order_items_product;not null"`
	Quantity  int   `gorm:"not null;default:1"`
}

func (OrderItemRow) TableName() string { return "order_items" }

// ActivityEventRow 活动事件表，热门/趋势统计的数据源。
type ActivityEventRow struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	ProductID  int64     `gorm:"index:idx_activity_product;not null"`
	Kind       string    `gorm:"size:16;not null"`
	N          int       `gorm:"not null;default:1"`
	OccurredAt time.Time `gorm:"index:idx_activity_at;not null"`
}

func (ActivityEventRow) TableName() string { return "activity_events" }

// ReviewRow 评论表，ReviewStats 在其上做 AVG/COUNT 聚合。
type ReviewRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ProductID int64     `gorm:"index;not null"`
	Rating    float64   `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (ReviewRow) TableName() string { return "reviews" }

// SimilarityRow 预计算相似度表。(product_id, similar_product_id, algorithm) 唯一。
type SimilarityRow struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	ProductID        int64     `gorm:"uniqueIndex:uq_similarity,priority:1;not null"`
	SimilarProductID int64     `gorm:"uniqueIndex:uq_similarity,priority:2;not null"`
	Algorithm        string    `gorm:"uniqueIndex:uq_similarity,priority:3;size:32;not null"`
	Score            float64   `gorm:"not null"`
	CalculatedAt     time.Time `gorm:"index;not null"`
}

func (SimilarityRow) TableName() string { return "product_similarities" }
