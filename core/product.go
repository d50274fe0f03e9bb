package core

import "time"

// Product 是商品的只读快照，打分引擎不修改它。
// BrandID 为 0 表示无品牌；CategoryIDs / AttributeIDs 语义上是集合。
type Product struct {
	ID           int64
	Price        float64
	CategoryIDs  []int64
	BrandID      int64
	AttributeIDs []int64
	Visible      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasCategory 判断商品是否属于指定类目。
func (p *Product) HasCategory(categoryID int64) bool {
	for _, id := range p.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

// SharesCategory 判断两个商品是否至少共享一个类目。
func (p *Product) SharesCategory(other *Product) bool {
	if other == nil {
		return false
	}
	for _, id := range p.CategoryIDs {
		if other.HasCategory(id) {
			return true
		}
	}
	return false
}
