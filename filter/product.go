package filter

import (
	"context"

	"github.com/goleaf/shoprec/core"
)

// 本文件实现 core.ProductFilter：在策略打分前收窄候选商品集合。
// 与本包的 Filter（作用于打分后的 Item）互补。

// CategoryProductFilter 只保留属于任一给定类目的商品。
type CategoryProductFilter struct {
	CategoryIDs []int64
}

func (f *CategoryProductFilter) Name() string { return "product_filter.category" }

func (f *CategoryProductFilter) Match(_ context.Context, _ *core.RecommendContext, p *core.Product) (bool, error) {
	if len(f.CategoryIDs) == 0 {
		return true, nil
	}
	for _, id := range f.CategoryIDs {
		if p.HasCategory(id) {
			return true, nil
		}
	}
	return false, nil
}

// PriceRangeProductFilter 只保留价格在 [Min, Max] 内的商品；0 表示该端不限。
type PriceRangeProductFilter struct {
	Min float64
	Max float64
}

func (f *PriceRangeProductFilter) Name() string { return "product_filter.price_range" }

func (f *PriceRangeProductFilter) Match(_ context.Context, _ *core.RecommendContext, p *core.Product) (bool, error) {
	if f.Min > 0 && p.Price < f.Min {
		return false, nil
	}
	if f.Max > 0 && p.Price > f.Max {
		return false, nil
	}
	return true, nil
}

// BrandProductFilter 只保留指定品牌的商品。
type BrandProductFilter struct {
	BrandIDs []int64
}

func (f *BrandProductFilter) Name() string { return "product_filter.brand" }

func (f *BrandProductFilter) Match(_ context.Context, _ *core.RecommendContext, p *core.Product) (bool, error) {
	if len(f.BrandIDs) == 0 {
		return true, nil
	}
	for _, id := range f.BrandIDs {
		if p.BrandID == id {
			return true, nil
		}
	}
	return false, nil
}

// ExcludeProductFilter 剔除指定 ID 的商品。
type ExcludeProductFilter struct {
	ProductIDs []int64
}

func (f *ExcludeProductFilter) Name() string { return "product_filter.exclude" }

func (f *ExcludeProductFilter) Match(_ context.Context, _ *core.RecommendContext, p *core.Product) (bool, error) {
	for _, id := range f.ProductIDs {
		if p.ID == id {
			return false, nil
		}
	}
	return true, nil
}
