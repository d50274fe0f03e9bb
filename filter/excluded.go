package filter

import (
	"context"
	"encoding/json"

	"github.com/goleaf/shoprec/core"
)

// ExcludedFilter 剔除明确排除的商品 ID：运营下架、投诉、当前购物车内容等。
// 支持两种数据源：
//  1. 内存 ID 列表（构造时给定）
//  2. KV 存储中的 JSON 列表（可选，key 由调用方约定）
type ExcludedFilter struct {
	// ProductIDs 是内存中的排除商品 ID 列表
	ProductIDs []int64

	// Store 用于从存储中读取排除列表（可选）
	Store core.Store

	// Key 是 Store 中的排除列表 key（可选）
	Key string
}

// NewExcludedFilter 创建一个排除过滤器。
func NewExcludedFilter(productIDs []int64, store core.Store, key string) *ExcludedFilter {
	return &ExcludedFilter{
		ProductIDs: productIDs,
		Store:      store,
		Key:        key,
	}
}

func (f *ExcludedFilter) Name() string {
	return "filter.excluded"
}

func (f *ExcludedFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, id := range f.ProductIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if f.Store != nil && f.Key != "" {
		data, err := f.Store.Get(ctx, f.Key)
		if err != nil {
			if core.IsStoreNotFound(err) {
				return false, nil
			}
			return false, err
		}
		var ids []int64
		if err := json.Unmarshal(data, &ids); err != nil {
			return false, err
		}
		for _, id := range ids {
			if item.ID == id {
				return true, nil
			}
		}
	}
	return false, nil
}
