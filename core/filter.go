package core

import "context"

// ProductFilter 是候选商品过滤器的抽象接口，在策略打分前应用。
// 返回 true 表示保留该候选，false 表示剔除。
// 过滤器自身出错时调用方应跳过该过滤器而不是中断打分。
type ProductFilter interface {
	// Name 返回过滤器名称（用于日志/explain）
	Name() string

	// Match 判断候选商品是否通过过滤
	Match(ctx context.Context, rctx *RecommendContext, p *Product) (bool, error)
}

// ApplyFilters 依次应用过滤器，保留全部通过的商品。
// 单个过滤器返回错误时跳过该过滤器（best-effort），不中断整体流程。
func ApplyFilters(ctx context.Context, rctx *RecommendContext, filters []ProductFilter, products []*Product) []*Product {
	if len(filters) == 0 || len(products) == 0 {
		return products
	}
	out := make([]*Product, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		keep := true
		for _, f := range filters {
			ok, err := f.Match(ctx, rctx, p)
			if err != nil {
				continue
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, p)
		}
	}
	return out
}
