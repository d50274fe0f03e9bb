package filter

import (
	"context"

	"github.com/goleaf/shoprec/core"
	"github.com/goleaf/shoprec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式描述保留条件：表达式为 true 的候选保留，否则过滤。
// 例如 "item.score > 0.3 && product.price < 100.0"。
//
// Catalog 可选：提供时会为表达式补充 product 维度的输入。
type ExprFilter struct {
	// Expr 是保留条件（CEL 表达式），空表达式恒为保留
	Expr string

	// Catalog 用于按 item.ID 补充商品维度（可选）
	Catalog core.CatalogStore
}

func NewExprFilter(expr string, catalog core.CatalogStore) *ExprFilter {
	return &ExprFilter{Expr: expr, Catalog: catalog}
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Expr == "" || item == nil {
		return false, nil
	}

	var product *core.Product
	if f.Catalog != nil {
		p, err := f.Catalog.GetProduct(ctx, item.ID)
		if err == nil {
			product = p
		}
	}

	keep, err := dsl.NewEval(item, product, rctx).Evaluate(f.Expr)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
